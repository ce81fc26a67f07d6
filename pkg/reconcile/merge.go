package reconcile

import "github.com/marek-kar/genckl/pkg/model"

// Match pairs a scanned record with the baseline record it reports on.
type Match struct {
	Target *model.Vuln
	Source *model.Vuln
}

// Survivor is a benchmark that stays in the checklist after flattening,
// together with the records it keeps.
type Survivor struct {
	Benchmark *model.Benchmark
	Vulns     []*model.Vuln
}

// Plan is the outcome of a flatten, computed without touching any
// benchmark. Commit applies it.
type Plan struct {
	Matches   []Match
	Survivors []Survivor
}

// PlanFlatten decides how result benchmarks fold into the other benchmarks.
//
// Every result benchmark is matched, in registration order, against every
// target: first all benchmarks without results, then the residue of result
// benchmarks handled before it. A record matches at most the first record
// with the same key in each target. Records that matched somewhere are
// consumed; a result benchmark with records left over becomes a target
// itself.
func PlanFlatten(benchmarks []*model.Benchmark) Plan {
	var plan Plan
	var results []*model.Benchmark
	for _, b := range benchmarks {
		if b.HasResults {
			results = append(results, b)
		} else {
			plan.Survivors = append(plan.Survivors, Survivor{Benchmark: b, Vulns: b.Vulns})
		}
	}

	index := make(map[int]map[string]*model.Vuln)
	for _, res := range results {
		consumed := make(map[*model.Vuln]bool)
		for i, target := range plan.Survivors {
			keys, ok := index[i]
			if !ok {
				keys = firstByKey(target.Vulns)
				index[i] = keys
			}
			for _, src := range res.Vulns {
				if dst, ok := keys[src.Key()]; ok {
					plan.Matches = append(plan.Matches, Match{Target: dst, Source: src})
					consumed[src] = true
				}
			}
		}

		var rest []*model.Vuln
		for _, v := range res.Vulns {
			if !consumed[v] {
				rest = append(rest, v)
			}
		}
		if len(rest) > 0 {
			plan.Survivors = append(plan.Survivors, Survivor{Benchmark: res, Vulns: rest})
		}
	}
	return plan
}

func firstByKey(vulns []*model.Vuln) map[string]*model.Vuln {
	keys := make(map[string]*model.Vuln, len(vulns))
	for _, v := range vulns {
		if _, ok := keys[v.Key()]; !ok {
			keys[v.Key()] = v
		}
	}
	return keys
}

// Commit imports every matched result in plan order, so a record matched by
// several result benchmarks ends up with the last one, and trims each
// surviving benchmark down to its remaining records.
func (p Plan) Commit() []*model.Benchmark {
	for _, m := range p.Matches {
		m.Target.ImportResult(m.Source)
	}
	out := make([]*model.Benchmark, 0, len(p.Survivors))
	for _, s := range p.Survivors {
		s.Benchmark.Vulns = s.Vulns
		out = append(out, s.Benchmark)
	}
	return out
}
