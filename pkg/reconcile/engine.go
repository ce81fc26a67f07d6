package reconcile

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/marek-kar/genckl/pkg/hostinfo"
	"github.com/marek-kar/genckl/pkg/model"
	"github.com/marek-kar/genckl/pkg/template"
)

// Expander rewrites template text before it lands in a checklist, e.g. by
// running embedded commands.
type Expander interface {
	Expand(ctx context.Context, text string) (string, error)
}

// Engine accumulates benchmarks for one asset and turns them into a single
// checklist.
type Engine struct {
	asset      model.Asset
	benchmarks []*model.Benchmark
}

func NewEngine(asset model.Asset) *Engine {
	return &Engine{asset: asset}
}

// Register adds b unless a benchmark with the same id is already held. The
// first benchmark with records also supplies the asset's target key; later
// benchmarks are not checked against it.
func (e *Engine) Register(b *model.Benchmark) bool {
	for _, held := range e.benchmarks {
		if held.Key() == b.Key() {
			return false
		}
	}
	e.benchmarks = append(e.benchmarks, b)
	if e.asset.TargetKey == "" && len(b.Vulns) > 0 {
		e.asset.TargetKey = b.Vulns[0].TargetKey.String()
	}
	return true
}

func (e *Engine) Benchmarks() []*model.Benchmark {
	return e.benchmarks
}

func (e *Engine) Asset() model.Asset {
	return e.asset
}

// Flatten folds result benchmarks into the benchmarks they report on. Running
// it again is a no-op.
func (e *Engine) Flatten() {
	plan := PlanFlatten(e.benchmarks)
	before := len(e.benchmarks)
	e.benchmarks = plan.Commit()
	log.Debug().
		Int("benchmarks", before).
		Int("survivors", len(e.benchmarks)).
		Int("matches", len(plan.Matches)).
		Msg("Flattened benchmarks")
}

// ApplyTemplate copies the review state of every template row onto the
// records with the same Vuln_Num. exp may be nil.
func (e *Engine) ApplyTemplate(ctx context.Context, t *template.Template, exp Expander) error {
	e.Flatten()

	byID := make(map[string][]*model.Vuln)
	for _, b := range e.benchmarks {
		for _, v := range b.Vulns {
			if v.VulnNum.Valid() {
				byID[v.ID()] = append(byID[v.ID()], v)
			}
		}
	}

	for _, row := range t.Rows {
		vulns := byID[row.ID]
		if len(vulns) == 0 {
			log.Debug().Str("template", t.Source).Str("id", row.ID).Msg("Template row matches no vulnerability")
			continue
		}

		details, comments := row.FindingDetails, row.Comments
		if exp != nil {
			var err error
			if details, err = exp.Expand(ctx, details); err != nil {
				return fmt.Errorf("template %s, %s finding details: %w", t.Source, row.ID, err)
			}
			if comments, err = exp.Expand(ctx, comments); err != nil {
				return fmt.Errorf("template %s, %s comments: %w", t.Source, row.ID, err)
			}
		}

		status, statusOK := model.ParseStatus(row.Status)
		severity, severityOK := model.ParseSeverity(row.SeverityOverride)
		for _, v := range vulns {
			if statusOK {
				v.Status = status
			}
			v.FindingDetails = details
			v.Comments = comments
			if severityOK {
				v.SeverityOverride = severity
			}
			v.SeverityJustification = row.SeverityOverrideJustification
		}
	}
	return nil
}

func (e *Engine) SetHostData(info hostinfo.Info) {
	e.asset.HostName = info.Hostname
	e.asset.HostFQDN = info.FQDN
	e.asset.HostIP = info.IP
	e.asset.HostMAC = model.FormatMAC(info.RawMAC)
}

// Checklist flattens and returns the renderable state.
func (e *Engine) Checklist() model.Checklist {
	e.Flatten()
	return model.Checklist{Asset: e.asset, STIGs: e.benchmarks}
}
