package reconcile

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marek-kar/genckl/pkg/hostinfo"
	"github.com/marek-kar/genckl/pkg/model"
	"github.com/marek-kar/genckl/pkg/render"
	"github.com/marek-kar/genckl/pkg/template"
)

func newVuln(id, group, ver string) *model.Vuln {
	v := model.NewVuln()
	v.VulnNum = model.Text(id)
	v.GroupTitle = model.Text(group)
	v.RuleVer = model.Text(ver)
	v.TargetKey = model.Text("2899")
	v.Class = model.Text("")
	return v
}

func baseline(id string, vulns ...*model.Vuln) *model.Benchmark {
	return &model.Benchmark{
		StigID:      model.Text(id),
		Title:       model.Text(id + " title"),
		Version:     model.Text("1"),
		ReleaseInfo: model.Text("Release: 1"),
		ID:          id + "-uuid",
		Vulns:       vulns,
	}
}

func results(id, tool string, vulns ...*model.Vuln) *model.Benchmark {
	b := baseline(id, vulns...)
	b.HasResults = true
	b.ResultsTool = tool
	return b
}

func scanned(id, group, ver, result string) *model.Vuln {
	v := newVuln(id, group, ver)
	v.ApplyResult(result, "scc", "2020-01-02T03:04:05")
	return v
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	e := NewEngine(model.DefaultAsset())

	assert.True(t, e.Register(baseline("A", newVuln("V-1", "G1", "R1"))))
	assert.False(t, e.Register(baseline("A")))
	assert.Len(t, e.Benchmarks(), 1)
	assert.True(t, e.Register(baseline("B")))
	assert.Len(t, e.Benchmarks(), 2)
}

func TestRegisterSeedsTargetKeyOnce(t *testing.T) {
	e := NewEngine(model.DefaultAsset())

	require.True(t, e.Register(baseline("empty")))
	assert.Empty(t, e.Asset().TargetKey)

	first := newVuln("V-1", "G1", "R1")
	first.TargetKey = model.Text("1111")
	require.True(t, e.Register(baseline("A", first)))
	assert.Equal(t, "1111", e.Asset().TargetKey)

	other := newVuln("V-2", "G2", "R2")
	other.TargetKey = model.Text("2222")
	require.True(t, e.Register(baseline("B", other)))
	assert.Equal(t, "1111", e.Asset().TargetKey)
}

func TestFlattenMergesResults(t *testing.T) {
	target := newVuln("V-1", "G1", "R1")
	untouched := newVuln("V-2", "G2", "R2")
	base := baseline("base", target, untouched)
	res := results("res", "scc", scanned("x_V-1", "G1", "R1", "fail"))

	e := NewEngine(model.DefaultAsset())
	require.True(t, e.Register(base))
	require.True(t, e.Register(res))
	e.Flatten()

	require.Len(t, e.Benchmarks(), 1)
	assert.Same(t, base, e.Benchmarks()[0])
	assert.Len(t, base.Vulns, 2)
	assert.Equal(t, model.StatusOpen, target.Status)
	assert.True(t, strings.HasPrefix(target.FindingDetails, "Tool: scc"))
	assert.Equal(t, model.StatusNotReviewed, untouched.Status)
}

func TestFlattenKeepsResidualRecords(t *testing.T) {
	base := baseline("base", newVuln("V-1", "G1", "R1"))
	matched := scanned("x_V-1", "G1", "R1", "pass")
	orphan := scanned("x_V-9", "G9", "R9", "fail")
	res := results("res", "scc", matched, orphan)

	e := NewEngine(model.DefaultAsset())
	e.Register(base)
	e.Register(res)
	e.Flatten()

	require.Len(t, e.Benchmarks(), 2)
	assert.Same(t, res, e.Benchmarks()[1])
	assert.Equal(t, []*model.Vuln{orphan}, res.Vulns)
	assert.Equal(t, model.StatusNotAFinding, base.Vulns[0].Status)
}

func TestFlattenIsIdempotent(t *testing.T) {
	e := NewEngine(model.DefaultAsset())
	e.Register(baseline("base", newVuln("V-1", "G1", "R1")))
	e.Register(results("res1", "scc", scanned("a", "G1", "R1", "fail"), scanned("b", "G9", "R9", "fail")))
	e.Register(results("res2", "acas", scanned("c", "G9", "R9", "pass")))

	e.Flatten()
	first := e.Checklist()
	var once bytes.Buffer
	require.NoError(t, render.New(render.FormatCKL).Render(&once, first))

	e.Flatten()
	var twice bytes.Buffer
	require.NoError(t, render.New(render.FormatCKL).Render(&twice, e.Checklist()))

	assert.Equal(t, once.String(), twice.String())
	assert.Len(t, e.Benchmarks(), 2)
}

func TestFlattenResultMatchesEarlierResidual(t *testing.T) {
	base := baseline("base", newVuln("V-1", "G1", "R1"))
	residual := scanned("b", "G9", "R9", "fail")
	res1 := results("res1", "scc", scanned("a", "G1", "R1", "fail"), residual)
	res2 := results("res2", "acas", scanned("c", "G9", "R9", "pass"))

	e := NewEngine(model.DefaultAsset())
	e.Register(base)
	e.Register(res1)
	e.Register(res2)
	e.Flatten()

	require.Len(t, e.Benchmarks(), 2)
	assert.Same(t, res1, e.Benchmarks()[1])
	assert.Equal(t, model.StatusNotAFinding, residual.Status)
	assert.Contains(t, residual.FindingDetails, "Result: pass")
}

func TestFlattenLastResultWins(t *testing.T) {
	target := newVuln("V-1", "G1", "R1")
	e := NewEngine(model.DefaultAsset())
	e.Register(baseline("base", target))
	e.Register(results("res1", "scc", scanned("a", "G1", "R1", "fail")))
	e.Register(results("res2", "scc", scanned("b", "G1", "R1", "pass")))
	e.Flatten()

	assert.Len(t, e.Benchmarks(), 1)
	assert.Equal(t, model.StatusNotAFinding, target.Status)
}

func TestFlattenFirstMatchPerBenchmark(t *testing.T) {
	first := newVuln("V-1", "G1", "R1")
	dup := newVuln("V-1b", "G1", "R1")
	other := newVuln("V-1", "G1", "R1")
	e := NewEngine(model.DefaultAsset())
	e.Register(baseline("base1", first, dup))
	e.Register(baseline("base2", other))
	e.Register(results("res", "scc", scanned("a", "G1", "R1", "fail")))
	e.Flatten()

	assert.Equal(t, model.StatusOpen, first.Status)
	assert.Equal(t, model.StatusNotReviewed, dup.Status)
	assert.Equal(t, model.StatusOpen, other.Status)
}

func TestPlanFlattenDoesNotMutate(t *testing.T) {
	target := newVuln("V-1", "G1", "R1")
	res := results("res", "scc", scanned("a", "G1", "R1", "fail"))
	benchmarks := []*model.Benchmark{baseline("base", target), res}

	plan := PlanFlatten(benchmarks)
	require.Len(t, plan.Matches, 1)
	assert.Same(t, target, plan.Matches[0].Target)
	assert.Equal(t, model.StatusNotReviewed, target.Status)
	assert.Len(t, res.Vulns, 1)
	require.Len(t, plan.Survivors, 1)

	out := plan.Commit()
	assert.Len(t, out, 1)
	assert.Equal(t, model.StatusOpen, target.Status)
}

type upperExpander struct {
	calls int
}

func (u *upperExpander) Expand(_ context.Context, text string) (string, error) {
	u.calls++
	return strings.ToUpper(text), nil
}

type failingExpander struct{}

func (failingExpander) Expand(context.Context, string) (string, error) {
	return "", errors.New("command failed")
}

func TestApplyTemplate(t *testing.T) {
	v1000 := newVuln("V-1000", "G1", "R1")
	v1001 := newVuln("V-1001", "G2", "R2")
	v1001.Status = model.StatusOpen
	e := NewEngine(model.DefaultAsset())
	e.Register(baseline("base", v1000, v1001))

	tmpl := &template.Template{Source: "inline", Rows: []template.Row{
		{
			ID:                            "V-1000",
			Status:                        "not A finding",
			FindingDetails:                "details",
			Comments:                      "comments",
			SeverityOverride:              "CAT1",
			SeverityOverrideJustification: "why",
		},
		{ID: "V-1001", Status: "bogus", SeverityOverride: "extreme"},
		{ID: "V-4242", Status: "open", Comments: "nobody"},
	}}
	require.NoError(t, e.ApplyTemplate(context.Background(), tmpl, nil))

	assert.Equal(t, model.StatusNotAFinding, v1000.Status)
	assert.Equal(t, "details", v1000.FindingDetails)
	assert.Equal(t, "comments", v1000.Comments)
	assert.Equal(t, model.SeverityHigh, v1000.SeverityOverride)
	assert.Equal(t, "why", v1000.SeverityJustification)

	// unrecognized values leave the old state, text fields are still copied
	assert.Equal(t, model.StatusOpen, v1001.Status)
	assert.Equal(t, model.SeverityNone, v1001.SeverityOverride)
	assert.Empty(t, v1001.FindingDetails)
}

func TestApplyTemplateSeverityAliases(t *testing.T) {
	for _, sev := range []string{"CAT1", "CATI", "cat i", "Cat 1"} {
		v := newVuln("V-1000", "G1", "R1")
		e := NewEngine(model.DefaultAsset())
		e.Register(baseline("base", v))
		tmpl := &template.Template{Rows: []template.Row{{ID: "V-1000", SeverityOverride: sev}}}
		require.NoError(t, e.ApplyTemplate(context.Background(), tmpl, nil))
		assert.Equal(t, model.SeverityHigh, v.SeverityOverride, sev)
	}
}

func TestApplyTemplateExpands(t *testing.T) {
	v := newVuln("V-1000", "G1", "R1")
	e := NewEngine(model.DefaultAsset())
	e.Register(baseline("base", v))
	tmpl := &template.Template{Rows: []template.Row{
		{ID: "V-1000", FindingDetails: "out", Comments: "note"},
		{ID: "V-9999", FindingDetails: "skipped"},
	}}

	exp := &upperExpander{}
	require.NoError(t, e.ApplyTemplate(context.Background(), tmpl, exp))
	assert.Equal(t, "OUT", v.FindingDetails)
	assert.Equal(t, "NOTE", v.Comments)
	assert.Equal(t, 2, exp.calls)

	err := e.ApplyTemplate(context.Background(), tmpl, failingExpander{})
	assert.Error(t, err)
}

func TestApplyTemplateUnmatchedRowChangesNothing(t *testing.T) {
	v := newVuln("V-1000", "G1", "R1")
	e := NewEngine(model.DefaultAsset())
	e.Register(baseline("base", v))

	before := *v
	tmpl := &template.Template{Rows: []template.Row{{ID: "V-1", Status: "open", Comments: "x"}}}
	require.NoError(t, e.ApplyTemplate(context.Background(), tmpl, nil))
	assert.Equal(t, before, *v)
}

func TestSetHostData(t *testing.T) {
	e := NewEngine(model.DefaultAsset())
	e.SetHostData(hostinfo.Info{
		Hostname: "web01",
		FQDN:     "web01.example.mil",
		IP:       "10.0.0.5",
		RawMAC:   "242ac110002",
	})

	a := e.Asset()
	assert.Equal(t, "web01", a.HostName)
	assert.Equal(t, "web01.example.mil", a.HostFQDN)
	assert.Equal(t, "10.0.0.5", a.HostIP)
	assert.Equal(t, "02-42-AC-11-00-02", a.HostMAC)
	assert.Equal(t, "None", a.Role)
}

func TestWriteEndToEnd(t *testing.T) {
	base := baseline("base", newVuln("V-1", "G1", "R1"))
	res := results("res", "scc", scanned("x", "G1", "R1", "fail"))

	e := NewEngine(model.DefaultAsset())
	e.Register(base)
	e.Register(res)

	var buf bytes.Buffer
	require.NoError(t, e.Write(ToWriter(&buf), render.New(render.FormatCKL)))

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "<STIG_INFO>"))
	assert.Equal(t, 1, strings.Count(out, "<VULN>"))
	assert.Contains(t, out, "<STATUS>Open</STATUS>")
	assert.Contains(t, out, "<FINDING_DETAILS>Tool: ")
	assert.True(t, strings.HasPrefix(out, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<!--DISA STIG Viewer :: 2.11-->\n"))
}

func TestWriteToPath(t *testing.T) {
	e := NewEngine(model.DefaultAsset())
	e.Register(baseline("base", newVuln("V-1", "G1", "R1")))

	path := filepath.Join(t.TempDir(), "out.ckl")
	require.NoError(t, e.Write(ToPath(path), render.New(render.FormatCKL)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(string(data), "</CHECKLIST>"))

	err = e.Write(ToPath(filepath.Join(t.TempDir(), "missing", "out.ckl")), render.New(render.FormatCKL))
	assert.Error(t, err)
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("closed pipe") }

func TestWriteReportsWriterErrors(t *testing.T) {
	e := NewEngine(model.DefaultAsset())
	err := e.Write(ToWriter(brokenWriter{}), render.New(render.FormatCKL))
	assert.Error(t, err)
}

func TestWriteWithoutDestination(t *testing.T) {
	e := NewEngine(model.DefaultAsset())
	e.Register(baseline("base", newVuln("V-1", "G1", "R1")))

	require.NotPanics(t, func() {
		err := e.Write(Output{}, render.New(render.FormatCKL))
		assert.Error(t, err)
	})
}
