package xccdf

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/beevik/etree"
	"github.com/google/uuid"

	"github.com/marek-kar/genckl/pkg/model"
)

type Option func(*Parser)

// WithIDGenerator replaces the random identifiers stamped on every parsed
// benchmark. Tests use it to get stable output.
func WithIDGenerator(gen func() string) Option {
	return func(p *Parser) {
		p.newID = gen
	}
}

type Parser struct {
	newID func() string
}

func NewParser(opts ...Option) *Parser {
	p := &Parser{newID: uuid.NewString}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Parser) ParseFile(path string) (*model.Benchmark, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open xccdf: %w", err)
	}
	defer f.Close()
	return p.Parse(f, path)
}

// Parse reads one XCCDF benchmark. filename is only used for the STIG_INFO
// filename entry and error messages; an archive entry name works as well as
// a path.
func (p *Parser) Parse(r io.Reader, filename string) (*model.Benchmark, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, &ParseError{File: filename, Err: fmt.Errorf("%w: %v", ErrStructure, err)}
	}
	root := doc.Root()
	if root == nil {
		return nil, &ParseError{File: filename, Err: missing("root element")}
	}

	dr := newDocReader(root)
	b := dr.benchmark(p.newID, filename)
	if dr.err != nil {
		return nil, &ParseError{File: filename, Path: dr.path, Err: dr.err}
	}
	return b, nil
}

func (r *docReader) benchmark(newID func() string, filename string) *model.Benchmark {
	root := r.root
	b := &model.Benchmark{
		ID:         newID(),
		Namespaces: r.namespaces(),
	}

	b.Version = nonEmpty(r.text(root, r.d, "version"))
	b.StigID = nonEmpty(attr(root, "id"))
	b.Description = nonEmpty(r.text(root, r.d, "description"))
	if filename != "" {
		b.Filename = model.Text(filepath.Base(filename))
	}
	b.ReleaseInfo = nonEmpty(r.text(root, r.d, "plain-text"))
	b.Title = nonEmpty(r.text(root, r.d, "title"))
	b.UUID = model.Text(newID())
	b.Notice = nonEmpty(attr(r.child(root, r.d, "notice"), "id"))
	b.Source = nonEmpty(r.text(r.child(root, r.d, "reference"), r.dc, "source"))
	if r.err != nil {
		return nil
	}

	results := r.testResult(b)
	for _, group := range r.children(root, r.d, "Group") {
		v := r.vuln(group, b)
		if r.err != nil {
			return nil
		}
		if res, ok := results[v.RuleID.String()]; ok && v.RuleID.Valid() {
			outcome := r.text(res, r.d, "result")
			if r.err != nil {
				return nil
			}
			v.ApplyResult(outcome.String(), b.ResultsTool, b.ResultsTime)
		}
		b.Vulns = append(b.Vulns, v)
	}
	return b
}

// testResult fills the result metadata of b and indexes rule results by the
// rule they refer to. A later rule-result for the same rule replaces an
// earlier one.
func (r *docReader) testResult(b *model.Benchmark) map[string]*etree.Element {
	tr := r.find(r.root, r.d, "TestResult")
	if tr == nil {
		return nil
	}
	b.HasResults = true
	b.ResultsTool = attr(tr, "test-system").String()
	b.ResultsTime = attr(tr, "start-time").String()

	results := make(map[string]*etree.Element)
	for _, rr := range r.children(tr, r.d, "rule-result") {
		idref := attr(rr, "idref")
		if !idref.Valid() {
			continue
		}
		results[idref.String()] = rr
	}
	return results
}

func (r *docReader) vuln(group *etree.Element, b *model.Benchmark) *model.Vuln {
	rule := r.child(group, r.d, "Rule")
	desc := r.description(rule)
	check := r.child(rule, r.d, "check")
	if r.err != nil {
		return nil
	}

	v := model.NewVuln()
	v.VulnNum = attr(group, "id")
	v.Severity = attr(rule, "severity")
	v.GroupTitle = r.text(group, r.d, "title")
	v.RuleID = attr(rule, "id")
	v.RuleVer = r.text(rule, r.d, "version")
	v.RuleTitle = r.text(rule, r.d, "title")
	v.VulnDiscuss = r.text(desc, "", "VulnDiscussion")
	v.IAControls = r.text(desc, "", "IAControls")
	if cc := r.find(check, r.d, "check-content"); cc != nil {
		v.CheckContent = model.Text(cc.Text())
	}
	v.FixText = r.text(rule, r.d, "fixtext")
	v.FalsePositives = r.text(desc, "", "FalsePositives")
	v.FalseNegatives = r.text(desc, "", "FalseNegatives")
	v.Documentable = r.text(desc, "", "Documentable")
	v.Mitigations = r.text(desc, "", "Mitigations")
	v.PotentialImpact = r.text(desc, "", "PotentialImpacts")
	v.ThirdPartyTools = r.text(desc, "", "ThirdPartyTools")
	v.MitigationControl = r.text(desc, "", "MitigationControl")
	v.Responsibility = r.text(desc, "", "Responsibility")
	v.SeverityOverrideGuidance = r.text(desc, "", "SeverityOverrideGuidance")
	v.CheckContentRef = attr(r.child(check, r.d, "check-content-ref"), "name")
	v.Weight = attr(rule, "weight")
	v.Class = model.Text("")
	v.STIGRef = model.Text(b.Ref())
	v.TargetKey = r.text(r.child(rule, r.d, "reference"), r.dc, "identifier")
	v.STIGUUID = model.Text(b.ID)

	for _, ident := range r.children(rule, r.d, "ident") {
		v.AddIdent(ident.Text())
	}
	return v
}

// description parses the markup that STIG authors embed, escaped, in the
// rule description.
func (r *docReader) description(rule *etree.Element) *etree.Element {
	d := r.child(rule, r.d, "description")
	if d == nil {
		return nil
	}
	frag := etree.NewDocument()
	if err := frag.ReadFromString("<desc>" + d.Text() + "</desc>"); err != nil {
		r.err = fmt.Errorf("%w: rule description: %v", ErrStructure, err)
		r.path = d.GetPath()
		return nil
	}
	return frag.Root()
}
