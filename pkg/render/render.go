package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/marek-kar/genckl/pkg/model"
)

type Format string

const (
	FormatCKL   Format = "ckl"
	FormatTable Format = "table"
	FormatJSON  Format = "json"
)

// ParseFormat accepts the names of the formats New knows.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatCKL, FormatTable, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (want ckl, table or json)", s)
}

type Renderer interface {
	Render(w io.Writer, cl model.Checklist) error
}

func New(f Format) Renderer {
	switch f {
	case FormatJSON:
		return &jsonRenderer{}
	case FormatTable:
		return &tableRenderer{}
	default:
		return &cklRenderer{}
	}
}

type jsonRenderer struct{}

func (r *jsonRenderer) Render(w io.Writer, cl model.Checklist) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(cl)
}

type tableRenderer struct{}

func (r *tableRenderer) Render(w io.Writer, cl model.Checklist) error {
	fmt.Fprintf(w, "Asset: %s", valueOr(cl.Asset.HostName, "(unnamed)"))
	if cl.Asset.TargetKey != "" {
		fmt.Fprintf(w, " (target key %s)", cl.Asset.TargetKey)
	}
	fmt.Fprintln(w)

	for _, b := range cl.STIGs {
		fmt.Fprintf(w, "\n=== %s ===\n", b.Ref())

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintf(tw, "STATUS\tVULN\tRULE VERSION\tSEVERITY\tTITLE\n")
		counts := make(map[model.Status]int)
		for _, v := range b.Vulns {
			counts[v.Status]++
			severity := v.Severity.String()
			if v.SeverityOverride != model.SeverityNone {
				severity = string(v.SeverityOverride) + "*"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				v.Status,
				v.ID(),
				v.RuleVer.String(),
				strings.ToUpper(severity),
				v.RuleTitle.String(),
			)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		fmt.Fprintf(w, "Open: %d  NotAFinding: %d  Not_Applicable: %d  Not_Reviewed: %d\n",
			counts[model.StatusOpen],
			counts[model.StatusNotAFinding],
			counts[model.StatusNotApplicable],
			counts[model.StatusNotReviewed],
		)
	}
	return nil
}

func valueOr(s, dflt string) string {
	if s == "" {
		return dflt
	}
	return s
}
