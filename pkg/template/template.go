package template

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrMissingColumn = errors.New("template is missing a required column")

var columns = []string{
	"id",
	"status",
	"findingdetails",
	"comments",
	"severityoverride",
	"severityoverridejustification",
}

// Row is the review state a template assigns to one vulnerability. Status
// and SeverityOverride are kept as written; they are interpreted when the
// row is applied.
type Row struct {
	ID                            string `yaml:"id"`
	Status                        string `yaml:"status"`
	FindingDetails                string `yaml:"findingdetails"`
	Comments                      string `yaml:"comments"`
	SeverityOverride              string `yaml:"severityoverride"`
	SeverityOverrideJustification string `yaml:"severityoverridejustification"`
}

type Template struct {
	Source string
	Rows   []Row
}

// Load reads a template file, choosing the format by extension.
func Load(path string) (*Template, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open template: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(f, path)
	default:
		return ParseCSV(f, path)
	}
}

// ParseCSV reads a CSV template. Header names are matched with spaces
// removed and case folded, so "Finding Details" and "findingdetails" are the
// same column.
func ParseCSV(r io.Reader, source string) (*Template, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read template %s header: %w", source, err)
	}
	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[strings.ToLower(strings.ReplaceAll(name, " ", ""))] = i
	}
	for _, col := range columns {
		if _, ok := pos[col]; !ok {
			return nil, fmt.Errorf("%s: %w: %s", source, ErrMissingColumn, col)
		}
	}

	t := &Template{Source: source}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read template %s: %w", source, err)
		}
		field := func(col string) string {
			if i := pos[col]; i < len(rec) {
				return rec[i]
			}
			return ""
		}
		t.Rows = append(t.Rows, Row{
			ID:                            field("id"),
			Status:                        field("status"),
			FindingDetails:                field("findingdetails"),
			Comments:                      field("comments"),
			SeverityOverride:              field("severityoverride"),
			SeverityOverrideJustification: field("severityoverridejustification"),
		})
	}
	return t, nil
}

type yamlTemplate struct {
	Vulns []Row `yaml:"vulns"`
}

// ParseYAML reads a template of the form
//
//	vulns:
//	  - id: V-1000
//	    status: open
//	    comments: ...
func ParseYAML(r io.Reader, source string) (*Template, error) {
	var doc yamlTemplate
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode template %s: %w", source, err)
	}
	return &Template{Source: source, Rows: doc.Vulns}, nil
}
