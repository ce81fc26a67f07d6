package model

// Benchmark is one parsed XCCDF document: a STIG definition, a scan result,
// or both.
type Benchmark struct {
	Version        Value `json:"version"`
	Classification Value `json:"classification"`
	CustomName     Value `json:"customname"`
	StigID         Value `json:"stigid"`
	Description    Value `json:"description"`
	Filename       Value `json:"filename"`
	ReleaseInfo    Value `json:"releaseinfo"`
	Title          Value `json:"title"`
	UUID           Value `json:"uuid"`
	Notice         Value `json:"notice"`
	Source         Value `json:"source"`

	// ID is shared by every Vuln of this benchmark as STIG_UUID. The
	// viewer expects it to differ from UUID.
	ID         string            `json:"id"`
	Namespaces map[string]string `json:"namespaces,omitempty"`

	HasResults  bool   `json:"hasResults"`
	ResultsTool string `json:"resultsTool,omitempty"`
	ResultsTime string `json:"resultsTime,omitempty"`

	Vulns []*Vuln `json:"vulns"`
}

// Key is the benchmark identity used to reject duplicate imports.
func (b *Benchmark) Key() string {
	return b.StigID.String()
}

// Ref is the STIGRef string carried by every Vuln.
func (b *Benchmark) Ref() string {
	return b.Title.String() + " :: Version " + b.Version.String() + ", " + b.ReleaseInfo.String()
}

func (b *Benchmark) Info() []Attribute {
	return []Attribute{
		{"version", b.Version},
		{"classification", b.Classification},
		{"customname", b.CustomName},
		{"stigid", b.StigID},
		{"description", b.Description},
		{"filename", b.Filename},
		{"releaseinfo", b.ReleaseInfo},
		{"title", b.Title},
		{"uuid", b.UUID},
		{"notice", b.Notice},
		{"source", b.Source},
	}
}
