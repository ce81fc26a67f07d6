package model

import "strings"

const ViewerVersion = "2.11"

type Asset struct {
	Role          string `json:"role"`
	AssetType     string `json:"assetType"`
	HostName      string `json:"hostName"`
	HostIP        string `json:"hostIp"`
	HostMAC       string `json:"hostMac"`
	HostFQDN      string `json:"hostFqdn"`
	TargetComment string `json:"targetComment"`
	TechArea      string `json:"techArea"`
	TargetKey     string `json:"targetKey"`
	WebOrDatabase string `json:"webOrDatabase"`
	WebDBSite     string `json:"webDbSite"`
	WebDBInstance string `json:"webDbInstance"`
}

func DefaultAsset() Asset {
	return Asset{
		Role:          "None",
		AssetType:     "Computing",
		WebOrDatabase: "false",
	}
}

func (a Asset) Fields() []Attribute {
	return []Attribute{
		{"ROLE", Text(a.Role)},
		{"ASSET_TYPE", Text(a.AssetType)},
		{"HOST_NAME", Text(a.HostName)},
		{"HOST_IP", Text(a.HostIP)},
		{"HOST_MAC", Text(a.HostMAC)},
		{"HOST_FQDN", Text(a.HostFQDN)},
		{"TARGET_COMMENT", Text(a.TargetComment)},
		{"TECH_AREA", Text(a.TechArea)},
		{"TARGET_KEY", Text(a.TargetKey)},
		{"WEB_OR_DATABASE", Text(a.WebOrDatabase)},
		{"WEB_DB_SITE", Text(a.WebDBSite)},
		{"WEB_DB_INSTANCE", Text(a.WebDBInstance)},
	}
}

// FormatMAC turns a raw hex node id ("a1b2c3d4e5f6") into AA-BB-CC-DD-EE-FF.
// Short input is left-padded with zeros; anything past six octets is dropped.
func FormatMAC(raw string) string {
	raw = strings.ToUpper(raw)
	if len(raw) < 12 {
		raw = strings.Repeat("0", 12-len(raw)) + raw
	}
	pairs := make([]string, 0, 6)
	for i := 0; i < 6; i++ {
		pairs = append(pairs, raw[i*2:i*2+2])
	}
	return strings.Join(pairs, "-")
}

// Checklist is everything the renderers need.
type Checklist struct {
	Asset Asset        `json:"asset"`
	STIGs []*Benchmark `json:"stigs"`
}
