package model

import "strings"

// Vuln is one checkable rule of a STIG together with its review state.
type Vuln struct {
	VulnNum                  Value `json:"vulnNum"`
	Severity                 Value `json:"severity"`
	GroupTitle               Value `json:"groupTitle"`
	RuleID                   Value `json:"ruleId"`
	RuleVer                  Value `json:"ruleVer"`
	RuleTitle                Value `json:"ruleTitle"`
	VulnDiscuss              Value `json:"vulnDiscuss"`
	IAControls               Value `json:"iaControls"`
	CheckContent             Value `json:"checkContent"`
	FixText                  Value `json:"fixText"`
	FalsePositives           Value `json:"falsePositives"`
	FalseNegatives           Value `json:"falseNegatives"`
	Documentable             Value `json:"documentable"`
	Mitigations              Value `json:"mitigations"`
	PotentialImpact          Value `json:"potentialImpact"`
	ThirdPartyTools          Value `json:"thirdPartyTools"`
	MitigationControl        Value `json:"mitigationControl"`
	Responsibility           Value `json:"responsibility"`
	SeverityOverrideGuidance Value `json:"severityOverrideGuidance"`
	CheckContentRef          Value `json:"checkContentRef"`
	Weight                   Value `json:"weight"`
	Class                    Value `json:"class"`
	STIGRef                  Value `json:"stigRef"`
	TargetKey                Value `json:"targetKey"`
	STIGUUID                 Value `json:"stigUuid"`

	LegacyIDs []string `json:"legacyIds"`
	CCIRefs   []string `json:"cciRefs"`

	Status                Status   `json:"status"`
	FindingDetails        string   `json:"findingDetails"`
	Comments              string   `json:"comments"`
	SeverityOverride      Severity `json:"severityOverride"`
	SeverityJustification string   `json:"severityJustification"`
}

func NewVuln() *Vuln {
	return &Vuln{Status: StatusNotReviewed}
}

// ID is the group identifier (e.g. "V-1000") that templates refer to.
func (v *Vuln) ID() string {
	return v.VulnNum.String()
}

// Key identifies the same logical rule across benchmark and result
// documents, whose rule ids usually differ.
func (v *Vuln) Key() string {
	return v.GroupTitle.String() + v.RuleVer.String()
}

func (v *Vuln) Attributes() []Attribute {
	return []Attribute{
		{"Vuln_Num", v.VulnNum},
		{"Severity", v.Severity},
		{"Group_Title", v.GroupTitle},
		{"Rule_ID", v.RuleID},
		{"Rule_Ver", v.RuleVer},
		{"Rule_Title", v.RuleTitle},
		{"Vuln_Discuss", v.VulnDiscuss},
		{"IA_Controls", v.IAControls},
		{"Check_Content", v.CheckContent},
		{"Fix_Text", v.FixText},
		{"False_Positives", v.FalsePositives},
		{"False_Negatives", v.FalseNegatives},
		{"Documentable", v.Documentable},
		{"Mitigations", v.Mitigations},
		{"Potential_Impact", v.PotentialImpact},
		{"Third_Party_Tools", v.ThirdPartyTools},
		{"Mitigation_Control", v.MitigationControl},
		{"Responsibility", v.Responsibility},
		{"Security_Override_Guidance", v.SeverityOverrideGuidance},
		{"Check_Content_Ref", v.CheckContentRef},
		{"Weight", v.Weight},
		{"Class", v.Class},
		{"STIGRef", v.STIGRef},
		{"TargetKey", v.TargetKey},
		{"STIG_UUID", v.STIGUUID},
	}
}

// AddIdent files an XCCDF ident under legacy ids ("V-71859", "SV-86483")
// and/or CCI references. An ident that matches neither is dropped.
func (v *Vuln) AddIdent(ident string) {
	if strings.HasPrefix(ident, "V-") || (len(ident) > 1 && strings.HasPrefix(ident[1:], "V-")) {
		v.LegacyIDs = append(v.LegacyIDs, ident)
	}
	if strings.HasPrefix(ident, "CCI") {
		v.CCIRefs = append(v.CCIRefs, ident)
	}
}

// ApplyResult records a scan result produced by tool at the given time.
func (v *Vuln) ApplyResult(result, tool, time string) {
	switch result {
	case "pass":
		v.Status = StatusNotAFinding
	case "fail":
		v.Status = StatusOpen
	}
	v.FindingDetails = "Tool: " + tool + "\nTime: " + time + "\nResult: " + result
}

// ImportResult copies the scan outcome of other. Comments and severity
// overrides only ever come from templates.
func (v *Vuln) ImportResult(other *Vuln) {
	v.Status = other.Status
	v.FindingDetails = other.FindingDetails
}
