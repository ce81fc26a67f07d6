package render

import (
	"io"

	"github.com/beevik/etree"

	"github.com/marek-kar/genckl/pkg/model"
)

// cklRenderer writes the XML checklist format read by DISA STIG Viewer.
// Empty elements keep explicit end tags and nesting is tab indented.
type cklRenderer struct{}

func (r *cklRenderer) Render(w io.Writer, cl model.Checklist) error {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
	doc.CreateComment("DISA STIG Viewer :: " + model.ViewerVersion)

	root := doc.CreateElement("CHECKLIST")
	asset := root.CreateElement("ASSET")
	for _, f := range cl.Asset.Fields() {
		asset.CreateElement(f.Name).SetText(f.Value.String())
	}

	stigs := root.CreateElement("STIGS")
	for _, b := range cl.STIGs {
		istig := stigs.CreateElement("iSTIG")
		info := istig.CreateElement("STIG_INFO")
		for _, a := range b.Info() {
			si := info.CreateElement("SI_DATA")
			si.CreateElement("SID_NAME").SetText(a.Name)
			if a.Value.Valid() {
				si.CreateElement("SID_DATA").SetText(a.Value.String())
			}
		}
		for _, v := range b.Vulns {
			writeVuln(istig.CreateElement("VULN"), v)
		}
	}

	doc.WriteSettings.CanonicalEndTags = true
	doc.WriteSettings.CanonicalText = true
	doc.IndentWithSettings(&etree.IndentSettings{
		UseTabs:                    true,
		SuppressTrailingWhitespace: true,
	})
	_, err := doc.WriteTo(w)
	return err
}

func writeVuln(el *etree.Element, v *model.Vuln) {
	for _, a := range v.Attributes() {
		stigData(el, a.Name, a.Value)
	}
	for _, id := range v.LegacyIDs {
		stigData(el, "LEGACY_ID", model.Text(id))
	}
	for _, ref := range v.CCIRefs {
		stigData(el, "CCI_REF", model.Text(ref))
	}
	el.CreateElement("STATUS").SetText(string(v.Status))
	el.CreateElement("FINDING_DETAILS").SetText(v.FindingDetails)
	el.CreateElement("COMMENTS").SetText(v.Comments)
	el.CreateElement("SEVERITY_OVERRIDE").SetText(string(v.SeverityOverride))
	el.CreateElement("SEVERITY_JUSTIFICATION").SetText(v.SeverityJustification)
}

func stigData(parent *etree.Element, name string, value model.Value) {
	sd := parent.CreateElement("STIG_DATA")
	sd.CreateElement("VULN_ATTRIBUTE").SetText(name)
	if value.Valid() {
		sd.CreateElement("ATTRIBUTE_DATA").SetText(value.String())
	}
}
