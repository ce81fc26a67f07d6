package xccdf

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/marek-kar/genckl/pkg/model"
)

// docReader walks one benchmark document. The first missing required
// element is recorded in err and turns every later lookup into a no-op, so
// callers check err once per unit of work.
type docReader struct {
	root *etree.Element
	// namespace URIs of the benchmark elements and of the Dublin Core
	// reference metadata
	d, dc string

	err  error
	path string
}

func newDocReader(root *etree.Element) *docReader {
	r := &docReader{root: root, d: root.NamespaceURI()}
	if src := firstSource(root); src != nil {
		r.dc = src.NamespaceURI()
	}
	return r
}

func (r *docReader) namespaces() map[string]string {
	ns := make(map[string]string)
	if r.d != "" {
		ns["d"] = r.d
	}
	if r.dc != "" {
		ns["dc"] = r.dc
	}
	return ns
}

func firstSource(e *etree.Element) *etree.Element {
	if strings.HasSuffix(e.Tag, "source") {
		return e
	}
	for _, c := range e.ChildElements() {
		if found := firstSource(c); found != nil {
			return found
		}
	}
	return nil
}

func (r *docReader) find(e *etree.Element, space, tag string) *etree.Element {
	if r.err != nil || e == nil {
		return nil
	}
	for _, c := range e.ChildElements() {
		if c.Tag == tag && c.NamespaceURI() == space {
			return c
		}
	}
	return nil
}

func (r *docReader) children(e *etree.Element, space, tag string) []*etree.Element {
	if r.err != nil || e == nil {
		return nil
	}
	var out []*etree.Element
	for _, c := range e.ChildElements() {
		if c.Tag == tag && c.NamespaceURI() == space {
			out = append(out, c)
		}
	}
	return out
}

// child is find for elements that must exist.
func (r *docReader) child(e *etree.Element, space, tag string) *etree.Element {
	if r.err != nil || e == nil {
		return nil
	}
	c := r.find(e, space, tag)
	if c == nil {
		r.err = missing(tag)
		r.path = e.GetPath() + "/" + tag
	}
	return c
}

func (r *docReader) text(e *etree.Element, space, tag string) model.Value {
	c := r.child(e, space, tag)
	if c == nil {
		return model.Null
	}
	return model.Text(c.Text())
}

// attr looks up an unprefixed attribute. A missing attribute is not an
// error; it serializes as an absent value.
func attr(e *etree.Element, key string) model.Value {
	if e == nil {
		return model.Null
	}
	for _, a := range e.Attr {
		if a.Space == "" && a.Key == key {
			return model.Text(a.Value)
		}
	}
	return model.Null
}

// nonEmpty folds empty document level text into absent; the viewer writes
// neither.
func nonEmpty(v model.Value) model.Value {
	if v.String() == "" {
		return model.Null
	}
	return v
}
