package model

import "encoding/json"

// Value is optional text. The zero Value is absent, which the checklist
// viewer distinguishes from a present but empty string.
type Value struct {
	s     string
	valid bool
}

var Null = Value{}

func Text(s string) Value {
	return Value{s: s, valid: true}
}

func (v Value) Valid() bool { return v.valid }

func (v Value) String() string { return v.s }

func (v Value) MarshalJSON() ([]byte, error) {
	if !v.valid {
		return []byte("null"), nil
	}
	return json.Marshal(v.s)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Null
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = Text(s)
	return nil
}

// Attribute is one ordered name/value pair of a checklist block.
type Attribute struct {
	Name  string `json:"name"`
	Value Value  `json:"value"`
}
