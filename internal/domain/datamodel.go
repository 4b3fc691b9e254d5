package domain

import (
	"encoding/json"
	"fmt"
)

// DataModel is a named, recursively typed record definition.
type DataModel struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Attributes  []DataModelAttribute `json:"attributes"`
}

// Clone returns a deep copy of the data model.
func (m DataModel) Clone() DataModel {
	out := m
	out.Attributes = cloneAttributes(m.Attributes)
	return out
}

// Attribute types with structural meaning.
const (
	AttributeTypeObject = "object"
	AttributeTypeArray  = "array"
)

// DataModelAttribute is one field of a data model.
// Attributes holds children for type "object"; Element holds the item type
// for type "array". Both recurse to arbitrary depth.
type DataModelAttribute struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Type        string                `json:"type"`
	Required    bool                  `json:"required"`
	Unique      bool                  `json:"unique"`
	Constraints []AttributeConstraint `json:"constraints"`
	ReadOnly    bool                  `json:"readOnly"`
	Encrypted   bool                  `json:"encrypted"`
	Private     bool                  `json:"private"`
	Attributes  []DataModelAttribute  `json:"attributes"`
	Element     *DataModelAttribute   `json:"element"`
}

// Clone returns a deep copy of the attribute subtree.
func (a DataModelAttribute) Clone() DataModelAttribute {
	out := a
	out.Constraints = make([]AttributeConstraint, len(a.Constraints))
	for i, c := range a.Constraints {
		out.Constraints[i] = c.Clone()
	}
	out.Attributes = cloneAttributes(a.Attributes)
	if a.Element != nil {
		el := a.Element.Clone()
		out.Element = &el
	}
	return out
}

func cloneAttributes(in []DataModelAttribute) []DataModelAttribute {
	out := make([]DataModelAttribute, len(in))
	for i, a := range in {
		out[i] = a.Clone()
	}
	return out
}

// ConstraintType discriminates AttributeConstraint.
type ConstraintType string

const (
	ConstraintRegex     ConstraintType = "regex"
	ConstraintMinLength ConstraintType = "minLength"
	ConstraintMaxLength ConstraintType = "maxLength"
	ConstraintMin       ConstraintType = "min"
	ConstraintMax       ConstraintType = "max"
	ConstraintEnum      ConstraintType = "enum"
)

// AttributeConstraint is a closed tagged union; only the field matching Type
// is meaningful:
//
//	regex               → Pattern
//	minLength/maxLength → Length
//	min/max             → Bound
//	enum                → Values
type AttributeConstraint struct {
	Type    ConstraintType
	Pattern string
	Length  int
	Bound   float64
	Values  []string
}

// RegexConstraint builds a regex constraint.
func RegexConstraint(pattern string) AttributeConstraint {
	return AttributeConstraint{Type: ConstraintRegex, Pattern: pattern}
}

// LengthConstraint builds a minLength or maxLength constraint.
func LengthConstraint(t ConstraintType, n int) AttributeConstraint {
	return AttributeConstraint{Type: t, Length: n}
}

// BoundConstraint builds a min or max constraint.
func BoundConstraint(t ConstraintType, v float64) AttributeConstraint {
	return AttributeConstraint{Type: t, Bound: v}
}

// EnumConstraint builds an enum constraint.
func EnumConstraint(values ...string) AttributeConstraint {
	return AttributeConstraint{Type: ConstraintEnum, Values: values}
}

// Clone returns a deep copy of the constraint.
func (c AttributeConstraint) Clone() AttributeConstraint {
	out := c
	if c.Values != nil {
		out.Values = cloneStrings(c.Values)
	}
	return out
}

// MarshalJSON encodes the constraint as {type, value} or {type, values}.
func (c AttributeConstraint) MarshalJSON() ([]byte, error) {
	switch c.Type {
	case ConstraintRegex:
		return json.Marshal(struct {
			Type  ConstraintType `json:"type"`
			Value string         `json:"value"`
		}{c.Type, c.Pattern})
	case ConstraintMinLength, ConstraintMaxLength:
		return json.Marshal(struct {
			Type  ConstraintType `json:"type"`
			Value int            `json:"value"`
		}{c.Type, c.Length})
	case ConstraintMin, ConstraintMax:
		return json.Marshal(struct {
			Type  ConstraintType `json:"type"`
			Value float64        `json:"value"`
		}{c.Type, c.Bound})
	case ConstraintEnum:
		values := c.Values
		if values == nil {
			values = []string{}
		}
		return json.Marshal(struct {
			Type   ConstraintType `json:"type"`
			Values []string       `json:"values"`
		}{c.Type, values})
	default:
		return nil, fmt.Errorf("unknown constraint type %q", c.Type)
	}
}
