package validation

import (
	"archgraph.io/archgraph/internal/domain"
	apperrors "archgraph.io/archgraph/internal/pkg/errors"
)

// AttributeBuilder builds attribute trees from caller input (the write path).
//
// An attribute whose id matches an entry of the existing index keeps that id
// and inherits every field the input omits, including its nested attributes
// and element. Any other attribute gets a fresh id from NewID. Recursion
// narrows the index to the matched node's own children, so identity survives
// across edits at every depth.
type AttributeBuilder struct {
	NewID func() string
}

// BuildList builds an attribute list. A nil raw value is an empty list;
// anything else that is not an array is rejected.
func (b AttributeBuilder) BuildList(raw any, existing map[string]domain.DataModelAttribute) ([]domain.DataModelAttribute, error) {
	return attributeBuilder{newID: b.NewID}.list(raw, existing)
}

// SanitizeAttributeList is the read path: ids are taken as stored, attributes
// without an id, name or type are dropped, and malformed constraints are
// discarded instead of failing.
func SanitizeAttributeList(raw any) []domain.DataModelAttribute {
	out, _ := attributeBuilder{}.list(raw, nil)
	return out
}

// IndexAttributes keys an attribute list by id.
func IndexAttributes(attrs []domain.DataModelAttribute) map[string]domain.DataModelAttribute {
	idx := make(map[string]domain.DataModelAttribute, len(attrs))
	for _, a := range attrs {
		idx[a.ID] = a
	}
	return idx
}

// attributeBuilder is strict when newID is set and lenient otherwise.
type attributeBuilder struct {
	newID func() string
}

func (b attributeBuilder) strict() bool {
	return b.newID != nil
}

func (b attributeBuilder) list(raw any, existing map[string]domain.DataModelAttribute) ([]domain.DataModelAttribute, error) {
	out := []domain.DataModelAttribute{}
	if raw == nil {
		return out, nil
	}
	items, ok := raw.([]any)
	if !ok {
		if b.strict() {
			return nil, apperrors.BadRequest(apperrors.CodeValidationFailed, "attributes must be an array")
		}
		return out, nil
	}

	used := make(map[string]struct{}, len(items))
	for _, item := range items {
		attr, ok, err := b.one(item, existing, used)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, attr)
		}
	}
	return out, nil
}

func (b attributeBuilder) one(raw any, existing map[string]domain.DataModelAttribute, used map[string]struct{}) (domain.DataModelAttribute, bool, error) {
	obj, ok := asObject(raw)
	if !ok {
		return domain.DataModelAttribute{}, false, nil
	}

	id := str(obj["id"], "")
	var base domain.DataModelAttribute
	if b.strict() {
		prev, matched := existing[id]
		if _, dup := used[id]; matched && !dup {
			base = prev
		} else {
			id = b.newID()
		}
	} else if id == "" {
		return domain.DataModelAttribute{}, false, nil
	} else if _, dup := used[id]; dup {
		return domain.DataModelAttribute{}, false, nil
	}

	attr := domain.DataModelAttribute{
		ID:          id,
		Name:        pickString(obj, "name", base.Name),
		Description: pickString(obj, "description", base.Description),
		Type:        pickString(obj, "type", base.Type),
		Required:    pickBool(obj, "required", base.Required),
		Unique:      pickBool(obj, "unique", base.Unique),
		ReadOnly:    pickBool(obj, "readOnly", base.ReadOnly),
		Encrypted:   pickBool(obj, "encrypted", base.Encrypted),
		Private:     pickBool(obj, "private", base.Private),
	}
	if attr.Name == "" || attr.Type == "" {
		return domain.DataModelAttribute{}, false, nil
	}
	prev := base.Clone()

	if has(obj, "constraints") {
		cs, err := NormalizeConstraints(obj["constraints"], b.strict())
		if err != nil {
			return domain.DataModelAttribute{}, false, err
		}
		attr.Constraints = cs
	} else {
		attr.Constraints = prev.Constraints
	}

	if has(obj, "attributes") {
		children, err := b.list(obj["attributes"], IndexAttributes(base.Attributes))
		if err != nil {
			return domain.DataModelAttribute{}, false, err
		}
		attr.Attributes = children
	} else {
		attr.Attributes = prev.Attributes
	}

	if attr.Type == domain.AttributeTypeArray {
		el, err := b.element(obj, prev)
		if err != nil {
			return domain.DataModelAttribute{}, false, err
		}
		attr.Element = el
	}

	used[id] = struct{}{}
	return attr, true, nil
}

// element resolves an array attribute's item type. The index offered for
// identity matching is the previous element alone.
func (b attributeBuilder) element(obj map[string]any, base domain.DataModelAttribute) (*domain.DataModelAttribute, error) {
	if !has(obj, "element") {
		return base.Element, nil
	}

	var existing map[string]domain.DataModelAttribute
	if base.Element != nil {
		existing = map[string]domain.DataModelAttribute{base.Element.ID: *base.Element}
	}
	el, ok, err := b.one(obj["element"], existing, map[string]struct{}{})
	if err != nil || !ok {
		return nil, err
	}
	return &el, nil
}

// pickString returns the trimmed string under key when present, or prev.
func pickString(obj map[string]any, key, prev string) string {
	if !has(obj, key) {
		return prev
	}
	return str(obj[key], "")
}

func pickBool(obj map[string]any, key string, prev bool) bool {
	if !has(obj, key) {
		return prev
	}
	return boolean(obj[key])
}
