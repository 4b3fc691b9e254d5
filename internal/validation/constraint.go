package validation

import (
	"fmt"
	"math"
	"strings"

	"archgraph.io/archgraph/internal/domain"
	apperrors "archgraph.io/archgraph/internal/pkg/errors"
)

// maxLengthBound keeps truncated length bounds exactly representable.
const maxLengthBound = 1 << 53

// NormalizeConstraint classifies a raw constraint by its "type" discriminant.
// The returned error is always a BadRequest with CodeInvalidConstraint.
func NormalizeConstraint(raw any) (domain.AttributeConstraint, error) {
	obj, ok := asObject(raw)
	if !ok {
		return domain.AttributeConstraint{}, invalidConstraint("constraint must be an object")
	}

	kind := domain.ConstraintType(str(obj["type"], ""))
	switch kind {
	case domain.ConstraintRegex:
		// Stored verbatim; the pattern is not compiled here.
		pattern, ok := obj["value"].(string)
		if !ok || strings.TrimSpace(pattern) == "" {
			return domain.AttributeConstraint{}, invalidConstraint("regex constraint needs a non-empty string value")
		}
		return domain.RegexConstraint(pattern), nil

	case domain.ConstraintMinLength, domain.ConstraintMaxLength:
		n, ok := number(obj["value"])
		if !ok {
			return domain.AttributeConstraint{}, invalidConstraint(fmt.Sprintf("%s constraint needs a numeric value", kind))
		}
		n = math.Trunc(n)
		if n < 0 || n > maxLengthBound {
			return domain.AttributeConstraint{}, invalidConstraint(fmt.Sprintf("%s constraint must be a non-negative integer", kind))
		}
		return domain.LengthConstraint(kind, int(n)), nil

	case domain.ConstraintMin, domain.ConstraintMax:
		n, ok := number(obj["value"])
		if !ok {
			return domain.AttributeConstraint{}, invalidConstraint(fmt.Sprintf("%s constraint needs a finite numeric value", kind))
		}
		return domain.BoundConstraint(kind, n), nil

	case domain.ConstraintEnum:
		source := obj["values"]
		if !has(obj, "values") {
			source = obj["value"]
		}
		values := enumValues(source)
		if len(values) == 0 {
			return domain.AttributeConstraint{}, invalidConstraint("enum constraint needs at least one value")
		}
		return domain.EnumConstraint(values...), nil

	default:
		return domain.AttributeConstraint{}, invalidConstraint(fmt.Sprintf("unknown constraint type %q", kind))
	}
}

// NormalizeConstraints normalizes a constraint list, keeping the first
// constraint of each kind. In strict mode (write path) the first malformed
// entry fails the whole list; otherwise malformed entries are dropped.
func NormalizeConstraints(raw any, strict bool) ([]domain.AttributeConstraint, error) {
	out := []domain.AttributeConstraint{}
	if raw == nil {
		return out, nil
	}
	items, ok := raw.([]any)
	if !ok {
		if strict {
			return nil, invalidConstraint("constraints must be an array")
		}
		return out, nil
	}

	seen := make(map[domain.ConstraintType]struct{}, len(items))
	for _, item := range items {
		c, err := NormalizeConstraint(item)
		if err != nil {
			if strict {
				return nil, err
			}
			continue
		}
		if _, dup := seen[c.Type]; dup {
			continue
		}
		seen[c.Type] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

// enumValues accepts an array of scalars or a comma/newline separated string.
func enumValues(v any) []string {
	var parts []string
	switch src := v.(type) {
	case []any:
		for _, item := range src {
			parts = append(parts, scalarString(item))
		}
	case string:
		parts = strings.FieldsFunc(src, func(r rune) bool { return r == ',' || r == '\n' })
	default:
		return nil
	}

	out := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

func invalidConstraint(msg string) error {
	return apperrors.BadRequest(apperrors.CodeInvalidConstraint, msg)
}
