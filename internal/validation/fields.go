package validation

import (
	apperrors "archgraph.io/archgraph/internal/pkg/errors"
)

// Fields is caller input for a create or partial update. A key that is absent
// leaves the previous value unchanged; a key that is present replaces it,
// even when its value is null or blank.
type Fields map[string]any

// AsFields checks that raw is a JSON object.
func AsFields(raw any) (Fields, error) {
	obj, ok := asObject(raw)
	if !ok {
		return nil, apperrors.BadRequest(apperrors.CodeValidationFailed, "request body must be a JSON object")
	}
	return Fields(obj), nil
}

// Has reports whether key was supplied.
func (f Fields) Has(key string) bool {
	return has(f, key)
}

// Raw returns the untouched value under key.
func (f Fields) Raw(key string) any {
	return f[key]
}

// String returns the trimmed string under key, or prev when key is absent.
func (f Fields) String(key, prev string) string {
	return pickString(f, key, prev)
}

// RequiredString is String for fields that may not end up blank.
func (f Fields) RequiredString(key, prev string) (string, error) {
	v := f.String(key, prev)
	if v == "" {
		return "", apperrors.ErrRequiredField(key)
	}
	return v, nil
}

// Strings returns the deduplicated string set under key, or a copy of prev
// when key is absent.
func (f Fields) Strings(key string, prev []string) []string {
	if !f.Has(key) {
		out := make([]string, len(prev))
		copy(out, prev)
		return out
	}
	return stringSet(f[key])
}

// Bool returns the boolean under key, or prev when key is absent.
func (f Fields) Bool(key string, prev bool) bool {
	return pickBool(f, key, prev)
}

// StringSet returns the distinct non-blank trimmed strings of a JSON array in
// first-seen order; any other value is an empty set.
func StringSet(raw any) []string {
	return stringSet(raw)
}
