// Package validation turns untrusted JSON into well-formed domain values.
//
// Two paths share the same coercion rules:
//
//   - The read path (ValidateAggregate, Decode, SanitizeAttributeList) is total.
//     It never fails and never panics; anything it cannot make sense of is
//     dropped or defaulted so a damaged store can always be read.
//   - The write path (AttributeBuilder, NormalizeConstraints in strict mode)
//     rejects malformed caller input with a BadRequest error.
//
// Import Path: archgraph.io/archgraph/internal/validation
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"

	"archgraph.io/archgraph/internal/domain"
)

// ValidateAggregate sanitizes a decoded JSON value into an aggregate.
// Non-object input yields an empty aggregate.
func ValidateAggregate(raw any) domain.Aggregate {
	out := domain.Aggregate{}
	if _, ok := asObject(raw); !ok {
		return out
	}
	for _, e := range entries(raw) {
		p, ok := SanitizeProject(e.value, e.key)
		if !ok {
			continue
		}
		if _, dup := out[p.ID]; dup {
			continue
		}
		out[p.ID] = p
	}
	return out
}

// Revalidate re-sanitizes a typed aggregate. The result shares no memory with
// the input.
func Revalidate(agg domain.Aggregate) (domain.Aggregate, error) {
	data, err := json.Marshal(agg)
	if err != nil {
		return nil, fmt.Errorf("encode aggregate: %w", err)
	}
	return Decode(data)
}

// Decode parses JSON bytes and sanitizes them into an aggregate.
// Blank input is an empty aggregate. Only a JSON syntax error fails.
func Decode(data []byte) (domain.Aggregate, error) {
	raw, err := decodeRaw(data)
	if err != nil {
		return nil, fmt.Errorf("decode aggregate: %w", err)
	}
	return ValidateAggregate(raw), nil
}

// DecodeTenants parses a multi-tenant document ({userId: aggregate}).
func DecodeTenants(data []byte) (map[string]domain.Aggregate, error) {
	raw, err := decodeRaw(data)
	if err != nil {
		return nil, fmt.Errorf("decode tenants: %w", err)
	}
	out := map[string]domain.Aggregate{}
	obj, ok := asObject(raw)
	if !ok {
		return out, nil
	}
	for key, value := range obj {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		out[key] = ValidateAggregate(value)
	}
	return out, nil
}

func decodeRaw(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// SanitizeProject sanitizes one project. fallbackID is used when the value
// carries no id of its own (the map key it was stored under).
func SanitizeProject(raw any, fallbackID string) (domain.Project, bool) {
	obj, ok := asObject(raw)
	if !ok {
		return domain.Project{}, false
	}
	p := domain.NewProject(str(obj["id"], fallbackID), str(obj["name"], ""))
	if p.ID == "" || p.Name == "" {
		return domain.Project{}, false
	}
	p.Description = str(obj["description"], "")
	p.Tags = stringSet(obj["tags"])

	for _, e := range entries(obj["systems"]) {
		if s, ok := SanitizeSystem(e.value, e.key); ok {
			if _, dup := p.Systems[s.ID]; !dup {
				p.Systems[s.ID] = s
			}
		}
	}
	p.RootSystemID = str(obj["rootSystemId"], "")
	if _, ok := p.Systems[p.RootSystemID]; !ok {
		return domain.Project{}, false
	}
	normalizeTree(p.Systems, p.RootSystemID)

	for _, e := range entries(obj["flows"]) {
		if f, ok := SanitizeFlow(e.value, e.key); ok {
			if _, dup := p.Flows[f.ID]; !dup {
				p.Flows[f.ID] = f
			}
		}
	}
	for _, e := range entries(obj["dataModels"]) {
		if m, ok := SanitizeDataModel(e.value, e.key); ok {
			if _, dup := p.DataModels[m.ID]; !dup {
				p.DataModels[m.ID] = m
			}
		}
	}
	for _, e := range entries(obj["components"]) {
		if c, ok := SanitizeComponent(e.value, e.key); ok {
			if _, dup := p.Components[c.ID]; !dup {
				p.Components[c.ID] = c
			}
		}
	}
	for _, e := range entries(obj["entryPoints"]) {
		if ep, ok := SanitizeEntryPoint(e.value, e.key); ok {
			if _, dup := p.EntryPoints[ep.ID]; !dup {
				p.EntryPoints[ep.ID] = ep
			}
		}
	}
	return p, true
}

// SanitizeSystem sanitizes one system. IsRoot and ChildIDs are settled later
// by the tree pass, which needs the whole project.
func SanitizeSystem(raw any, fallbackID string) (domain.System, bool) {
	obj, ok := asObject(raw)
	if !ok {
		return domain.System{}, false
	}
	s := domain.System{
		ID:          str(obj["id"], fallbackID),
		Name:        str(obj["name"], ""),
		Description: str(obj["description"], ""),
		Tags:        stringSet(obj["tags"]),
		ChildIDs:    stringSet(obj["childIds"]),
	}
	if s.ID == "" || s.Name == "" {
		return domain.System{}, false
	}
	return s, true
}

// normalizeTree makes the system graph a forest rooted at rootID.
//
// Child ids that are missing, self references or the root are dropped. A child
// claimed by several parents stays with the first claimant in breadth-first
// order from the root. Systems not reachable from the root keep their own
// subtrees: traversal continues from systems nobody else claims, then from
// whatever is left (cycles), both in id order. A valid tree passes unchanged.
func normalizeTree(systems map[string]domain.System, rootID string) {
	claimed := make(map[string]bool, len(systems))
	walk := func(start string) {
		claimed[start] = true
		queue := []string{start}
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			s := systems[id]
			kids := make([]string, 0, len(s.ChildIDs))
			for _, c := range s.ChildIDs {
				if _, ok := systems[c]; !ok || c == id || c == rootID || claimed[c] {
					continue
				}
				claimed[c] = true
				kids = append(kids, c)
				queue = append(queue, c)
			}
			s.ChildIDs = kids
			s.IsRoot = id == rootID
			systems[id] = s
		}
	}

	walk(rootID)

	ids := slices.Sorted(maps.Keys(systems))
	indegree := make(map[string]int, len(systems))
	for _, id := range ids {
		if claimed[id] {
			continue
		}
		for _, c := range systems[id].ChildIDs {
			if c != id && !claimed[c] {
				indegree[c]++
			}
		}
	}
	for _, id := range ids {
		if !claimed[id] && indegree[id] == 0 {
			walk(id)
		}
	}
	for _, id := range ids {
		if !claimed[id] {
			walk(id)
		}
	}
}

// SanitizeFlow sanitizes one flow. A flow must keep at least one system in
// scope; whether those systems still exist is not checked here.
func SanitizeFlow(raw any, fallbackID string) (domain.Flow, bool) {
	obj, ok := asObject(raw)
	if !ok {
		return domain.Flow{}, false
	}
	f := domain.Flow{
		ID:             str(obj["id"], fallbackID),
		Name:           str(obj["name"], ""),
		Description:    str(obj["description"], ""),
		Tags:           stringSet(obj["tags"]),
		SystemScopeIDs: stringSet(obj["systemScopeIds"]),
		Steps:          []domain.Step{},
	}
	if f.ID == "" || f.Name == "" || len(f.SystemScopeIDs) == 0 {
		return domain.Flow{}, false
	}

	items, _ := obj["steps"].([]any)
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		st, ok := SanitizeStep(item)
		if !ok {
			continue
		}
		if _, dup := seen[st.ID]; dup {
			continue
		}
		seen[st.ID] = struct{}{}
		f.Steps = append(f.Steps, st)
	}
	return f, true
}

// SanitizeStep sanitizes one step. A step needs a component on both ends, or
// failing that the older source/target system pair, in which case the
// endpoints are left empty.
func SanitizeStep(raw any) (domain.Step, bool) {
	obj, ok := asObject(raw)
	if !ok {
		return domain.Step{}, false
	}
	st := domain.Step{
		ID:               str(obj["id"], ""),
		Name:             str(obj["name"], ""),
		Description:      str(obj["description"], ""),
		Tags:             stringSet(obj["tags"]),
		Source:           sanitizeEndpoint(obj["source"]),
		Target:           sanitizeEndpoint(obj["target"]),
		AlternateFlowIDs: stringSet(obj["alternateFlowIds"]),
	}
	if st.ID == "" || st.Name == "" {
		return domain.Step{}, false
	}
	if st.Source.ComponentID != "" && st.Target.ComponentID != "" {
		return st, true
	}

	st.SourceSystemID = str(obj["sourceSystemId"], "")
	st.TargetSystemID = str(obj["targetSystemId"], "")
	if st.SourceSystemID == "" || st.TargetSystemID == "" {
		return domain.Step{}, false
	}
	st.Source = domain.StepEndpoint{}
	st.Target = domain.StepEndpoint{}
	return st, true
}

func sanitizeEndpoint(raw any) domain.StepEndpoint {
	obj, ok := asObject(raw)
	if !ok {
		return domain.StepEndpoint{}
	}
	ep := domain.StepEndpoint{ComponentID: str(obj["componentId"], "")}
	if id := str(obj["entryPointId"], ""); id != "" {
		ep.EntryPointID = &id
	}
	return ep
}

// SanitizeDataModel sanitizes one data model and its attribute tree.
func SanitizeDataModel(raw any, fallbackID string) (domain.DataModel, bool) {
	obj, ok := asObject(raw)
	if !ok {
		return domain.DataModel{}, false
	}
	m := domain.DataModel{
		ID:          str(obj["id"], fallbackID),
		Name:        str(obj["name"], ""),
		Description: str(obj["description"], ""),
		Attributes:  SanitizeAttributeList(obj["attributes"]),
	}
	if m.ID == "" || m.Name == "" {
		return domain.DataModel{}, false
	}
	return m, true
}

// SanitizeComponent sanitizes one component.
func SanitizeComponent(raw any, fallbackID string) (domain.Component, bool) {
	obj, ok := asObject(raw)
	if !ok {
		return domain.Component{}, false
	}
	c := domain.Component{
		ID:            str(obj["id"], fallbackID),
		Name:          str(obj["name"], ""),
		Description:   str(obj["description"], ""),
		EntryPointIDs: stringSet(obj["entryPointIds"]),
	}
	if c.ID == "" || c.Name == "" {
		return domain.Component{}, false
	}
	return c, true
}

// SanitizeEntryPoint sanitizes one entry point.
func SanitizeEntryPoint(raw any, fallbackID string) (domain.EntryPoint, bool) {
	obj, ok := asObject(raw)
	if !ok {
		return domain.EntryPoint{}, false
	}
	ep := domain.EntryPoint{
		ID:               str(obj["id"], fallbackID),
		Name:             str(obj["name"], ""),
		Description:      str(obj["description"], ""),
		Type:             str(obj["type"], ""),
		Protocol:         str(obj["protocol"], ""),
		Method:           str(obj["method"], ""),
		Path:             str(obj["path"], ""),
		RequestModelIDs:  stringSet(obj["requestModelIds"]),
		ResponseModelIDs: stringSet(obj["responseModelIds"]),
	}
	if ep.ID == "" || ep.Name == "" || ep.Type == "" {
		return domain.EntryPoint{}, false
	}
	return ep, true
}
