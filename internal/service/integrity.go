package service

import (
	"fmt"

	"archgraph.io/archgraph/internal/domain"
	apperrors "archgraph.io/archgraph/internal/pkg/errors"
	"archgraph.io/archgraph/internal/validation"
)

// ensureSystemScope keeps the scope ids that name existing systems and fails
// when none are left.
func ensureSystemScope(p *domain.Project, raw any) ([]string, error) {
	ids := validation.StringSet(raw)

	scope := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := p.Systems[id]; ok {
			scope = append(scope, id)
		}
	}
	if len(scope) == 0 {
		return nil, apperrors.BadRequest(apperrors.CodeSystemScopeEmpty, "a flow needs at least one existing system in scope")
	}
	return scope, nil
}

// ensureAlternateFlows deduplicates ids and fails on any id that is not a
// known flow. The caller decides what is known; a flow being created is
// included, so a step may name its own flow.
func ensureAlternateFlows(raw any, known map[string]bool) ([]string, error) {
	ids := validation.StringSet(raw)
	for _, id := range ids {
		if !known[id] {
			return nil, apperrors.BadRequest(apperrors.CodeInvalidAlternateFlow, fmt.Sprintf("alternate flow %s does not exist", id)).
				WithParams(map[string]interface{}{"flow_id": id})
		}
	}
	return ids, nil
}

// stepChecker validates a submitted step list against one project.
type stepChecker struct {
	project *domain.Project
	known   map[string]bool
	newID   func() string
}

// sanitizeSteps builds a step list from caller input. A step whose id matches
// one of existing keeps that id and inherits every field the input omits;
// other steps get a fresh id. Both endpoints are always checked.
func (c stepChecker) sanitizeSteps(raw any, existing []domain.Step) ([]domain.Step, error) {
	out := []domain.Step{}
	if raw == nil {
		return out, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, apperrors.BadRequest(apperrors.CodeValidationFailed, "steps must be an array")
	}

	prev := make(map[string]domain.Step, len(existing))
	for _, st := range existing {
		prev[st.ID] = st
	}
	used := make(map[string]bool, len(items))

	for i, item := range items {
		f, err := validation.AsFields(item)
		if err != nil {
			return nil, apperrors.BadRequest(apperrors.CodeValidationFailed, fmt.Sprintf("step %d must be an object", i))
		}

		id := f.String("id", "")
		base, matched := prev[id]
		if !matched || used[id] {
			id, base = c.newID(), domain.Step{}
		}
		used[id] = true

		name, err := f.RequiredString("name", base.Name)
		if err != nil {
			return nil, apperrors.ErrRequiredField(fmt.Sprintf("steps[%d].name", i))
		}
		st := domain.Step{
			ID:          id,
			Name:        name,
			Description: f.String("description", base.Description),
			Tags:        f.Strings("tags", base.Tags),
		}

		st.Source = base.Source.Clone()
		if f.Has("source") {
			st.Source = endpointInput(f.Raw("source"))
		}
		st.Target = base.Target.Clone()
		if f.Has("target") {
			st.Target = endpointInput(f.Raw("target"))
		}
		if err := c.checkEndpoint(st.Source, "source"); err != nil {
			return nil, err
		}
		if err := c.checkEndpoint(st.Target, "target"); err != nil {
			return nil, err
		}

		if f.Has("alternateFlowIds") {
			if st.AlternateFlowIDs, err = ensureAlternateFlows(f.Raw("alternateFlowIds"), c.known); err != nil {
				return nil, err
			}
		} else {
			st.AlternateFlowIDs = f.Strings("alternateFlowIds", base.AlternateFlowIDs)
		}

		out = append(out, st)
	}
	return out, nil
}

func endpointInput(raw any) domain.StepEndpoint {
	f, err := validation.AsFields(raw)
	if err != nil {
		return domain.StepEndpoint{}
	}
	ep := domain.StepEndpoint{ComponentID: f.String("componentId", "")}
	if id := f.String("entryPointId", ""); id != "" {
		ep.EntryPointID = &id
	}
	return ep
}

// checkEndpoint requires an existing component and, when an entry point is
// named, one that exists and belongs to that component.
func (c stepChecker) checkEndpoint(ep domain.StepEndpoint, side string) error {
	if ep.ComponentID == "" {
		return apperrors.BadRequest(apperrors.CodeInvalidStepEndpoint, side+" component is required").
			WithParams(map[string]interface{}{"endpoint": side})
	}
	comp, ok := c.project.Components[ep.ComponentID]
	if !ok {
		return apperrors.BadRequest(apperrors.CodeInvalidStepEndpoint, fmt.Sprintf("%s component %s does not exist", side, ep.ComponentID)).
			WithParams(map[string]interface{}{"endpoint": side, "component_id": ep.ComponentID})
	}

	epID := ep.EntryPoint()
	if epID == "" {
		return nil
	}
	if _, ok := c.project.EntryPoints[epID]; !ok || !comp.OwnsEntryPoint(epID) {
		return apperrors.BadRequest(apperrors.CodeInvalidStepEndpoint,
			fmt.Sprintf("%s entry point %s is not exposed by component %s", side, epID, ep.ComponentID)).
			WithParams(map[string]interface{}{"endpoint": side, "component_id": ep.ComponentID, "entry_point_id": epID})
	}
	return nil
}

// componentInUse reports the first step naming componentID as an endpoint.
func componentInUse(p *domain.Project, componentID string) (flowID, stepID string, found bool) {
	return findStep(p, func(st domain.Step) bool {
		return st.Source.ComponentID == componentID || st.Target.ComponentID == componentID
	})
}

// entryPointInUse reports the first step naming one of ids as an endpoint.
func entryPointInUse(p *domain.Project, ids map[string]bool) (flowID, stepID string, found bool) {
	return findStep(p, func(st domain.Step) bool {
		return ids[st.Source.EntryPoint()] || ids[st.Target.EntryPoint()]
	})
}

func findStep(p *domain.Project, match func(domain.Step) bool) (string, string, bool) {
	for _, id := range sortedKeys(p.Flows) {
		for _, st := range p.Flows[id].Steps {
			if match(st) {
				return id, st.ID, true
			}
		}
	}
	return "", "", false
}

// ensureModelRefs deduplicates data model ids and fails on any that does not
// exist in the project.
func ensureModelRefs(p *domain.Project, raw any, field string) ([]string, error) {
	ids := validation.StringSet(raw)
	for _, id := range ids {
		if _, ok := p.DataModels[id]; !ok {
			return nil, apperrors.BadRequest(apperrors.CodeInvalidDataModelReference, fmt.Sprintf("%s: data model %s does not exist", field, id)).
				WithParams(map[string]interface{}{"field": field, "data_model_id": id})
		}
	}
	return ids, nil
}
