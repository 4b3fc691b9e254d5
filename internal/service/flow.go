package service

import (
	"context"

	"archgraph.io/archgraph/internal/domain"
	apperrors "archgraph.io/archgraph/internal/pkg/errors"
	"archgraph.io/archgraph/internal/validation"
)

func getFlowOrThrow(p *domain.Project, flowID string) (domain.Flow, error) {
	f, ok := p.Flows[flowID]
	if !ok {
		return domain.Flow{}, notFound(apperrors.CodeFlowNotFound, "flow", flowID)
	}
	return f, nil
}

// knownFlows is the set of flow ids a step may name as an alternate.
func knownFlows(p *domain.Project, extra string) map[string]bool {
	known := make(map[string]bool, len(p.Flows)+1)
	for id := range p.Flows {
		known[id] = true
	}
	if extra != "" {
		known[extra] = true
	}
	return known
}

// GetFlow returns one flow.
func (s *Service) GetFlow(ctx context.Context, userID, projectID, flowID string) (domain.Flow, error) {
	return read(ctx, s, "get_flow", userID, projectID, func(p domain.Project) (domain.Flow, error) {
		return getFlowOrThrow(&p, flowID)
	})
}

// CreateFlow creates a flow. It needs a name and at least one existing system
// in scope; every step must connect existing components.
func (s *Service) CreateFlow(ctx context.Context, userID, projectID string, input any) (domain.Flow, error) {
	in, err := validation.AsFields(input)
	if err != nil {
		return domain.Flow{}, err
	}
	name, err := in.RequiredString("name", "")
	if err != nil {
		return domain.Flow{}, err
	}

	return mutateProject(ctx, s, "create_flow", userID, projectID, func(p *domain.Project) (domain.Flow, string, error) {
		flow := domain.Flow{
			ID:          s.newID(),
			Name:        name,
			Description: in.String("description", ""),
			Tags:        in.Strings("tags", nil),
		}

		scope, err := ensureSystemScope(p, in.Raw("systemScopeIds"))
		if err != nil {
			return domain.Flow{}, flow.ID, err
		}
		flow.SystemScopeIDs = scope

		checker := stepChecker{project: p, known: knownFlows(p, flow.ID), newID: s.newID}
		if flow.Steps, err = checker.sanitizeSteps(in.Raw("steps"), nil); err != nil {
			return domain.Flow{}, flow.ID, err
		}

		p.Flows[flow.ID] = flow
		return flow, flow.ID, nil
	})
}

// UpdateFlow changes a flow. A submitted steps list replaces the old one;
// steps are matched to their previous version by id.
func (s *Service) UpdateFlow(ctx context.Context, userID, projectID, flowID string, input any) (domain.Flow, error) {
	in, err := validation.AsFields(input)
	if err != nil {
		return domain.Flow{}, err
	}

	return mutateProject(ctx, s, "update_flow", userID, projectID, func(p *domain.Project) (domain.Flow, string, error) {
		flow, err := getFlowOrThrow(p, flowID)
		if err != nil {
			return domain.Flow{}, flowID, err
		}
		if flow.Name, err = in.RequiredString("name", flow.Name); err != nil {
			return domain.Flow{}, flowID, err
		}
		flow.Description = in.String("description", flow.Description)
		flow.Tags = in.Strings("tags", flow.Tags)

		if in.Has("systemScopeIds") {
			if flow.SystemScopeIDs, err = ensureSystemScope(p, in.Raw("systemScopeIds")); err != nil {
				return domain.Flow{}, flowID, err
			}
		}
		if in.Has("steps") {
			checker := stepChecker{project: p, known: knownFlows(p, ""), newID: s.newID}
			if flow.Steps, err = checker.sanitizeSteps(in.Raw("steps"), flow.Steps); err != nil {
				return domain.Flow{}, flowID, err
			}
		}

		p.Flows[flowID] = flow
		return flow, flowID, nil
	})
}

// DeleteFlow removes a flow and drops its id from every other flow's
// alternate flow lists.
func (s *Service) DeleteFlow(ctx context.Context, userID, projectID, flowID string) error {
	_, err := mutateProject(ctx, s, "delete_flow", userID, projectID, func(p *domain.Project) (struct{}, string, error) {
		if _, err := getFlowOrThrow(p, flowID); err != nil {
			return struct{}{}, flowID, err
		}
		delete(p.Flows, flowID)

		for id, other := range p.Flows {
			for i := range other.Steps {
				other.Steps[i].AlternateFlowIDs = removeID(other.Steps[i].AlternateFlowIDs, flowID)
			}
			p.Flows[id] = other
		}
		return struct{}{}, flowID, nil
	})
	return err
}
