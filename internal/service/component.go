package service

import (
	"context"

	"archgraph.io/archgraph/internal/domain"
	apperrors "archgraph.io/archgraph/internal/pkg/errors"
	"archgraph.io/archgraph/internal/validation"
)

func getComponentOrThrow(p *domain.Project, componentID string) (domain.Component, error) {
	c, ok := p.Components[componentID]
	if !ok {
		return domain.Component{}, notFound(apperrors.CodeComponentNotFound, "component", componentID)
	}
	return c, nil
}

func getEntryPointOrThrow(p *domain.Project, entryPointID string) (domain.EntryPoint, error) {
	ep, ok := p.EntryPoints[entryPointID]
	if !ok {
		return domain.EntryPoint{}, notFound(apperrors.CodeEntryPointNotFound, "entry point", entryPointID)
	}
	return ep, nil
}

// GetComponent returns one component.
func (s *Service) GetComponent(ctx context.Context, userID, projectID, componentID string) (domain.Component, error) {
	return read(ctx, s, "get_component", userID, projectID, func(p domain.Project) (domain.Component, error) {
		return getComponentOrThrow(&p, componentID)
	})
}

// CreateComponent creates a component without entry points; those are added
// with CreateEntryPoint.
func (s *Service) CreateComponent(ctx context.Context, userID, projectID string, input any) (domain.Component, error) {
	in, err := validation.AsFields(input)
	if err != nil {
		return domain.Component{}, err
	}
	name, err := in.RequiredString("name", "")
	if err != nil {
		return domain.Component{}, err
	}

	return mutateProject(ctx, s, "create_component", userID, projectID, func(p *domain.Project) (domain.Component, string, error) {
		comp := domain.Component{
			ID:            s.newID(),
			Name:          name,
			Description:   in.String("description", ""),
			EntryPointIDs: []string{},
		}
		p.Components[comp.ID] = comp
		return comp, comp.ID, nil
	})
}

// UpdateComponent changes a component's name or description.
func (s *Service) UpdateComponent(ctx context.Context, userID, projectID, componentID string, input any) (domain.Component, error) {
	in, err := validation.AsFields(input)
	if err != nil {
		return domain.Component{}, err
	}

	return mutateProject(ctx, s, "update_component", userID, projectID, func(p *domain.Project) (domain.Component, string, error) {
		comp, err := getComponentOrThrow(p, componentID)
		if err != nil {
			return domain.Component{}, componentID, err
		}
		if comp.Name, err = in.RequiredString("name", comp.Name); err != nil {
			return domain.Component{}, componentID, err
		}
		comp.Description = in.String("description", comp.Description)

		p.Components[componentID] = comp
		return comp, componentID, nil
	})
}

// DeleteComponent removes a component and the entry points it owns. A
// component still used as a step endpoint cannot be deleted.
func (s *Service) DeleteComponent(ctx context.Context, userID, projectID, componentID string) error {
	_, err := mutateProject(ctx, s, "delete_component", userID, projectID, func(p *domain.Project) (struct{}, string, error) {
		comp, err := getComponentOrThrow(p, componentID)
		if err != nil {
			return struct{}{}, componentID, err
		}

		owned := make(map[string]bool, len(comp.EntryPointIDs))
		for _, id := range comp.EntryPointIDs {
			owned[id] = true
		}
		flowID, stepID, inUse := componentInUse(p, componentID)
		if !inUse {
			flowID, stepID, inUse = entryPointInUse(p, owned)
		}
		if inUse {
			return struct{}{}, componentID, apperrors.BadRequest(apperrors.CodeComponentInUse, "component is referenced by a flow step").
				WithParams(map[string]interface{}{"id": componentID, "flow_id": flowID, "step_id": stepID})
		}

		delete(p.Components, componentID)
		for id := range owned {
			delete(p.EntryPoints, id)
		}
		for id, other := range p.Components {
			for epID := range owned {
				other.EntryPointIDs = removeID(other.EntryPointIDs, epID)
			}
			p.Components[id] = other
		}
		return struct{}{}, componentID, nil
	})
	return err
}
