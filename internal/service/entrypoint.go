package service

import (
	"context"

	"archgraph.io/archgraph/internal/domain"
	apperrors "archgraph.io/archgraph/internal/pkg/errors"
	"archgraph.io/archgraph/internal/validation"
)

// GetEntryPoint returns one entry point.
func (s *Service) GetEntryPoint(ctx context.Context, userID, projectID, entryPointID string) (domain.EntryPoint, error) {
	return read(ctx, s, "get_entry_point", userID, projectID, func(p domain.Project) (domain.EntryPoint, error) {
		return getEntryPointOrThrow(&p, entryPointID)
	})
}

// CreateEntryPoint adds an entry point to a component. Request and response
// models must name existing data models.
func (s *Service) CreateEntryPoint(ctx context.Context, userID, projectID, componentID string, input any) (domain.EntryPoint, error) {
	in, err := validation.AsFields(input)
	if err != nil {
		return domain.EntryPoint{}, err
	}
	name, err := in.RequiredString("name", "")
	if err != nil {
		return domain.EntryPoint{}, err
	}
	kind, err := in.RequiredString("type", "")
	if err != nil {
		return domain.EntryPoint{}, err
	}

	return mutateProject(ctx, s, "create_entry_point", userID, projectID, func(p *domain.Project) (domain.EntryPoint, string, error) {
		comp, err := getComponentOrThrow(p, componentID)
		if err != nil {
			return domain.EntryPoint{}, "", err
		}

		ep := domain.EntryPoint{
			ID:          s.newID(),
			Name:        name,
			Description: in.String("description", ""),
			Type:        kind,
			Protocol:    in.String("protocol", ""),
			Method:      in.String("method", ""),
			Path:        in.String("path", ""),
		}
		if ep.RequestModelIDs, err = ensureModelRefs(p, in.Raw("requestModelIds"), "requestModelIds"); err != nil {
			return domain.EntryPoint{}, ep.ID, err
		}
		if ep.ResponseModelIDs, err = ensureModelRefs(p, in.Raw("responseModelIds"), "responseModelIds"); err != nil {
			return domain.EntryPoint{}, ep.ID, err
		}

		p.EntryPoints[ep.ID] = ep
		comp.EntryPointIDs = appendUnique(comp.EntryPointIDs, ep.ID)
		p.Components[componentID] = comp
		return ep, ep.ID, nil
	})
}

// UpdateEntryPoint changes an entry point's fields.
func (s *Service) UpdateEntryPoint(ctx context.Context, userID, projectID, entryPointID string, input any) (domain.EntryPoint, error) {
	in, err := validation.AsFields(input)
	if err != nil {
		return domain.EntryPoint{}, err
	}

	return mutateProject(ctx, s, "update_entry_point", userID, projectID, func(p *domain.Project) (domain.EntryPoint, string, error) {
		ep, err := getEntryPointOrThrow(p, entryPointID)
		if err != nil {
			return domain.EntryPoint{}, entryPointID, err
		}
		if ep.Name, err = in.RequiredString("name", ep.Name); err != nil {
			return domain.EntryPoint{}, entryPointID, err
		}
		if ep.Type, err = in.RequiredString("type", ep.Type); err != nil {
			return domain.EntryPoint{}, entryPointID, err
		}
		ep.Description = in.String("description", ep.Description)
		ep.Protocol = in.String("protocol", ep.Protocol)
		ep.Method = in.String("method", ep.Method)
		ep.Path = in.String("path", ep.Path)

		if in.Has("requestModelIds") {
			if ep.RequestModelIDs, err = ensureModelRefs(p, in.Raw("requestModelIds"), "requestModelIds"); err != nil {
				return domain.EntryPoint{}, entryPointID, err
			}
		}
		if in.Has("responseModelIds") {
			if ep.ResponseModelIDs, err = ensureModelRefs(p, in.Raw("responseModelIds"), "responseModelIds"); err != nil {
				return domain.EntryPoint{}, entryPointID, err
			}
		}

		p.EntryPoints[entryPointID] = ep
		return ep, entryPointID, nil
	})
}

// DeleteEntryPoint removes an entry point from the project and from every
// component listing it. An entry point still used by a step cannot be deleted.
func (s *Service) DeleteEntryPoint(ctx context.Context, userID, projectID, entryPointID string) error {
	_, err := mutateProject(ctx, s, "delete_entry_point", userID, projectID, func(p *domain.Project) (struct{}, string, error) {
		if _, err := getEntryPointOrThrow(p, entryPointID); err != nil {
			return struct{}{}, entryPointID, err
		}
		if flowID, stepID, ok := entryPointInUse(p, map[string]bool{entryPointID: true}); ok {
			return struct{}{}, entryPointID, apperrors.BadRequest(apperrors.CodeEntryPointInUse, "entry point is referenced by a flow step").
				WithParams(map[string]interface{}{"id": entryPointID, "flow_id": flowID, "step_id": stepID})
		}

		delete(p.EntryPoints, entryPointID)
		for id, comp := range p.Components {
			comp.EntryPointIDs = removeID(comp.EntryPointIDs, entryPointID)
			p.Components[id] = comp
		}
		return struct{}{}, entryPointID, nil
	})
	return err
}
