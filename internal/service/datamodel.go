package service

import (
	"context"

	"archgraph.io/archgraph/internal/domain"
	apperrors "archgraph.io/archgraph/internal/pkg/errors"
	"archgraph.io/archgraph/internal/validation"
)

func getDataModelOrThrow(p *domain.Project, modelID string) (domain.DataModel, error) {
	m, ok := p.DataModels[modelID]
	if !ok {
		return domain.DataModel{}, notFound(apperrors.CodeDataModelNotFound, "data model", modelID)
	}
	return m, nil
}

// GetDataModel returns one data model.
func (s *Service) GetDataModel(ctx context.Context, userID, projectID, modelID string) (domain.DataModel, error) {
	return read(ctx, s, "get_data_model", userID, projectID, func(p domain.Project) (domain.DataModel, error) {
		return getDataModelOrThrow(&p, modelID)
	})
}

// CreateDataModel creates a data model; every submitted attribute gets a
// fresh id.
func (s *Service) CreateDataModel(ctx context.Context, userID, projectID string, input any) (domain.DataModel, error) {
	in, err := validation.AsFields(input)
	if err != nil {
		return domain.DataModel{}, err
	}
	name, err := in.RequiredString("name", "")
	if err != nil {
		return domain.DataModel{}, err
	}

	return mutateProject(ctx, s, "create_data_model", userID, projectID, func(p *domain.Project) (domain.DataModel, string, error) {
		model := domain.DataModel{
			ID:          s.newID(),
			Name:        name,
			Description: in.String("description", ""),
		}
		attrs, err := validation.AttributeBuilder{NewID: s.newID}.BuildList(in.Raw("attributes"), nil)
		if err != nil {
			return domain.DataModel{}, model.ID, err
		}
		model.Attributes = attrs

		p.DataModels[model.ID] = model
		return model, model.ID, nil
	})
}

// UpdateDataModel changes a data model. A submitted attribute list replaces
// the old one: attributes left out are removed, attributes sent with a known
// id keep it and inherit every field the input omits.
func (s *Service) UpdateDataModel(ctx context.Context, userID, projectID, modelID string, input any) (domain.DataModel, error) {
	in, err := validation.AsFields(input)
	if err != nil {
		return domain.DataModel{}, err
	}

	return mutateProject(ctx, s, "update_data_model", userID, projectID, func(p *domain.Project) (domain.DataModel, string, error) {
		model, err := getDataModelOrThrow(p, modelID)
		if err != nil {
			return domain.DataModel{}, modelID, err
		}
		if model.Name, err = in.RequiredString("name", model.Name); err != nil {
			return domain.DataModel{}, modelID, err
		}
		model.Description = in.String("description", model.Description)

		if in.Has("attributes") {
			builder := validation.AttributeBuilder{NewID: s.newID}
			attrs, err := builder.BuildList(in.Raw("attributes"), validation.IndexAttributes(model.Attributes))
			if err != nil {
				return domain.DataModel{}, modelID, err
			}
			model.Attributes = attrs
		}

		p.DataModels[modelID] = model
		return model, modelID, nil
	})
}

// DeleteDataModel removes a data model and drops its id from every entry
// point's request and response models.
func (s *Service) DeleteDataModel(ctx context.Context, userID, projectID, modelID string) error {
	_, err := mutateProject(ctx, s, "delete_data_model", userID, projectID, func(p *domain.Project) (struct{}, string, error) {
		if _, err := getDataModelOrThrow(p, modelID); err != nil {
			return struct{}{}, modelID, err
		}
		delete(p.DataModels, modelID)

		for id, ep := range p.EntryPoints {
			ep.RequestModelIDs = removeID(ep.RequestModelIDs, modelID)
			ep.ResponseModelIDs = removeID(ep.ResponseModelIDs, modelID)
			p.EntryPoints[id] = ep
		}
		return struct{}{}, modelID, nil
	})
	return err
}
