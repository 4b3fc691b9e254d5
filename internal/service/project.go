package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"archgraph.io/archgraph/internal/domain"
	apperrors "archgraph.io/archgraph/internal/pkg/errors"
	"archgraph.io/archgraph/internal/validation"
)

// ListProjects returns the tenant's projects ordered by name, then id.
func (s *Service) ListProjects(ctx context.Context, userID string) ([]domain.Project, error) {
	agg, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Project, 0, len(agg))
	for _, p := range agg {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b domain.Project) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	return out, nil
}

// GetProject returns one project.
func (s *Service) GetProject(ctx context.Context, userID, projectID string) (domain.Project, error) {
	return read(ctx, s, "get_project", userID, projectID, func(p domain.Project) (domain.Project, error) {
		return p, nil
	})
}

// CreateProject creates a project together with its root system, which takes
// the project's name.
func (s *Service) CreateProject(ctx context.Context, userID string, input any) (domain.Project, error) {
	f, err := validation.AsFields(input)
	if err != nil {
		return domain.Project{}, err
	}
	name, err := f.RequiredString("name", "")
	if err != nil {
		return domain.Project{}, err
	}

	projectID := s.newID()
	return mutate(ctx, s, "create_project", userID, projectID, func(agg domain.Aggregate) (domain.Project, string, error) {
		if _, exists := agg[projectID]; exists {
			return domain.Project{}, "", apperrors.Internal(apperrors.CodeIDConflict, fmt.Sprintf("project id %s already in use", projectID))
		}
		p := domain.NewProject(projectID, name)
		p.Description = f.String("description", "")
		p.Tags = f.Strings("tags", nil)

		root := domain.System{
			ID:       s.newID(),
			Name:     name,
			Tags:     []string{},
			ChildIDs: []string{},
			IsRoot:   true,
		}
		p.RootSystemID = root.ID
		p.Systems[root.ID] = root

		agg[projectID] = p
		return p, projectID, nil
	})
}

// UpdateProject changes a project's name, description or tags.
func (s *Service) UpdateProject(ctx context.Context, userID, projectID string, input any) (domain.Project, error) {
	f, err := validation.AsFields(input)
	if err != nil {
		return domain.Project{}, err
	}
	return mutateProject(ctx, s, "update_project", userID, projectID, func(p *domain.Project) (domain.Project, string, error) {
		name, err := f.RequiredString("name", p.Name)
		if err != nil {
			return domain.Project{}, projectID, err
		}
		p.Name = name
		p.Description = f.String("description", p.Description)
		p.Tags = f.Strings("tags", p.Tags)
		return *p, projectID, nil
	})
}

// DeleteProject removes a project and everything in it.
func (s *Service) DeleteProject(ctx context.Context, userID, projectID string) error {
	_, err := mutate(ctx, s, "delete_project", userID, projectID, func(agg domain.Aggregate) (struct{}, string, error) {
		if _, ok := agg[projectID]; !ok {
			return struct{}{}, projectID, apperrors.ErrProjectNotFoundf(projectID)
		}
		delete(agg, projectID)
		return struct{}{}, projectID, nil
	})
	return err
}
