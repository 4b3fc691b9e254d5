package service

import (
	"context"

	"archgraph.io/archgraph/internal/domain"
	apperrors "archgraph.io/archgraph/internal/pkg/errors"
	"archgraph.io/archgraph/internal/validation"
)

// The system tree is stored as forward edges only (System.ChildIDs). Parents
// are derived from an index built once per operation.

func getSystemOrThrow(p *domain.Project, systemID string) (domain.System, error) {
	sys, ok := p.Systems[systemID]
	if !ok {
		return domain.System{}, notFound(apperrors.CodeSystemNotFound, "system", systemID)
	}
	return sys, nil
}

// parentIndex maps each child id to the id of the system listing it.
func parentIndex(p *domain.Project) map[string]string {
	idx := make(map[string]string, len(p.Systems))
	for id, sys := range p.Systems {
		for _, child := range sys.ChildIDs {
			idx[child] = id
		}
	}
	return idx
}

// findParentID returns the parent of systemID; the root has none.
func findParentID(p *domain.Project, systemID string) (string, bool) {
	parent, ok := parentIndex(p)[systemID]
	return parent, ok
}

// collectDescendants returns systemID and every system below it, depth first.
func collectDescendants(p *domain.Project, systemID string) []string {
	var out []string
	visited := map[string]bool{}
	stack := []string{systemID}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[id] {
			continue
		}
		visited[id] = true
		out = append(out, id)

		sys, ok := p.Systems[id]
		if !ok {
			continue
		}
		for i := len(sys.ChildIDs) - 1; i >= 0; i-- {
			if !visited[sys.ChildIDs[i]] {
				stack = append(stack, sys.ChildIDs[i])
			}
		}
	}
	return out
}

// GetSystem returns one system.
func (s *Service) GetSystem(ctx context.Context, userID, projectID, systemID string) (domain.System, error) {
	return read(ctx, s, "get_system", userID, projectID, func(p domain.Project) (domain.System, error) {
		return getSystemOrThrow(&p, systemID)
	})
}

// CreateSystem adds a system under parentId, or under the root when no
// parent is given.
func (s *Service) CreateSystem(ctx context.Context, userID, projectID string, input any) (domain.System, error) {
	f, err := validation.AsFields(input)
	if err != nil {
		return domain.System{}, err
	}
	name, err := f.RequiredString("name", "")
	if err != nil {
		return domain.System{}, err
	}

	return mutateProject(ctx, s, "create_system", userID, projectID, func(p *domain.Project) (domain.System, string, error) {
		parentID := f.String("parentId", "")
		if parentID == "" {
			parentID = p.RootSystemID
		}
		parent, ok := p.Systems[parentID]
		if !ok {
			return domain.System{}, "", notFound(apperrors.CodeParentSystemNotFound, "parent system", parentID)
		}

		sys := domain.System{
			ID:          s.newID(),
			Name:        name,
			Description: f.String("description", ""),
			Tags:        f.Strings("tags", nil),
			ChildIDs:    []string{},
		}
		p.Systems[sys.ID] = sys

		parent.ChildIDs = appendUnique(parent.ChildIDs, sys.ID)
		p.Systems[parentID] = parent
		return sys, sys.ID, nil
	})
}

// UpdateSystem changes a system's fields. A parentId moves the system with
// its whole subtree; the root cannot move and a system cannot move below
// itself.
func (s *Service) UpdateSystem(ctx context.Context, userID, projectID, systemID string, input any) (domain.System, error) {
	f, err := validation.AsFields(input)
	if err != nil {
		return domain.System{}, err
	}

	return mutateProject(ctx, s, "update_system", userID, projectID, func(p *domain.Project) (domain.System, string, error) {
		sys, err := getSystemOrThrow(p, systemID)
		if err != nil {
			return domain.System{}, systemID, err
		}
		if sys.Name, err = f.RequiredString("name", sys.Name); err != nil {
			return domain.System{}, systemID, err
		}
		sys.Description = f.String("description", sys.Description)
		sys.Tags = f.Strings("tags", sys.Tags)

		if target := f.String("parentId", ""); target != "" {
			if err := moveSystem(p, sys, target); err != nil {
				return domain.System{}, systemID, err
			}
		}

		p.Systems[systemID] = sys
		return sys, systemID, nil
	})
}

func moveSystem(p *domain.Project, sys domain.System, targetID string) error {
	if sys.IsRoot {
		return apperrors.BadRequest(apperrors.CodeRootSystemImmutable, "the root system cannot be moved")
	}
	target, ok := p.Systems[targetID]
	if !ok {
		return notFound(apperrors.CodeParentSystemNotFound, "parent system", targetID)
	}
	for _, id := range collectDescendants(p, sys.ID) {
		if id == targetID {
			return apperrors.BadRequest(apperrors.CodeSystemMoveCycle, "a system cannot move below itself").
				WithParams(map[string]interface{}{"id": sys.ID, "parent_id": targetID})
		}
	}

	if current, ok := findParentID(p, sys.ID); ok {
		if current == targetID {
			return nil
		}
		old := p.Systems[current]
		old.ChildIDs = removeID(old.ChildIDs, sys.ID)
		p.Systems[current] = old
	}
	target.ChildIDs = appendUnique(target.ChildIDs, sys.ID)
	p.Systems[targetID] = target
	return nil
}

// DeleteSystem removes a system and all of its descendants. Flows keep their
// scope ids even when those systems are gone; steps still naming one of the
// systems by the older system-pair shape block the delete.
func (s *Service) DeleteSystem(ctx context.Context, userID, projectID, systemID string) error {
	_, err := mutateProject(ctx, s, "delete_system", userID, projectID, func(p *domain.Project) (struct{}, string, error) {
		sys, err := getSystemOrThrow(p, systemID)
		if err != nil {
			return struct{}{}, systemID, err
		}
		if sys.IsRoot || systemID == p.RootSystemID {
			return struct{}{}, systemID, apperrors.BadRequest(apperrors.CodeRootSystemImmutable, "the root system cannot be deleted")
		}

		closure := collectDescendants(p, systemID)
		doomed := make(map[string]bool, len(closure))
		for _, id := range closure {
			doomed[id] = true
		}
		if flowID, stepID, ok := legacyStepUsing(p, doomed); ok {
			return struct{}{}, systemID, apperrors.BadRequest(apperrors.CodeSystemInUse, "system is referenced by a flow step").
				WithParams(map[string]interface{}{"id": systemID, "flow_id": flowID, "step_id": stepID})
		}

		if parentID, ok := findParentID(p, systemID); ok {
			parent := p.Systems[parentID]
			parent.ChildIDs = removeID(parent.ChildIDs, systemID)
			p.Systems[parentID] = parent
		}
		for _, id := range closure {
			delete(p.Systems, id)
		}
		return struct{}{}, systemID, nil
	})
	return err
}

func legacyStepUsing(p *domain.Project, systems map[string]bool) (flowID, stepID string, found bool) {
	for _, id := range sortedKeys(p.Flows) {
		for _, st := range p.Flows[id].Steps {
			if st.IsLegacy() && (systems[st.SourceSystemID] || systems[st.TargetSystemID]) {
				return id, st.ID, true
			}
		}
	}
	return "", "", false
}
