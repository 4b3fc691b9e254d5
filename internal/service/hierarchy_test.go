package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"archgraph.io/archgraph/internal/domain"
	apperrors "archgraph.io/archgraph/internal/pkg/errors"
)

// treeStore is project P with root R and the chain R > S > C1 > C2 plus a
// sibling R > T.
const treeStore = `{
  "P": {
    "id": "P", "name": "Tree", "rootSystemId": "R",
    "systems": {
      "R":  {"id": "R", "name": "Root", "childIds": ["S", "T"]},
      "S":  {"id": "S", "name": "S", "childIds": ["C1"]},
      "C1": {"id": "C1", "name": "C1", "childIds": ["C2"]},
      "C2": {"id": "C2", "name": "C2"},
      "T":  {"id": "T", "name": "T"}
    }
  }
}`

func TestHierarchyHelpers(t *testing.T) {
	f := newFixture(t)
	f.seed(t, treeStore)
	p := f.project(t, "P")

	parent, ok := findParentID(&p, "C1")
	require.True(t, ok)
	require.Equal(t, "S", parent)

	_, ok = findParentID(&p, "R")
	require.False(t, ok, "root has no parent")

	require.Equal(t, []string{"S", "C1", "C2"}, collectDescendants(&p, "S"))
	require.Equal(t, []string{"R", "S", "C1", "C2", "T"}, collectDescendants(&p, "R"))

	_, err := getSystemOrThrow(&p, "nope")
	requireCode(t, err, apperrors.CodeSystemNotFound)
}

func TestCreateSystem(t *testing.T) {
	f := newFixture(t)
	f.seed(t, treeStore)

	sys, err := f.svc.CreateSystem(f.ctx, "", "P", map[string]any{"name": "Under root"})
	require.NoError(t, err)
	require.Equal(t, "id-1", sys.ID)
	require.False(t, sys.IsRoot)

	child, err := f.svc.CreateSystem(f.ctx, "", "P", map[string]any{"name": "Leaf", "parentId": "C2"})
	require.NoError(t, err)

	p := f.project(t, "P")
	require.Equal(t, []string{"S", "T", sys.ID}, p.Systems["R"].ChildIDs)
	require.Equal(t, []string{child.ID}, p.Systems["C2"].ChildIDs)

	_, err = f.svc.CreateSystem(f.ctx, "", "P", map[string]any{"name": "X", "parentId": "ghost"})
	requireCode(t, err, apperrors.CodeParentSystemNotFound)
	require.ErrorContains(t, err, `parent system "ghost" not found`)

	_, err = f.svc.CreateSystem(f.ctx, "", "P", map[string]any{"parentId": "R"})
	requireCode(t, err, apperrors.CodeValidationFailed)

	_, err = f.svc.CreateSystem(f.ctx, "", "missing", map[string]any{"name": "X"})
	requireCode(t, err, apperrors.CodeProjectNotFound)
}

func TestCreateSystem_BlankParentUsesRoot(t *testing.T) {
	tests := []struct {
		name   string
		parent any
	}{
		{"null", nil},
		{"empty", ""},
		{"blank", "  "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.seed(t, treeStore)

			sys, err := f.svc.CreateSystem(f.ctx, "", "P", map[string]any{"name": "Auth", "parentId": tt.parent})
			require.NoError(t, err)

			p := f.project(t, "P")
			require.Equal(t, []string{"S", "T", sys.ID}, p.Systems["R"].ChildIDs)
		})
	}
}

func TestDeleteSystem_Cascades(t *testing.T) {
	f := newFixture(t)
	f.seed(t, treeStore)

	require.NoError(t, f.svc.DeleteSystem(f.ctx, "", "P", "S"))

	p := f.project(t, "P")
	for _, id := range []string{"S", "C1", "C2"} {
		require.NotContains(t, p.Systems, id)
	}
	require.Equal(t, []string{"T"}, p.Systems["R"].ChildIDs)

	requireCode(t, f.svc.DeleteSystem(f.ctx, "", "P", "S"), apperrors.CodeSystemNotFound)
}

func TestDeleteSystem_RootIsProtected(t *testing.T) {
	f := newFixture(t)
	f.seed(t, treeStore)

	err := f.svc.DeleteSystem(f.ctx, "", "P", "R")
	requireCode(t, err, apperrors.CodeRootSystemImmutable)
	require.True(t, apperrors.IsBadRequest(err))

	// A root without descendants is just as protected.
	p, err := f.svc.CreateProject(f.ctx, "", map[string]any{"name": "Bare"})
	require.NoError(t, err)
	requireCode(t, f.svc.DeleteSystem(f.ctx, "", p.ID, p.RootSystemID), apperrors.CodeRootSystemImmutable)
}

func TestDeleteSystem_LegacyStepBlocks(t *testing.T) {
	f := newFixture(t)
	f.seed(t, `{
	  "P": {
	    "id": "P", "name": "Tree", "rootSystemId": "R",
	    "systems": {
	      "R": {"id": "R", "name": "Root", "childIds": ["A"]},
	      "A": {"id": "A", "name": "A", "childIds": ["B"]},
	      "B": {"id": "B", "name": "B"}
	    },
	    "flows": {
	      "F": {"id": "F", "name": "Old", "systemScopeIds": ["R"], "steps": [
	        {"id": "s", "name": "Old call", "sourceSystemId": "R", "targetSystemId": "B"}
	      ]}
	    }
	  }
	}`)

	err := f.svc.DeleteSystem(f.ctx, "", "P", "A")
	requireCode(t, err, apperrors.CodeSystemInUse)
	require.Contains(t, f.project(t, "P").Systems, "B")
}

func TestUpdateSystem(t *testing.T) {
	f := newFixture(t)
	f.seed(t, treeStore)

	got, err := f.svc.UpdateSystem(f.ctx, "", "P", "S", map[string]any{"description": "moved", "parentId": "T"})
	require.NoError(t, err)
	require.Equal(t, "S", got.Name)
	require.Equal(t, "moved", got.Description)

	p := f.project(t, "P")
	require.Equal(t, []string{"T"}, p.Systems["R"].ChildIDs)
	require.Equal(t, []string{"S"}, p.Systems["T"].ChildIDs)
	require.Equal(t, []string{"C1"}, p.Systems["S"].ChildIDs, "subtree moves along")

	tests := []struct {
		name     string
		systemID string
		input    map[string]any
		code     string
	}{
		{"move below own descendant", "S", map[string]any{"parentId": "C2"}, apperrors.CodeSystemMoveCycle},
		{"move below itself", "S", map[string]any{"parentId": "S"}, apperrors.CodeSystemMoveCycle},
		{"move root", "R", map[string]any{"parentId": "T"}, apperrors.CodeRootSystemImmutable},
		{"unknown parent", "C1", map[string]any{"parentId": "ghost"}, apperrors.CodeParentSystemNotFound},
		{"unknown system", "ghost", map[string]any{"name": "x"}, apperrors.CodeSystemNotFound},
		{"blank name", "C1", map[string]any{"name": ""}, apperrors.CodeValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.UpdateSystem(f.ctx, "", "P", tt.systemID, tt.input)
			requireCode(t, err, tt.code)
		})
	}

	// Moving to the current parent is a no-op.
	_, err = f.svc.UpdateSystem(f.ctx, "", "P", "S", map[string]any{"parentId": "T"})
	require.NoError(t, err)
	require.Equal(t, []string{"S"}, f.project(t, "P").Systems["T"].ChildIDs)
}

func TestConcreteScenario(t *testing.T) {
	f := newFixture(t)
	f.seed(t, `{"P": {"id": "P", "name": "P", "rootSystemId": "R", "systems": {"R": {"id": "R", "name": "R"}}}}`)

	auth, err := f.svc.CreateSystem(f.ctx, "", "P", map[string]any{"name": "Auth", "parentId": "R"})
	require.NoError(t, err)
	require.NotEmpty(t, auth.ID)
	require.Equal(t, []string{auth.ID}, f.project(t, "P").Systems["R"].ChildIDs)

	flow, err := f.svc.CreateFlow(f.ctx, "", "P", map[string]any{"name": "Login", "systemScopeIds": []any{"R", auth.ID}})
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteSystem(f.ctx, "", "P", auth.ID))

	p := f.project(t, "P")
	require.Empty(t, p.Systems["R"].ChildIDs)
	require.NotContains(t, p.Systems, auth.ID)
	require.Equal(t, []string{"R", auth.ID}, p.Flows[flow.ID].SystemScopeIDs, "scope is left dangling")
}

func TestMoveKeepsSingleParent(t *testing.T) {
	p := domain.NewProject("P", "P")
	p.RootSystemID = "R"
	p.Systems["R"] = domain.System{ID: "R", Name: "R", ChildIDs: []string{"A", "B"}, IsRoot: true}
	p.Systems["A"] = domain.System{ID: "A", Name: "A", ChildIDs: []string{}}
	p.Systems["B"] = domain.System{ID: "B", Name: "B", ChildIDs: []string{}}

	require.NoError(t, moveSystem(&p, p.Systems["B"], "A"))
	require.Equal(t, []string{"A"}, p.Systems["R"].ChildIDs)
	require.Equal(t, []string{"B"}, p.Systems["A"].ChildIDs)

	idx := parentIndex(&p)
	require.Equal(t, map[string]string{"A": "R", "B": "A"}, idx)
}
