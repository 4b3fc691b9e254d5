package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"archgraph.io/archgraph/internal/domain"
	"archgraph.io/archgraph/internal/pkg/logger"
	"archgraph.io/archgraph/internal/service"
	"archgraph.io/archgraph/internal/store/memory"
	"archgraph.io/archgraph/internal/testutil"
)

func init() {
	_ = logger.Init("error", "json")
}

func newTestService() *service.Service {
	return service.New(memory.New(), service.WithIDGenerator(testutil.SequentialIDs("id")))
}

func byName[T any](items map[string]T, name func(T) string) map[string]T {
	out := make(map[string]T, len(items))
	for _, item := range items {
		out[name(item)] = item
	}
	return out
}

func TestDemoSeed_Applies(t *testing.T) {
	seed, err := parseSeed(demoSeed)
	require.NoError(t, err)
	require.Len(t, seed.Projects, 1)

	svc := newTestService()
	ctx := context.Background()
	created, err := apply(ctx, svc, "alice", seed)
	require.NoError(t, err)
	require.Equal(t, 1, created)

	projects, err := svc.ListProjects(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, projects, 1)
	p := projects[0]
	require.Equal(t, "Online Shop", p.Name)
	require.Equal(t, []string{"demo", "retail"}, p.Tags)

	// Root plus five seeded systems.
	require.Len(t, p.Systems, 6)
	systems := byName(p.Systems, func(s domain.System) string { return s.Name })
	require.Equal(t, []string{systems["Catalog"].ID}, systems["Storefront"].ChildIDs)
	require.Len(t, p.Systems[p.RootSystemID].ChildIDs, 3)

	models := byName(p.DataModels, func(m domain.DataModel) string { return m.Name })
	require.Len(t, models, 2)
	order := models["Order"]
	require.Len(t, order.Attributes, 4)
	lines := order.Attributes[3]
	require.NotNil(t, lines.Element)
	require.Len(t, lines.Element.Attributes, 2)
	require.Equal(t, []domain.AttributeConstraint{domain.LengthConstraint(domain.ConstraintMinLength, 3)}, lines.Element.Attributes[0].Constraints)

	components := byName(p.Components, func(c domain.Component) string { return c.Name })
	require.Len(t, components, 4)
	api := components["Orders API"]
	require.Len(t, api.EntryPointIDs, 1)
	ep := p.EntryPoints[api.EntryPointIDs[0]]
	require.Equal(t, []string{order.ID}, ep.RequestModelIDs)
	require.Equal(t, []string{models["Receipt"].ID}, ep.ResponseModelIDs)

	flows := byName(p.Flows, func(f domain.Flow) string { return f.Name })
	require.Len(t, flows, 2)
	place := flows["Place order"]
	require.Equal(t, []string{systems["Checkout"].ID, systems["Payments"].ID}, place.SystemScopeIDs)
	require.Len(t, place.Steps, 3)
	require.Equal(t, components["Web"].ID, place.Steps[0].Source.ComponentID)
	require.Equal(t, ep.ID, place.Steps[0].Target.EntryPoint())
	require.Equal(t, []string{flows["Payment declined"].ID}, place.Steps[1].AlternateFlowIDs)
}

func TestApply_SkipsExistingProjects(t *testing.T) {
	seed, err := parseSeed(demoSeed)
	require.NoError(t, err)

	svc := newTestService()
	ctx := context.Background()
	_, err = apply(ctx, svc, "", seed)
	require.NoError(t, err)

	created, err := apply(ctx, svc, "", seed)
	require.NoError(t, err)
	require.Zero(t, created)

	projects, err := svc.ListProjects(ctx, "")
	require.NoError(t, err)
	require.Len(t, projects, 1)
}

func TestApply_UnknownReferences(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{
			name: "unknown scope system",
			doc: `
projects:
  - name: P
    flows:
      - name: F
        systems: [Ghost]`,
			msg: `unknown system "Ghost"`,
		},
		{
			name: "unknown step component",
			doc: `
projects:
  - name: P
    systems: [{name: A}]
    components: [{name: Web}]
    flows:
      - name: F
        systems: [A]
        steps: [{name: s, from: Web, to: Ghost}]`,
			msg: `unknown component "Ghost"`,
		},
		{
			name: "entry point of another component",
			doc: `
projects:
  - name: P
    systems: [{name: A}]
    components:
      - name: Web
        entryPoints: [{name: home, type: http}]
      - name: API
    flows:
      - name: F
        systems: [A]
        steps: [{name: s, from: Web, to: API, entryPoint: home}]`,
			msg: `component "API" has no entry point "home"`,
		},
		{
			name: "unknown request model",
			doc: `
projects:
  - name: P
    components:
      - name: API
        entryPoints: [{name: post, type: http, requestModels: [Ghost]}]`,
			msg: `unknown data model "Ghost"`,
		},
		{
			name: "later alternate flow",
			doc: `
projects:
  - name: P
    systems: [{name: A}]
    components: [{name: Web}]
    flows:
      - name: F
        systems: [A]
        steps: [{name: s, from: Web, to: Web, alternates: [G]}]
      - name: G
        systems: [A]`,
			msg: `unknown flow "G"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seed, err := parseSeed([]byte(tt.doc))
			require.NoError(t, err)
			_, err = apply(context.Background(), newTestService(), "", seed)
			require.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestApply_ServiceRulesStillApply(t *testing.T) {
	seed, err := parseSeed([]byte(`
projects:
  - name: P
    flows:
      - name: Unscoped`))
	require.NoError(t, err)

	_, err = apply(context.Background(), newTestService(), "", seed)
	require.ErrorContains(t, err, "SYSTEM_SCOPE_EMPTY")
}

func TestParseSeed(t *testing.T) {
	_, err := parseSeed([]byte("projects: [{description: nameless}]"))
	require.ErrorContains(t, err, "has no name")

	_, err = parseSeed([]byte("projects: {"))
	require.Error(t, err)

	seed, err := parseSeed([]byte(`{"projects": [{"name": "From JSON"}]}`))
	require.NoError(t, err)
	require.Equal(t, "From JSON", seed.Projects[0].Name)
}
