package main

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"archgraph.io/archgraph/internal/pkg/logger"
	"archgraph.io/archgraph/internal/service"
)

type seedFile struct {
	Projects []seedProject `yaml:"projects"`
}

type seedProject struct {
	Name        string          `yaml:"name"`
	Description string          `yaml:"description"`
	Tags        []string        `yaml:"tags"`
	Systems     []seedSystem    `yaml:"systems"`
	DataModels  []seedDataModel `yaml:"dataModels"`
	Components  []seedComponent `yaml:"components"`
	Flows       []seedFlow      `yaml:"flows"`
}

type seedSystem struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description"`
	Tags        []string     `yaml:"tags"`
	Children    []seedSystem `yaml:"children"`
}

// seedDataModel keeps attributes untyped; they go to the service as given.
type seedDataModel struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Attributes  []any  `yaml:"attributes"`
}

type seedComponent struct {
	Name        string           `yaml:"name"`
	Description string           `yaml:"description"`
	EntryPoints []seedEntryPoint `yaml:"entryPoints"`
}

type seedEntryPoint struct {
	Name           string   `yaml:"name"`
	Description    string   `yaml:"description"`
	Type           string   `yaml:"type"`
	Protocol       string   `yaml:"protocol"`
	Method         string   `yaml:"method"`
	Path           string   `yaml:"path"`
	RequestModels  []string `yaml:"requestModels"`
	ResponseModels []string `yaml:"responseModels"`
}

type seedFlow struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Tags        []string   `yaml:"tags"`
	Systems     []string   `yaml:"systems"`
	Steps       []seedStep `yaml:"steps"`
}

// seedStep names its endpoints by component name; EntryPoint is the name of
// one of the target component's entry points. Alternates name flows that
// appear earlier in the file.
type seedStep struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	From        string   `yaml:"from"`
	To          string   `yaml:"to"`
	EntryPoint  string   `yaml:"entryPoint"`
	Alternates  []string `yaml:"alternates"`
}

// parseSeed decodes a YAML or JSON seed document.
func parseSeed(data []byte) (seedFile, error) {
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return seedFile{}, fmt.Errorf("parse seed: %w", err)
	}
	for i, p := range seed.Projects {
		if strings.TrimSpace(p.Name) == "" {
			return seedFile{}, fmt.Errorf("parse seed: project %d has no name", i)
		}
	}
	return seed, nil
}

// apply creates every project of seed that the tenant does not have yet and
// returns how many were created.
func apply(ctx context.Context, svc *service.Service, tenant string, seed seedFile) (int, error) {
	existing, err := svc.ListProjects(ctx, tenant)
	if err != nil {
		return 0, fmt.Errorf("list projects: %w", err)
	}
	taken := make(map[string]bool, len(existing))
	for _, p := range existing {
		taken[p.Name] = true
	}

	created := 0
	for _, sp := range seed.Projects {
		name := strings.TrimSpace(sp.Name)
		if taken[name] {
			logger.Info("Project already exists, skipping", zap.String("project", name))
			continue
		}
		a := &applier{
			svc:         svc,
			tenant:      tenant,
			systems:     map[string]string{},
			models:      map[string]string{},
			components:  map[string]string{},
			entryPoints: map[string]string{},
			flows:       map[string]string{},
		}
		if err := a.project(ctx, sp); err != nil {
			return created, fmt.Errorf("seed project %q: %w", name, err)
		}
		taken[name] = true
		created++
		logger.Info("Seeded project", zap.String("project", name), zap.String("project_id", a.projectID))
	}
	return created, nil
}

// applier resolves seed names to the ids the service hands out.
type applier struct {
	svc       *service.Service
	tenant    string
	projectID string

	systems     map[string]string
	models      map[string]string
	components  map[string]string
	entryPoints map[string]string // componentID + "/" + name
	flows       map[string]string
}

func (a *applier) project(ctx context.Context, sp seedProject) error {
	p, err := a.svc.CreateProject(ctx, a.tenant, map[string]any{
		"name":        sp.Name,
		"description": sp.Description,
		"tags":        toAny(sp.Tags),
	})
	if err != nil {
		return err
	}
	a.projectID = p.ID
	a.systems[p.Name] = p.RootSystemID

	for _, sys := range sp.Systems {
		if err := a.system(ctx, sys, p.RootSystemID); err != nil {
			return err
		}
	}
	for _, dm := range sp.DataModels {
		if err := a.dataModel(ctx, dm); err != nil {
			return err
		}
	}
	for _, comp := range sp.Components {
		if err := a.component(ctx, comp); err != nil {
			return err
		}
	}
	for _, flow := range sp.Flows {
		if err := a.flow(ctx, flow); err != nil {
			return err
		}
	}
	return nil
}

func (a *applier) system(ctx context.Context, ss seedSystem, parentID string) error {
	sys, err := a.svc.CreateSystem(ctx, a.tenant, a.projectID, map[string]any{
		"name":        ss.Name,
		"description": ss.Description,
		"tags":        toAny(ss.Tags),
		"parentId":    parentID,
	})
	if err != nil {
		return fmt.Errorf("system %q: %w", ss.Name, err)
	}
	a.systems[sys.Name] = sys.ID
	for _, child := range ss.Children {
		if err := a.system(ctx, child, sys.ID); err != nil {
			return err
		}
	}
	return nil
}

func (a *applier) dataModel(ctx context.Context, sd seedDataModel) error {
	attrs := sd.Attributes
	if attrs == nil {
		attrs = []any{}
	}
	model, err := a.svc.CreateDataModel(ctx, a.tenant, a.projectID, map[string]any{
		"name":        sd.Name,
		"description": sd.Description,
		"attributes":  attrs,
	})
	if err != nil {
		return fmt.Errorf("data model %q: %w", sd.Name, err)
	}
	a.models[model.Name] = model.ID
	return nil
}

func (a *applier) component(ctx context.Context, sc seedComponent) error {
	comp, err := a.svc.CreateComponent(ctx, a.tenant, a.projectID, map[string]any{
		"name":        sc.Name,
		"description": sc.Description,
	})
	if err != nil {
		return fmt.Errorf("component %q: %w", sc.Name, err)
	}
	a.components[comp.Name] = comp.ID

	for _, se := range sc.EntryPoints {
		requests, err := resolve(a.models, "data model", se.RequestModels)
		if err != nil {
			return fmt.Errorf("entry point %q: %w", se.Name, err)
		}
		responses, err := resolve(a.models, "data model", se.ResponseModels)
		if err != nil {
			return fmt.Errorf("entry point %q: %w", se.Name, err)
		}
		ep, err := a.svc.CreateEntryPoint(ctx, a.tenant, a.projectID, comp.ID, map[string]any{
			"name":             se.Name,
			"description":      se.Description,
			"type":             se.Type,
			"protocol":         se.Protocol,
			"method":           se.Method,
			"path":             se.Path,
			"requestModelIds":  requests,
			"responseModelIds": responses,
		})
		if err != nil {
			return fmt.Errorf("entry point %q: %w", se.Name, err)
		}
		a.entryPoints[comp.ID+"/"+se.Name] = ep.ID
	}
	return nil
}

func (a *applier) flow(ctx context.Context, sf seedFlow) error {
	scope, err := resolve(a.systems, "system", sf.Systems)
	if err != nil {
		return fmt.Errorf("flow %q: %w", sf.Name, err)
	}

	steps := make([]any, 0, len(sf.Steps))
	for _, st := range sf.Steps {
		step, err := a.step(st)
		if err != nil {
			return fmt.Errorf("flow %q step %q: %w", sf.Name, st.Name, err)
		}
		steps = append(steps, step)
	}

	flow, err := a.svc.CreateFlow(ctx, a.tenant, a.projectID, map[string]any{
		"name":           sf.Name,
		"description":    sf.Description,
		"tags":           toAny(sf.Tags),
		"systemScopeIds": scope,
		"steps":          steps,
	})
	if err != nil {
		return fmt.Errorf("flow %q: %w", sf.Name, err)
	}
	a.flows[flow.Name] = flow.ID
	return nil
}

func (a *applier) step(st seedStep) (map[string]any, error) {
	sourceID, ok := a.components[st.From]
	if !ok {
		return nil, fmt.Errorf("unknown component %q", st.From)
	}
	targetID, ok := a.components[st.To]
	if !ok {
		return nil, fmt.Errorf("unknown component %q", st.To)
	}
	target := map[string]any{"componentId": targetID}
	if st.EntryPoint != "" {
		epID, ok := a.entryPoints[targetID+"/"+st.EntryPoint]
		if !ok {
			return nil, fmt.Errorf("component %q has no entry point %q", st.To, st.EntryPoint)
		}
		target["entryPointId"] = epID
	}
	alternates, err := resolve(a.flows, "flow", st.Alternates)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"name":             st.Name,
		"description":      st.Description,
		"source":           map[string]any{"componentId": sourceID},
		"target":           target,
		"alternateFlowIds": alternates,
	}, nil
}

// resolve maps names to ids, failing on the first unknown name.
func resolve(ids map[string]string, kind string, names []string) ([]any, error) {
	out := make([]any, 0, len(names))
	for _, name := range names {
		id, ok := ids[name]
		if !ok {
			return nil, fmt.Errorf("unknown %s %q", kind, name)
		}
		out = append(out, id)
	}
	return out, nil
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
