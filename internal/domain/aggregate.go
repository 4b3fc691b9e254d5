// Package domain provides the architecture model entities for archgraph.
//
// A tenant's persisted state is an Aggregate: a map of projects, each holding
// its system tree, flows, data models, components and entry points. Entities
// reference each other by id only; there are no embedded pointers, so every
// value in this package can be deep-copied with Clone.
//
// Import Path: archgraph.io/archgraph/internal/domain
package domain

// Aggregate is the full persisted state for one tenant, keyed by project id.
type Aggregate map[string]Project

// Project is the root entity of an architecture model.
type Project struct {
	ID           string                `json:"id"`
	Name         string                `json:"name"`
	Description  string                `json:"description"`
	Tags         []string              `json:"tags"`
	RootSystemID string                `json:"rootSystemId"`
	Systems      map[string]System     `json:"systems"`
	Flows        map[string]Flow       `json:"flows"`
	DataModels   map[string]DataModel  `json:"dataModels"`
	Components   map[string]Component  `json:"components"`
	EntryPoints  map[string]EntryPoint `json:"entryPoints"`
}

// NewProject returns a project with initialised collections.
func NewProject(id, name string) Project {
	return Project{
		ID:          id,
		Name:        name,
		Tags:        []string{},
		Systems:     map[string]System{},
		Flows:       map[string]Flow{},
		DataModels:  map[string]DataModel{},
		Components:  map[string]Component{},
		EntryPoints: map[string]EntryPoint{},
	}
}

// RootSystem returns the project's root system.
func (p Project) RootSystem() (System, bool) {
	s, ok := p.Systems[p.RootSystemID]
	return s, ok
}

// Clone returns a deep copy of the aggregate.
func (a Aggregate) Clone() Aggregate {
	out := make(Aggregate, len(a))
	for id, p := range a {
		out[id] = p.Clone()
	}
	return out
}

// Clone returns a deep copy of the project.
func (p Project) Clone() Project {
	out := p
	out.Tags = cloneStrings(p.Tags)

	out.Systems = make(map[string]System, len(p.Systems))
	for id, s := range p.Systems {
		out.Systems[id] = s.Clone()
	}
	out.Flows = make(map[string]Flow, len(p.Flows))
	for id, f := range p.Flows {
		out.Flows[id] = f.Clone()
	}
	out.DataModels = make(map[string]DataModel, len(p.DataModels))
	for id, m := range p.DataModels {
		out.DataModels[id] = m.Clone()
	}
	out.Components = make(map[string]Component, len(p.Components))
	for id, c := range p.Components {
		out.Components[id] = c.Clone()
	}
	out.EntryPoints = make(map[string]EntryPoint, len(p.EntryPoints))
	for id, e := range p.EntryPoints {
		out.EntryPoints[id] = e.Clone()
	}
	return out
}

func cloneStrings(in []string) []string {
	out := make([]string, len(in))
	copy(out, in)
	return out
}
