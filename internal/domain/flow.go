package domain

// Flow is an ordered interaction between components, scoped to a set of systems.
type Flow struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	Tags           []string `json:"tags"`
	SystemScopeIDs []string `json:"systemScopeIds"`
	Steps          []Step   `json:"steps"`
}

// Clone returns a deep copy of the flow.
func (f Flow) Clone() Flow {
	out := f
	out.Tags = cloneStrings(f.Tags)
	out.SystemScopeIDs = cloneStrings(f.SystemScopeIDs)
	out.Steps = make([]Step, len(f.Steps))
	for i, st := range f.Steps {
		out.Steps[i] = st.Clone()
	}
	return out
}

// Step is one interaction of a flow.
//
// SourceSystemID and TargetSystemID carry the older system-to-system step
// shape. They are preserved when read from storage but never written by
// mutations.
type Step struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Description      string       `json:"description"`
	Tags             []string     `json:"tags"`
	Source           StepEndpoint `json:"source"`
	Target           StepEndpoint `json:"target"`
	AlternateFlowIDs []string     `json:"alternateFlowIds"`
	SourceSystemID   string       `json:"sourceSystemId,omitempty"`
	TargetSystemID   string       `json:"targetSystemId,omitempty"`
}

// Clone returns a deep copy of the step.
func (s Step) Clone() Step {
	out := s
	out.Tags = cloneStrings(s.Tags)
	out.AlternateFlowIDs = cloneStrings(s.AlternateFlowIDs)
	out.Source = s.Source.Clone()
	out.Target = s.Target.Clone()
	return out
}

// IsLegacy reports whether the step uses the system-to-system shape.
func (s Step) IsLegacy() bool {
	return s.Source.ComponentID == "" && s.Target.ComponentID == "" &&
		s.SourceSystemID != "" && s.TargetSystemID != ""
}

// StepEndpoint references a component and, optionally, one of its entry points.
type StepEndpoint struct {
	ComponentID  string  `json:"componentId"`
	EntryPointID *string `json:"entryPointId"`
}

// Clone returns a deep copy of the endpoint.
func (e StepEndpoint) Clone() StepEndpoint {
	out := e
	if e.EntryPointID != nil {
		id := *e.EntryPointID
		out.EntryPointID = &id
	}
	return out
}

// EntryPoint returns the referenced entry point id, or "" when unset.
func (e StepEndpoint) EntryPoint() string {
	if e.EntryPointID == nil {
		return ""
	}
	return *e.EntryPointID
}
