package domain

// System is a node in a project's system tree.
// The parent edge is stored only on the parent (ChildIDs); a system's parent is
// looked up, never stored on the child.
type System struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	ChildIDs    []string `json:"childIds"`
	IsRoot      bool     `json:"isRoot"`
}

// Clone returns a deep copy of the system.
func (s System) Clone() System {
	out := s
	out.Tags = cloneStrings(s.Tags)
	out.ChildIDs = cloneStrings(s.ChildIDs)
	return out
}

// Component is a deployable unit exposing entry points.
type Component struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	EntryPointIDs []string `json:"entryPointIds"`
}

// Clone returns a deep copy of the component.
func (c Component) Clone() Component {
	out := c
	out.EntryPointIDs = cloneStrings(c.EntryPointIDs)
	return out
}

// OwnsEntryPoint reports whether id is listed in the component's entry points.
func (c Component) OwnsEntryPoint(id string) bool {
	for _, ep := range c.EntryPointIDs {
		if ep == id {
			return true
		}
	}
	return false
}

// EntryPoint is a typed interaction surface owned by a component
// (HTTP route, queue listener, RPC method...).
type EntryPoint struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Description      string   `json:"description"`
	Type             string   `json:"type"`
	Protocol         string   `json:"protocol"`
	Method           string   `json:"method"`
	Path             string   `json:"path"`
	RequestModelIDs  []string `json:"requestModelIds"`
	ResponseModelIDs []string `json:"responseModelIds"`
}

// Clone returns a deep copy of the entry point.
func (e EntryPoint) Clone() EntryPoint {
	out := e
	out.RequestModelIDs = cloneStrings(e.RequestModelIDs)
	out.ResponseModelIDs = cloneStrings(e.ResponseModelIDs)
	return out
}
