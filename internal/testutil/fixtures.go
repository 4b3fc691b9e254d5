package testutil

import (
	"fmt"
	"sync"
	"testing"

	"archgraph.io/archgraph/internal/domain"
	"archgraph.io/archgraph/internal/validation"
)

// SequentialIDs returns an id generator yielding prefix-1, prefix-2, ...
// It is safe for concurrent use.
func SequentialIDs(prefix string) func() string {
	var (
		mu sync.Mutex
		n  int
	)
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

// ProjectWithRoot builds an otherwise empty project whose root system is rootID.
func ProjectWithRoot(projectID, name, rootID string) domain.Project {
	p := domain.NewProject(projectID, name)
	p.RootSystemID = rootID
	p.Systems[rootID] = domain.System{
		ID:       rootID,
		Name:     name,
		Tags:     []string{},
		ChildIDs: []string{},
		IsRoot:   true,
	}
	return p
}

// MustDecode sanitizes a JSON aggregate fixture.
func MustDecode(t testing.TB, data string) domain.Aggregate {
	t.Helper()
	agg, err := validation.Decode([]byte(data))
	if err != nil {
		t.Fatalf("decode fixture: %v", err)
	}
	return agg
}
