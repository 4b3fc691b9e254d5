package badgerstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"archgraph.io/archgraph/internal/domain"
	"archgraph.io/archgraph/internal/pkg/logger"
	"archgraph.io/archgraph/internal/testutil"
)

func init() {
	_ = logger.Init("error", "json")
}

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Options{})
	require.Error(t, err)
}

func TestLoad_Empty(t *testing.T) {
	s := openInMemory(t)

	agg, err := s.Load(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, agg)
	require.Empty(t, agg)
}

func TestSaveLoad(t *testing.T) {
	s := openInMemory(t)
	ctx := context.Background()

	agg := domain.Aggregate{"P": testutil.ProjectWithRoot("P", "Shop", "R")}
	require.NoError(t, s.Save(ctx, "alice", agg))

	got, err := s.Load(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, "Shop", got["P"].Name)
	require.Equal(t, "R", got["P"].RootSystemID)

	other, err := s.Load(ctx, "")
	require.NoError(t, err)
	require.Empty(t, other, "tenants are separate keys")
}

func TestSaveLoad_Persistent(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	agg := domain.Aggregate{"P": testutil.ProjectWithRoot("P", "Shop", "R")}

	s, err := Open(Options{Path: dir})
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "", agg))
	require.NoError(t, s.Close())

	s, err = Open(Options{Path: dir})
	require.NoError(t, err)
	defer s.Close()

	got, err := s.Load(ctx, "")
	require.NoError(t, err)
	require.Equal(t, "Shop", got["P"].Name)
	require.Equal(t, "R", got["P"].RootSystemID)
}

func TestKey(t *testing.T) {
	require.Equal(t, []byte("aggregate/default"), Key(""))
	require.Equal(t, []byte("aggregate/alice"), Key("alice"))
}
