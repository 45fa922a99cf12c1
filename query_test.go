package docstore_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docstore/docstore.go"
	"github.com/docstore/docstore.go/internal/memstore"
	"github.com/docstore/docstore.go/pkg/remote"
)

func TestQueryChainStepsArePure(t *testing.T) {
	base := docstore.NewQuery(userDesc)

	filtered := base.Where("Age", remote.OpGreater, 18)
	ordered := filtered.OrderBy("Age", true).Limit(5)

	assert.Empty(t, base.Descriptor().Filters)
	assert.Len(t, filtered.Descriptor().Filters, 1)
	assert.Empty(t, filtered.Descriptor().Orders)
	assert.Len(t, ordered.Descriptor().Orders, 1)
	assert.Equal(t, 5, ordered.Descriptor().LimitCount)
	assert.Zero(t, filtered.Descriptor().LimitCount)
}

func TestQueryResolvesAccessorsThroughFieldTable(t *testing.T) {
	q := docstore.NewQuery(userDesc).Where("Name", remote.OpEqual, "Ann")
	require.Len(t, q.Descriptor().Filters, 1)
	assert.Equal(t, "name", q.Descriptor().Filters[0].Field)
	assert.Equal(t, "version/1/user", q.Descriptor().Collection)
}

func TestQueryUnresolvableAccessorPanics(t *testing.T) {
	assert.Panics(t, func() {
		docstore.NewQuery(userDesc).Where("NoSuchField", remote.OpEqual, 1)
	})
}

func seedUsers(store *memstore.Store) {
	store.Seed("version/1/user/query-a", remote.FieldMap{"name": "Ann", "age": 20})
	store.Seed("version/1/user/query-b", remote.FieldMap{"name": "Bob", "age": 30})
	store.Seed("version/1/user/query-c", remote.FieldMap{"name": "Cat", "age": 10})
}

func TestQueryFetchFiltersOrdersAndLimits(t *testing.T) {
	store := memstore.New()
	seedUsers(store)

	docs, err := docstore.NewQuery(userDesc).
		Where("Age", remote.OpGreater, 15).
		OrderBy("Age", true).
		Limit(2).
		Fetch(context.Background(), store, remote.SourceServer)
	require.NoError(t, err)

	require.Len(t, docs, 2)
	assert.Equal(t, "Bob", docs[0].Record.Name)
	assert.Equal(t, "Ann", docs[1].Record.Name)
	assert.Equal(t, docstore.ExistencePresent, docs[0].Exists())
}

func TestQueryStartAfterResumes(t *testing.T) {
	store := memstore.New()
	seedUsers(store)

	docs, err := docstore.NewQuery(userDesc).
		OrderBy("Age", false).
		StartAfter(10).
		Fetch(context.Background(), store, remote.SourceServer)
	require.NoError(t, err)

	require.Len(t, docs, 2)
	assert.Equal(t, "Ann", docs[0].Record.Name)
	assert.Equal(t, "Bob", docs[1].Record.Name)
}

func TestQueryFetchedHandlesAreCanonical(t *testing.T) {
	store := memstore.New()
	store.Seed("version/1/user/query-id1", remote.FieldMap{"name": "Ann"})

	docs, err := docstore.NewQuery(userDesc).Fetch(context.Background(), store, remote.SourceServer)
	require.NoError(t, err)
	require.NotEmpty(t, docs)

	cached, ok := docstore.Lookup(docstore.DefaultCache(), userDesc, docs[len(docs)-1].ID())
	require.True(t, ok)
	assert.Same(t, docs[len(docs)-1], cached)
}

func TestQuerySubscribeStreamsCollectionChanges(t *testing.T) {
	store := memstore.New()

	results, disposer, err := docstore.NewQuery(userDesc).
		Subscribe(context.Background(), store)
	require.NoError(t, err)
	defer disposer.Dispose()

	doc, err := docstore.NewWithRecord(userDesc, "query-sub1", &testUser{Name: "Live"})
	require.NoError(t, err)
	require.NoError(t, docstore.NewBatch(store).Save(doc).Commit(context.Background()))

	r := nextResult(t, results)
	require.NoError(t, r.Err)
	assert.Equal(t, "Live", r.Doc.Record.Name)

	// Changes outside the collection stay invisible.
	note, err := docstore.NewWithRecord(noteDesc, "query-sub2", &testNote{Title: "other"})
	require.NoError(t, err)
	require.NoError(t, docstore.NewBatch(store).Save(note).Commit(context.Background()))

	disposer.Dispose()
	assert.Empty(t, drain(t, results))
}
