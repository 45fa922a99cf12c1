package docstore_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docstore/docstore.go"
	"github.com/docstore/docstore.go/internal/memstore"
	"github.com/docstore/docstore.go/pkg/codec"
	"github.com/docstore/docstore.go/pkg/constants"
	"github.com/docstore/docstore.go/pkg/remote"
)

func TestBatchSaveThenUpdateTimestamps(t *testing.T) {
	store := memstore.New()
	ts1 := time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)
	ts2 := ts1.Add(time.Hour)
	store.SetClock(fixedClock(ts1))

	doc, err := docstore.NewWithRecord(userDesc, "batch-u1", &testUser{Name: "Ann"})
	require.NoError(t, err)

	require.NoError(t, docstore.NewBatch(store).Save(doc).Commit(context.Background()))

	fields, ok := store.ServerFields("version/1/user/batch-u1")
	require.True(t, ok)
	assert.Equal(t, "Ann", fields["name"])
	assert.Equal(t, ts1, fields[codec.FieldCreatedAt])
	assert.Equal(t, ts1, fields[codec.FieldUpdatedAt])

	store.SetClock(fixedClock(ts2))
	doc.Record.Name = "Bob"
	require.NoError(t, docstore.NewBatch(store).Update(doc).Commit(context.Background()))

	fields, ok = store.ServerFields("version/1/user/batch-u1")
	require.True(t, ok)
	assert.Equal(t, "Bob", fields["name"])
	assert.Equal(t, ts1, fields[codec.FieldCreatedAt], "update must not touch createdAt")
	assert.Equal(t, ts2, fields[codec.FieldUpdatedAt])
}

func TestBatchSkipsTimestampsWhenDisabled(t *testing.T) {
	store := memstore.New()
	doc, err := docstore.NewWithRecord(noteDesc, "batch-n1", &testNote{Title: "plain"})
	require.NoError(t, err)

	require.NoError(t, docstore.NewBatch(store).Save(doc).Commit(context.Background()))

	fields, ok := store.ServerFields("version/1/note/batch-n1")
	require.True(t, ok)
	assert.NotContains(t, fields, codec.FieldCreatedAt)
	assert.NotContains(t, fields, codec.FieldUpdatedAt)
}

func TestBatchCommitFailureLeavesEverythingUntouched(t *testing.T) {
	store := memstore.New()
	store.Seed("version/1/user/batch-f1", remote.FieldMap{"name": "Keep"})
	store.Seed("version/1/user/batch-f2", remote.FieldMap{"name": "Victim"})

	toSave, err := docstore.NewWithRecord(userDesc, "batch-f0", &testUser{Name: "New"})
	require.NoError(t, err)
	toUpdate, err := docstore.NewWithRecord(userDesc, "batch-f1", &testUser{Name: "Changed"})
	require.NoError(t, err)
	toDelete, err := docstore.NewWithRecord(userDesc, "batch-f2", &testUser{Name: "Victim"})
	require.NoError(t, err)

	rejection := errors.New("store rejected the transaction")
	store.FailNextCommit(rejection)

	err = docstore.NewBatch(store).Save(toSave).Update(toUpdate).Delete(toDelete).Commit(context.Background())
	assert.ErrorIs(t, err, rejection)

	_, ok := store.ServerFields("version/1/user/batch-f0")
	assert.False(t, ok, "save leaked despite failed commit")
	fields, ok := store.ServerFields("version/1/user/batch-f1")
	require.True(t, ok)
	assert.Equal(t, "Keep", fields["name"], "update leaked despite failed commit")
	_, ok = store.ServerFields("version/1/user/batch-f2")
	assert.True(t, ok, "delete leaked despite failed commit")

	cached, ok := docstore.Lookup(docstore.DefaultCache(), userDesc, "batch-f2")
	require.True(t, ok, "failed commit must not evict")
	assert.Same(t, toDelete, cached)
}

func TestBatchDeleteEvictsOnlyAfterCommit(t *testing.T) {
	store := memstore.New()
	store.Seed("version/1/user/batch-d1", remote.FieldMap{"name": "Doomed"})

	doc, err := docstore.NewWithRecord(userDesc, "batch-d1", &testUser{Name: "Doomed"})
	require.NoError(t, err)

	batch := docstore.NewBatch(store).Delete(doc)

	// Buffered but uncommitted: a cacheOnly read still sees pre-delete state.
	results := drain(t, docstore.Get(context.Background(), store, userDesc, "batch-d1", docstore.PolicyCacheOnly))
	require.NotEmpty(t, results)
	require.NoError(t, results[0].Err)
	assert.Equal(t, "Doomed", results[0].Doc.Record.Name)

	require.NoError(t, batch.Commit(context.Background()))

	_, ok := docstore.Lookup(docstore.DefaultCache(), userDesc, "batch-d1")
	assert.False(t, ok, "committed delete must evict immediately")
	_, ok = store.ServerFields("version/1/user/batch-d1")
	assert.False(t, ok)
}

func TestBatchIsSingleUse(t *testing.T) {
	store := memstore.New()
	doc, err := docstore.NewWithRecord(userDesc, "batch-s1", &testUser{Name: "Once"})
	require.NoError(t, err)

	batch := docstore.NewBatch(store).Save(doc)
	require.NoError(t, batch.Commit(context.Background()))

	assert.ErrorIs(t, batch.Commit(context.Background()), docstore.ErrBatchCommitted)
	assert.Panics(t, func() { batch.Save(doc) })
}

func TestBatchSaveToAlternateCollection(t *testing.T) {
	store := memstore.New()
	doc, err := docstore.NewWithRecord(noteDesc, "batch-alt1", &testNote{Title: "moved"})
	require.NoError(t, err)

	require.NoError(t, docstore.NewBatch(store).SaveTo(doc, "archive/1/note").Commit(context.Background()))

	fields, ok := store.ServerFields("archive/1/note/batch-alt1")
	require.True(t, ok)
	assert.Equal(t, "moved", fields["title"])
	_, ok = store.ServerFields("version/1/note/batch-alt1")
	assert.False(t, ok)
}

func TestBatchUpdateMissingDocumentFails(t *testing.T) {
	store := memstore.New()
	doc, err := docstore.NewWithRecord(userDesc, "batch-m1", &testUser{Name: "Ghost"})
	require.NoError(t, err)

	err = docstore.NewBatch(store).Update(doc).Commit(context.Background())
	assert.ErrorIs(t, err, constants.ErrNoDocumentData)
}

type unencodable struct {
	Ch chan int `json:"ch"`
}

var unencodableDesc = codec.Descriptor[unencodable]{
	Root:    "version",
	Version: "1",
	Name:    "broken",
	Fields:  map[string]string{"Ch": "ch"},
}

func TestBatchPanicsOnUnencodableRecord(t *testing.T) {
	store := memstore.New()
	doc, err := docstore.NewWithRecord(unencodableDesc, "batch-x1", &unencodable{Ch: make(chan int)})
	require.NoError(t, err)

	batch := docstore.NewBatch(store)
	assert.Panics(t, func() { batch.Save(doc) })
	assert.Zero(t, batch.Len(), "encoding failure must abort before buffering")
}
