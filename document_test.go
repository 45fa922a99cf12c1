package docstore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docstore/docstore.go"
)

func TestNewGeneratesIdentity(t *testing.T) {
	doc := docstore.New(userDesc)

	require.NotEmpty(t, doc.ID())
	assert.Equal(t, "version/1/user/"+doc.ID(), doc.Path())
	assert.Equal(t, doc.Path(), doc.StoragePath())
	assert.Equal(t, docstore.ExistenceUnknown, doc.Exists())
	require.NotNil(t, doc.Record)
	assert.Zero(t, *doc.Record)
}

func TestNewWithIDRejectsMalformedIDs(t *testing.T) {
	for _, id := range []string{"", "a/b"} {
		_, err := docstore.NewWithID(userDesc, id)
		assert.ErrorIs(t, err, docstore.ErrInvalidReference, "id %q", id)
	}
}

func TestNewWithRecordRegistersHandle(t *testing.T) {
	doc, err := docstore.NewWithRecord(userDesc, "doc-reg-1", &testUser{Name: "Ann"})
	require.NoError(t, err)

	cached, ok := docstore.Lookup(docstore.DefaultCache(), userDesc, "doc-reg-1")
	require.True(t, ok)
	assert.Same(t, doc, cached)
}

func TestNewWithRecordNilRecordAllocates(t *testing.T) {
	doc, err := docstore.NewWithRecord(userDesc, "doc-reg-2", nil)
	require.NoError(t, err)
	require.NotNil(t, doc.Record)
}

func TestHandlesOfDistinctTypesShareNoPath(t *testing.T) {
	user, err := docstore.NewWithID(userDesc, "shared-1")
	require.NoError(t, err)
	note, err := docstore.NewWithID(noteDesc, "shared-1")
	require.NoError(t, err)

	assert.NotEqual(t, user.Path(), note.Path())
}
