package auth_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmwangi/saccoterm/internal/auth"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")

	store, err := auth.NewFileStore(path)
	require.NoError(t, err)
	assert.Empty(t, store.Access())
	assert.Empty(t, store.Refresh())

	creds := auth.Credentials{
		Access:  "access-token",
		Refresh: "refresh-token",
		User:    &auth.User{ID: 7, Email: "treasurer@example.com"},
	}
	require.NoError(t, store.Save(creds))

	// A fresh store reads back what was written.
	reopened, err := auth.NewFileStore(path)
	require.NoError(t, err)
	assert.Equal(t, "access-token", reopened.Access())
	assert.Equal(t, "refresh-token", reopened.Refresh())
	require.NotNil(t, reopened.User())
	assert.Equal(t, int64(7), reopened.User().ID)
}

func TestFileStoreStoreAccessKeepsRefresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")

	store, err := auth.NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(auth.Credentials{Access: "old", Refresh: "keep"}))

	require.NoError(t, store.StoreAccess("new"))

	assert.Equal(t, "new", store.Access())
	assert.Equal(t, "keep", store.Refresh())
}

func TestFileStoreClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")

	store, err := auth.NewFileStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(auth.Credentials{Access: "a", Refresh: "r"}))

	require.NoError(t, store.Clear())

	assert.Empty(t, store.Access())
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))

	// Clearing an already-missing file is not an error.
	require.NoError(t, store.Clear())
}

func TestFileStoreMissingFileIsLoggedOut(t *testing.T) {
	store, err := auth.NewFileStore(filepath.Join(t.TempDir(), "nope", "credentials.json"))

	require.NoError(t, err)
	assert.Empty(t, store.Access())
	assert.Nil(t, store.User())
}
