package keystore

import (
	"context"
	"crypto/rsa"
	"testing"

	"github.com/84adam/mfa-core/cryptoutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreReadRoundTrip(t *testing.T) {
	store, err := NewInMemoryKeyStore()
	require.NoError(t, err)

	key, err := cryptoutil.GenerateRSAKeyPair(2048)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Store(ctx, "uuid-1.biometrics", key, AccessControlBiometry))

	exists, err := store.Exists(ctx, "uuid-1.biometrics")
	require.NoError(t, err)
	assert.True(t, exists)

	read, err := store.Read(ctx, "uuid-1.biometrics")
	require.NoError(t, err)
	readKey, ok := read.(*rsa.PrivateKey)
	require.True(t, ok)
	assert.Equal(t, key.D, readKey.D)
}

func TestStoreDuplicateLabelFails(t *testing.T) {
	store, err := NewInMemoryKeyStore()
	require.NoError(t, err)
	key, _ := cryptoutil.GenerateRSAKeyPair(2048)

	ctx := context.Background()
	require.NoError(t, store.Store(ctx, "label-1", key, AccessControlNone))
	err = store.Store(ctx, "label-1", key, AccessControlNone)
	assert.ErrorIs(t, err, ErrDuplicateKey)
}

func TestReadMissingLabelFails(t *testing.T) {
	store, err := NewInMemoryKeyStore()
	require.NoError(t, err)
	_, err = store.Read(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestRenamePreservesKeyMaterial(t *testing.T) {
	store, err := NewInMemoryKeyStore()
	require.NoError(t, err)
	key, _ := cryptoutil.GenerateRSAKeyPair(2048)

	ctx := context.Background()
	require.NoError(t, store.Store(ctx, "old-label", key, AccessControlNone))
	require.NoError(t, store.Rename(ctx, "old-label", "new-label"))

	existsOld, _ := store.Exists(ctx, "old-label")
	assert.False(t, existsOld)

	read, err := store.Read(ctx, "new-label")
	require.NoError(t, err)
	readKey := read.(*rsa.PrivateKey)
	assert.Equal(t, key.D, readKey.D)
}

func TestDeleteIsIdempotent(t *testing.T) {
	store, err := NewInMemoryKeyStore()
	require.NoError(t, err)
	ctx := context.Background()
	assert.NoError(t, store.Delete(ctx, "never-existed"))
}

func TestSetPINRejectsWeakPIN(t *testing.T) {
	store, err := NewInMemoryKeyStore()
	require.NoError(t, err)
	assert.Error(t, store.SetPIN("1111"))
}

func TestSetPINAcceptsStrongPIN(t *testing.T) {
	store, err := NewInMemoryKeyStore()
	require.NoError(t, err)
	assert.NoError(t, store.SetPIN("xK9!mQ2vL7#pR4wZ"))
}
