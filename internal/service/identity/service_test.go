package identity

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/mindbloom/backend/internal/storage"
)

type fakeVerifier struct {
	claims Claims
	err    error
}

func (f fakeVerifier) Verify(context.Context, string) (Claims, error) {
	return f.claims, f.err
}

func TestSignInStoresProfile(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	svc := NewService(fakeVerifier{claims: Claims{Subject: "42", Email: "a@b.c", Name: "Ari", Picture: "p.png"}}, store, nil)

	profile, err := svc.SignIn(ctx, "token")
	require.NoError(t, err)
	assert.Equal(t, "Ari", profile.Name)
	assert.Equal(t, "p.png", profile.Avatar)
	assert.Equal(t, "42", profile.ExternalID)

	current, ok, err := svc.Current(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, profile, current)

	require.NoError(t, svc.SignOut(ctx))
	_, ok, err = svc.Current(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSignInRejectedLeavesStoreEmpty(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	svc := NewService(fakeVerifier{err: ErrInvalidCredential}, store, nil)

	_, err := svc.SignIn(ctx, "token")
	assert.ErrorIs(t, err, ErrInvalidCredential)
	_, err = store.Get(ctx, StorageKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCurrentRemovesCorruptProfile(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	require.NoError(t, store.Set(ctx, StorageKey, []byte("{broken")))

	_, ok, err := NewService(nil, store, nil).Current(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.Get(ctx, StorageKey)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSignInDisabled(t *testing.T) {
	svc := NewService(nil, storage.NewMemory(), nil)
	assert.False(t, svc.Enabled())
	_, err := svc.SignIn(context.Background(), "token")
	assert.ErrorIs(t, err, ErrDisabled)
}
