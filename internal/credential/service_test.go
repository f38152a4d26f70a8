package credential_test

import (
	"context"
	"testing"

	cachemock "github.com/dataforge-ai/dataforge/internal/cache/mock"
	"github.com/dataforge-ai/dataforge/internal/credential"
	"github.com/dataforge-ai/dataforge/internal/store"
	storemock "github.com/dataforge-ai/dataforge/internal/store/mock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService(t *testing.T) (*credential.Service, *credential.Registry, *storemock.Store) {
	t.Helper()
	st := storemock.NewStore()
	reg := credential.NewRegistry(st, cachemock.NewCache(), nil)
	return credential.NewService(st, reg), reg, st
}

func TestAdd_FirstCredentialActivatesAndResolves(t *testing.T) {
	ctx := context.Background()
	sess := testSession()
	svc, reg, _ := newService(t)

	cred, err := svc.Add(ctx, sess, "OpenAI API Key", "sk-first")
	require.NoError(t, err)
	assert.True(t, cred.IsActive)

	// The session container picks up the committed key immediately.
	assert.Equal(t, "sk-first", reg.ForSession(ctx, sess).APIKey())
}

func TestAdd_SecondCredentialStaysInactive(t *testing.T) {
	ctx := context.Background()
	sess := testSession()
	svc, reg, _ := newService(t)

	_, err := svc.Add(ctx, sess, "first", "sk-first")
	require.NoError(t, err)

	second, err := svc.Add(ctx, sess, "second", "sk-second")
	require.NoError(t, err)
	assert.False(t, second.IsActive)

	// Resolved key is still the first (active) credential's.
	assert.Equal(t, "sk-first", reg.ForSession(ctx, sess).APIKey())
}

func TestAdd_EmptyKeyRejected(t *testing.T) {
	sess := testSession()
	svc, _, _ := newService(t)

	_, err := svc.Add(context.Background(), sess, "name", "   ")
	assert.ErrorIs(t, err, credential.ErrEmptyKey)
}

func TestAdd_DefaultsKeyName(t *testing.T) {
	sess := testSession()
	svc, _, _ := newService(t)

	cred, err := svc.Add(context.Background(), sess, "", "sk-first")
	require.NoError(t, err)
	assert.Equal(t, "OpenAI API Key", cred.KeyName)
}

func TestActivate_SwitchesResolvedKey(t *testing.T) {
	ctx := context.Background()
	sess := testSession()
	svc, reg, _ := newService(t)

	_, err := svc.Add(ctx, sess, "a", "sk-a")
	require.NoError(t, err)
	b, err := svc.Add(ctx, sess, "b", "sk-b")
	require.NoError(t, err)

	require.NoError(t, svc.Activate(ctx, sess, b.ID))

	assert.Equal(t, "sk-b", reg.ForSession(ctx, sess).APIKey())

	creds, err := svc.List(ctx, sess)
	require.NoError(t, err)
	active := 0
	for _, c := range creds {
		if c.IsActive {
			active++
			assert.Equal(t, b.ID, c.ID)
		}
	}
	assert.Equal(t, 1, active)
}

func TestActivate_UnknownID(t *testing.T) {
	sess := testSession()
	svc, _, _ := newService(t)

	err := svc.Activate(context.Background(), sess, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// Deleting the active credential of [a(T1, active), b(T2, inactive)] leaves
// [b(active)] and refreshes the resolved key to b's secret.
func TestDelete_ActiveCredentialReelection(t *testing.T) {
	ctx := context.Background()
	sess := testSession()
	svc, reg, _ := newService(t)

	a, err := svc.Add(ctx, sess, "a", "sk-a")
	require.NoError(t, err)
	b, err := svc.Add(ctx, sess, "b", "sk-b")
	require.NoError(t, err)
	require.True(t, a.IsActive)
	require.False(t, b.IsActive)

	require.NoError(t, svc.Delete(ctx, sess, a.ID))

	creds, err := svc.List(ctx, sess)
	require.NoError(t, err)
	require.Len(t, creds, 1)
	assert.Equal(t, b.ID, creds[0].ID)
	assert.True(t, creds[0].IsActive)

	assert.Equal(t, "sk-b", reg.ForSession(ctx, sess).APIKey())
}

func TestDelete_LastCredentialLeavesNoneActive(t *testing.T) {
	ctx := context.Background()
	sess := testSession()
	svc, _, st := newService(t)

	a, err := svc.Add(ctx, sess, "a", "sk-a")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, sess, a.ID))

	_, err = st.GetActiveCredential(ctx, sess.UserID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDelete_UnknownID(t *testing.T) {
	sess := testSession()
	svc, _, _ := newService(t)

	err := svc.Delete(context.Background(), sess, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRegistry_DisposeDropsStateButKeepsCache(t *testing.T) {
	ctx := context.Background()
	sess := testSession()
	st := storemock.NewStore()
	ca := cachemock.NewCache()
	reg := credential.NewRegistry(st, ca, nil)
	svc := credential.NewService(st, reg)

	_, err := svc.Add(ctx, sess, "a", "sk-a")
	require.NoError(t, err)
	require.Equal(t, "sk-a", reg.ForSession(ctx, sess).APIKey())

	reg.Dispose(sess.UserID)

	// A fresh container re-resolves from cache + store.
	assert.Equal(t, "sk-a", reg.ForSession(ctx, sess).APIKey())
}
