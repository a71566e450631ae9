package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pgStore connects to DATABASE_URL under a fresh namespace and removes its
// rows afterwards.
func pgStore(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, pool.Ping(ctx))

	s := NewPostgresStore(pool, "test-"+uuid.NewString())
	require.NoError(t, s.EnsureSchema(ctx))
	require.NoError(t, s.EnsureSchema(ctx))
	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `DELETE FROM client_kv WHERE namespace=$1`, s.namespace)
	})
	return s
}

func TestPostgresStore_Contract(t *testing.T) {
	ctx := context.Background()
	s := pgStore(t)

	_, found, err := s.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.Set(ctx, KeyToken, "abc"))
	require.NoError(t, s.Set(ctx, KeyToken, "def"))
	require.NoError(t, s.Set(ctx, KeyHasAddress, "true"))
	require.NoError(t, s.Set(ctx, KeyPostcode, "sw1a1aa"))

	v, found, err := s.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "def", v)

	require.NoError(t, s.Remove(ctx))
	require.NoError(t, s.Remove(ctx, KeyToken, KeyPostcode, KeyCartItems))
	for _, k := range []string{KeyToken, KeyPostcode} {
		_, found, err = s.Get(ctx, k)
		require.NoError(t, err)
		assert.False(t, found, k)
	}
	v, found, err = s.Get(ctx, KeyHasAddress)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "true", v)
}

func TestPostgresStore_NamespacesAreIsolated(t *testing.T) {
	ctx := context.Background()
	a := pgStore(t)
	b := NewPostgresStore(a.pool, "test-"+uuid.NewString())
	t.Cleanup(func() {
		_, _ = b.pool.Exec(context.Background(), `DELETE FROM client_kv WHERE namespace=$1`, b.namespace)
	})

	require.NoError(t, a.Set(ctx, KeyToken, "a-token"))
	_, found, err := b.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, b.Remove(ctx, KeyToken))
	v, found, err := a.Get(ctx, KeyToken)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "a-token", v)
}
