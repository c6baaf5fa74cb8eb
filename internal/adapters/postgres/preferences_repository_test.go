package postgres_adapter

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type prefKey struct{ profile, key string }

// fakeDB исполняет ровно те запросы, которые отправляет репозиторий.
type fakeDB struct {
	rows    map[prefKey]string
	failErr error
	execs   []string
}

type fakeRow struct {
	value string
	err   error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*dest[0].(*string) = r.value
	return nil
}

func (db *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.execs = append(db.execs, sql)
	if db.failErr != nil {
		return pgconn.CommandTag{}, db.failErr
	}
	switch {
	case strings.Contains(sql, "CREATE TABLE"):
		return pgconn.NewCommandTag("CREATE TABLE"), nil
	case strings.Contains(sql, "INSERT"):
		db.rows[prefKey{args[0].(string), args[1].(string)}] = args[2].(string)
		return pgconn.NewCommandTag("INSERT 0 1"), nil
	case strings.Contains(sql, "DELETE"):
		k := prefKey{args[0].(string), args[1].(string)}
		if _, ok := db.rows[k]; !ok {
			return pgconn.NewCommandTag("DELETE 0"), nil
		}
		delete(db.rows, k)
		return pgconn.NewCommandTag("DELETE 1"), nil
	}
	return pgconn.CommandTag{}, errors.New("unexpected query")
}

func (db *fakeDB) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	if db.failErr != nil {
		return fakeRow{err: db.failErr}
	}
	v, ok := db.rows[prefKey{args[0].(string), args[1].(string)}]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{value: v}
}

func TestPreferencesRepository(t *testing.T) {
	db := &fakeDB{rows: map[prefKey]string{}}
	ctx := context.Background()

	alice, err := NewPostgresPreferencesRepository(db, "alice")
	require.NoError(t, err)
	bob, err := NewPostgresPreferencesRepository(db, "")
	require.NoError(t, err)

	require.NoError(t, alice.EnsureSchema(ctx))
	assert.Contains(t, db.execs[0], "moderator_preferences")

	require.NoError(t, alice.Set(ctx, "themeMode", "dark"))
	require.NoError(t, alice.Set(ctx, "themeMode", "light"))

	value, ok, err := alice.Get(ctx, "themeMode")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "light", value)

	_, ok, err = bob.Get(ctx, "themeMode")
	require.NoError(t, err)
	assert.False(t, ok, "profiles are isolated")
	assert.Equal(t, "light", db.rows[prefKey{"alice", "themeMode"}])

	require.NoError(t, alice.Delete(ctx, "themeMode"))
	require.NoError(t, alice.Delete(ctx, "themeMode"))
	_, ok, err = alice.Get(ctx, "themeMode")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPreferencesRepositoryErrors(t *testing.T) {
	boom := errors.New("connection reset")
	db := &fakeDB{rows: map[prefKey]string{}, failErr: boom}
	repo, err := NewPostgresPreferencesRepository(db, "alice")
	require.NoError(t, err)
	ctx := context.Background()

	_, _, err = repo.Get(ctx, "filterPresets")
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, repo.Set(ctx, "filterPresets", "{}"), boom)
	assert.ErrorIs(t, repo.Delete(ctx, "filterPresets"), boom)
	assert.ErrorIs(t, repo.EnsureSchema(ctx), boom)

	_, err = NewPostgresPreferencesRepository(nil, "x")
	assert.Error(t, err)
}

func TestNewClientRequiresURL(t *testing.T) {
	_, err := NewClient(context.Background(), Config{})
	assert.Error(t, err)
}
