package forms

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, EnsureSchema(context.Background(), db))
	return db
}

func generation(kind Kind, name string, at time.Time) *FormGeneration {
	return &FormGeneration{
		ID:         uuid.New(),
		Kind:       kind,
		OutputName: name,
		OutputPath: "forms/" + name + ".pdf",
		Fields:     FieldValues{"Test3": name},
		Cells:      1,
		CreatedAt:  at.UTC(),
	}
}

func TestRepository_ListEmpty(t *testing.T) {
	gens, err := NewRepository(newTestDB(t)).ListGenerations(context.Background(), nil, 0)

	require.NoError(t, err)
	assert.NotNil(t, gens)
	assert.Empty(t, gens)
}

func TestRepository_CreateAndList(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t))
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, repo.CreateGeneration(ctx, generation(KindPositional, "a", base)))
	require.NoError(t, repo.CreateGeneration(ctx, generation(KindNamed, "b", base.Add(time.Hour))))
	require.NoError(t, repo.CreateGeneration(ctx, generation(KindPositional, "c", base.Add(2*time.Hour))))

	all, err := repo.ListGenerations(ctx, nil, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "c", all[0].OutputName)
	assert.Equal(t, "a", all[2].OutputName)
	assert.Equal(t, FieldValues{"Test3": "c"}, all[0].Fields)

	kind := KindPositional
	positional, err := repo.ListGenerations(ctx, &kind, 1)
	require.NoError(t, err)
	require.Len(t, positional, 1)
	assert.Equal(t, "c", positional[0].OutputName)
}

func TestRepository_DeleteGenerationsBefore(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(newTestDB(t))
	now := time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.CreateGeneration(ctx, generation(KindNamed, "old", now.AddDate(0, 0, -40))))
	require.NoError(t, repo.CreateGeneration(ctx, generation(KindNamed, "new", now.AddDate(0, 0, -1))))

	n, err := repo.DeleteGenerationsBefore(ctx, now.AddDate(0, 0, -30))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	left, err := repo.ListGenerations(ctx, nil, 0)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "new", left[0].OutputName)
}

func TestFieldValues_Scan(t *testing.T) {
	var f FieldValues
	require.NoError(t, f.Scan([]byte(`{"a":"b"}`)))
	assert.Equal(t, FieldValues{"a": "b"}, f)

	require.NoError(t, f.Scan(nil))
	assert.Nil(t, f)

	assert.Error(t, f.Scan(42))
}
