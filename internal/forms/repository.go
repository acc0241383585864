package forms

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
)

type Repository interface {
	CreateGeneration(ctx context.Context, gen *FormGeneration) error
	ListGenerations(ctx context.Context, kind *Kind, limit int) ([]FormGeneration, error)
	DeleteGenerationsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type sqlRepository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &sqlRepository{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS form_generations (
	id          TEXT PRIMARY KEY,
	kind        TEXT NOT NULL,
	output_name TEXT NOT NULL,
	output_path TEXT NOT NULL,
	fields      TEXT NOT NULL,
	paragraphs  INTEGER NOT NULL DEFAULT 0,
	cells       INTEGER NOT NULL DEFAULT 0,
	created_at  TIMESTAMP NOT NULL
)`

// EnsureSchema creates the audit table when missing.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}

func (r *sqlRepository) CreateGeneration(ctx context.Context, gen *FormGeneration) error {
	query := `
		INSERT INTO form_generations (
			id, kind, output_name, output_path, fields, paragraphs, cells, created_at
		) VALUES (
			:id, :kind, :output_name, :output_path, :fields, :paragraphs, :cells, :created_at
		)`
	_, err := r.db.NamedExecContext(ctx, query, gen)
	return err
}

func (r *sqlRepository) ListGenerations(ctx context.Context, kind *Kind, limit int) ([]FormGeneration, error) {
	gens := []FormGeneration{}
	query := "SELECT * FROM form_generations WHERE 1=1"
	var args []interface{}

	if kind != nil {
		query += " AND kind = ?"
		args = append(args, *kind)
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	err := r.db.SelectContext(ctx, &gens, r.db.Rebind(query), args...)
	return gens, err
}

func (r *sqlRepository) DeleteGenerationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM form_generations WHERE created_at < ?"), cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
