package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// DocumentID names the single settings document.
const DocumentID = "appConfig"

// Repository stores one key/value document. Merge only touches the keys it is given.
type Repository interface {
	Get(ctx context.Context) (map[string]any, error)
	Merge(ctx context.Context, patch map[string]any) (map[string]any, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Get(ctx context.Context) (map[string]any, error) {
	var data map[string]any
	err := r.db.QueryRow(ctx, `SELECT data FROM settings WHERE id = $1`, DocumentID).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return map[string]any{}, nil
	}
	if err != nil {
		err := fmt.Errorf("could not read settings: %w", err)
		log.Error(err)
		return nil, err
	}
	if data == nil {
		data = map[string]any{}
	}
	return data, nil
}

func (r *RepositoryImpl) Merge(ctx context.Context, patch map[string]any) (map[string]any, error) {
	query := `INSERT INTO settings (id, data) VALUES ($1, $2)
			  ON CONFLICT (id) DO UPDATE
			  SET data = settings.data || EXCLUDED.data, updated_at = now()
			  RETURNING data`
	var data map[string]any
	if err := r.db.QueryRow(ctx, query, DocumentID, patch).Scan(&data); err != nil {
		err := fmt.Errorf("could not write settings: %w", err)
		log.Error(err)
		return nil, err
	}
	return data, nil
}
