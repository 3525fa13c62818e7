package fixes

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ElementIndex answers whether a selector exists on the storefront
type ElementIndex interface {
	Exists(ctx context.Context, selector string) (bool, error)
}

// StaticIndex is a fixed in-memory selector set
type StaticIndex map[string]struct{}

// NewStaticIndex builds an index from a list of selectors
func NewStaticIndex(selectors ...string) StaticIndex {
	idx := make(StaticIndex, len(selectors))
	for _, s := range selectors {
		idx[s] = struct{}{}
	}
	return idx
}

func (s StaticIndex) Exists(_ context.Context, selector string) (bool, error) {
	_, ok := s[selector]
	return ok, nil
}

// PostgresIndex looks selectors up in the element_index table populated by
// the storefront build
type PostgresIndex struct {
	db        *pgxpool.Pool
	projectID string
}

func NewPostgresIndex(ctx context.Context, dsn, projectID string) (*PostgresIndex, error) {
	db, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect element index: %w", err)
	}
	return &PostgresIndex{db: db, projectID: projectID}, nil
}

func (p *PostgresIndex) Exists(ctx context.Context, selector string) (bool, error) {
	var exists bool
	err := p.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM element_index
			WHERE ($1 = '' OR project_id::text = $1) AND selector = $2
		)
	`, p.projectID, selector).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("query element index: %w", err)
	}
	return exists, nil
}

func (p *PostgresIndex) Close() {
	if p.db != nil {
		p.db.Close()
	}
}
