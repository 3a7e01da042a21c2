package publisher

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"
)

var ErrNotFound = errors.New("publisher not found")

// Publisher is the site owner earning revenue from served placements.
type Publisher struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	Name       string    `json:"name" db:"name"`
	WebsiteURL string    `json:"website_url" db:"website_url"`
	Active     bool      `json:"active" db:"active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

type Repository interface {
	Get(ctx context.Context, id string) (Publisher, error)
}

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Get(ctx context.Context, id string) (Publisher, error) {
	var p Publisher
	err := r.db.QueryRowContext(ctx, `
		SELECT id, user_id, name, website_url, active, created_at
		FROM publishers
		WHERE id = $1`, id).Scan(
		&p.ID, &p.UserID, &p.Name, &p.WebsiteURL, &p.Active, &p.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Publisher{}, ErrNotFound
	}
	if err != nil {
		return Publisher{}, err
	}
	return p, nil
}

// MemoryRepo is for tests.
type MemoryRepo struct {
	mu         sync.Mutex
	publishers map[string]Publisher
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{publishers: make(map[string]Publisher)}
}

func (r *MemoryRepo) Put(p Publisher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.publishers[p.ID] = p
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Publisher, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.publishers[id]
	if !ok {
		return Publisher{}, ErrNotFound
	}
	return p, nil
}
