package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps session records in the sessions table. The record
// column holds the same {"images": [...]} document FileStore writes to disk.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore with the given connection pool.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts a new record and returns its id.
func (r *PostgresStore) Create(ctx context.Context, images []string) (string, error) {
	data, err := json.Marshal(Session{Images: images})
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	id := uuid.NewString()
	_, err = r.db.Exec(ctx,
		`INSERT INTO sessions (id, record) VALUES ($1, $2)`,
		id, string(data),
	)
	if err != nil {
		return "", fmt.Errorf("insert session: %w", err)
	}
	return id, nil
}

// Load fetches a session by id.
func (r *PostgresStore) Load(ctx context.Context, id string) (*Session, error) {
	if !ValidID(id) {
		return nil, ErrNotFound
	}
	var raw []byte
	err := r.db.QueryRow(ctx,
		`SELECT record FROM sessions WHERE id = $1`,
		id,
	).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session by id: %w", err)
	}
	sess := &Session{}
	if err := json.Unmarshal(raw, sess); err != nil {
		return nil, fmt.Errorf("%w: corrupt record %s", ErrNotFound, id)
	}
	sess.ID = id
	return sess, nil
}
