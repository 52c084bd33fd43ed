// Package postgres provides a StateStore on PostgreSQL, one JSONB row per graph.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
	_ "github.com/lib/pq"
)

// DefaultTable holds the snapshots.
const DefaultTable = "tendril_node_state"

var tableName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Store implements ports.StateStore using PostgreSQL.
type Store struct {
	db    *sql.DB
	table string
}

// Option configures a Store.
type Option func(*Store)

// WithTable overrides the table name. An empty name keeps DefaultTable.
func WithTable(name string) Option {
	return func(s *Store) {
		if name != "" {
			s.table = name
		}
	}
}

// Open connects to dsn, verifies the connection and ensures the table exists.
func Open(ctx context.Context, dsn string, opts ...Option) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	store, err := New(ctx, db, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// New wraps an existing database handle and ensures the table exists.
func New(ctx context.Context, db *sql.DB, opts ...Option) (*Store, error) {
	s := &Store{db: db, table: DefaultTable}
	for _, opt := range opts {
		opt(s)
	}
	if !tableName.MatchString(s.table) {
		return nil, fmt.Errorf("invalid table name %q", s.table)
	}
	if err := s.createTable(ctx); err != nil {
		return nil, fmt.Errorf("failed to create state table: %w", err)
	}
	return s, nil
}

func (s *Store) createTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			graph    TEXT PRIMARY KEY,
			nodes    JSONB NOT NULL,
			saved_at TIMESTAMPTZ NOT NULL
		)`, s.table)
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// Save upserts the snapshot.
func (s *Store) Save(ctx context.Context, graph string, snapshot *domain.StateSnapshot) error {
	nodes, err := json.Marshal(snapshot.Nodes)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	savedAt := snapshot.SavedAt
	if savedAt.IsZero() {
		savedAt = time.Now()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (graph, nodes, saved_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (graph) DO UPDATE SET nodes = EXCLUDED.nodes, saved_at = EXCLUDED.saved_at
	`, s.table)
	if _, err := s.db.ExecContext(ctx, query, graph, nodes, savedAt); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// Load retrieves the snapshot.
func (s *Store) Load(ctx context.Context, graph string) (*domain.StateSnapshot, error) {
	query := fmt.Sprintf(`SELECT nodes, saved_at FROM %s WHERE graph = $1`, s.table)

	var (
		raw     []byte
		savedAt time.Time
	)
	if err := s.db.QueryRowContext(ctx, query, graph).Scan(&raw, &savedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrStateNotFound
		}
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}

	snap := &domain.StateSnapshot{Graph: graph, SavedAt: savedAt}
	if err := json.Unmarshal(raw, &snap.Nodes); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	if snap.Nodes == nil {
		snap.Nodes = make(map[string]domain.NodeState)
	}
	return snap, nil
}

// Delete removes the snapshot.
func (s *Store) Delete(ctx context.Context, graph string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE graph = $1`, s.table)
	_, err := s.db.ExecContext(ctx, query, graph)
	return err
}

// List returns the graphs with a stored snapshot.
func (s *Store) List(ctx context.Context) ([]string, error) {
	query := fmt.Sprintf(`SELECT graph FROM %s ORDER BY graph`, s.table)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	var graphs []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, err
		}
		graphs = append(graphs, g)
	}
	return graphs, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
