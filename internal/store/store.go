package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danhoran/volpulse/pkg/dashboard"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Run is one archived dashboard run. The archive is write-behind history
// for the history command and the runs API; it is never read back to serve
// a dashboard, which always recomputes from scratch.
type Run struct {
	ID                 string    `db:"id" json:"id"`
	Scope              string    `db:"scope" json:"scope"`
	GeneratedAt        time.Time `db:"generated_at" json:"generated_at"`
	TotalEvents        int       `db:"total_events" json:"total_events"`
	PendingEvents      int       `db:"pending_events" json:"pending_events"`
	TotalPosts         int       `db:"total_posts" json:"total_posts"`
	TopHotScore        int       `db:"top_hot_score" json:"top_hot_score"`
	MaxAttractiveScore int       `db:"max_attractive_score" json:"max_attractive_score"`
	ViewJSON           string    `db:"view" json:"-"`

	View *dashboard.ViewModel `db:"-" json:"view,omitempty"`
}

// ListOpts controls run listing.
type ListOpts struct {
	Scope string
	Since time.Time
	Limit int
}

// Store is the archive interface.
type Store interface {
	SaveRun(ctx context.Context, vm *dashboard.ViewModel) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, opts ListOpts) ([]Run, error)
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sqlx.DB
}

// New opens a SQLite database and runs migrations.
func New(path string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, vm *dashboard.ViewModel) error {
	view, err := json.Marshal(vm)
	if err != nil {
		return fmt.Errorf("marshal run %s: %w", vm.RunID, err)
	}

	topHot := 0
	if len(vm.TopDiscussions) > 0 {
		topHot = vm.TopDiscussions[0].HotScore
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, scope, generated_at, total_events, pending_events, total_posts, top_hot_score, max_attractive_score, view)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, vm.RunID, vm.Scope, vm.GeneratedAt, vm.Summary.TotalEvents,
		vm.Summary.PendingEvents, vm.Summary.TotalPosts, topHot,
		vm.MaxAttractiveScore, string(view))
	if err != nil {
		return fmt.Errorf("insert run %s: %w", vm.RunID, err)
	}
	return nil
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	var run Run
	err := s.db.GetContext(ctx, &run, "SELECT * FROM runs WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(run.ViewJSON), &run.View); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", id, err)
	}
	return &run, nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, opts ListOpts) ([]Run, error) {
	query := "SELECT * FROM runs WHERE 1=1"
	var args []any

	if opts.Scope != "" {
		query += " AND scope = ?"
		args = append(args, opts.Scope)
	}
	if !opts.Since.IsZero() {
		query += " AND generated_at >= ?"
		args = append(args, opts.Since)
	}

	query += " ORDER BY generated_at DESC"

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ?"
	args = append(args, limit)

	var runs []Run
	if err := s.db.SelectContext(ctx, &runs, query, args...); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}
