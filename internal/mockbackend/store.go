package mockbackend

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hugo-lorenzo-mato/welfare-chat/internal/core"
	"github.com/hugo-lorenzo-mato/welfare-chat/internal/protocol"
)

//go:embed migrations/001_feedback.sql
var feedbackMigrationV1 string

// FeedbackRecord is one stored feedback row.
type FeedbackRecord struct {
	ID          int64
	JobID       string
	Question    string
	Answer      string
	Rating      string
	Reason      string
	Comment     string
	ChatHistory string
	CreatedAt   time.Time
}

// FeedbackStore persists feedback in SQLite.
type FeedbackStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenFeedbackStore opens (and migrates) the database at path. An empty
// path keeps everything in memory.
func OpenFeedbackStore(path string) (*FeedbackStore, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	if path == "" {
		dsn = ":memory:"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening feedback database: %w", err)
	}
	// A single writer; also keeps ":memory:" on one connection.
	db.SetMaxOpenConns(1)

	s := &FeedbackStore{db: db, now: time.Now}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

func (s *FeedbackStore) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS feedback_schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	var current int
	if err := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM feedback_schema_migrations").Scan(&current); err != nil {
		return fmt.Errorf("checking schema version: %w", err)
	}

	for i, migration := range []string{feedbackMigrationV1} {
		version := i + 1
		if version <= current {
			continue
		}
		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("beginning migration transaction: %w", err)
		}
		for _, stmt := range splitStatements(migration) {
			if _, err := tx.Exec(stmt); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("executing migration v%d: %w", version, err)
			}
		}
		if _, err := tx.Exec(
			"INSERT INTO feedback_schema_migrations (version, applied_at) VALUES (?, ?)",
			version, s.now().UTC().Format(time.RFC3339),
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("recording migration v%d: %w", version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("committing migration v%d: %w", version, err)
		}
	}
	return nil
}

// splitStatements splits a SQL script into statements, dropping comment lines.
func splitStatements(script string) []string {
	var out []string
	for _, stmt := range strings.Split(script, ";") {
		var lines []string
		for _, line := range strings.Split(stmt, "\n") {
			t := strings.TrimSpace(line)
			if t != "" && !strings.HasPrefix(t, "--") {
				lines = append(lines, line)
			}
		}
		if len(lines) > 0 {
			out = append(out, strings.Join(lines, "\n"))
		}
	}
	return out
}

// Save validates and stores a feedback submission.
func (s *FeedbackStore) Save(ctx context.Context, req protocol.FeedbackRequest) (int64, error) {
	if req.Feedback != core.RatingPositive && req.Feedback != core.RatingNegative {
		return 0, core.ErrValidation("INVALID_RATING", fmt.Sprintf("feedback must be %s or %s", core.RatingPositive, core.RatingNegative))
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO feedback (job_id, question, answer, rating, reason, comment, chat_history, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		req.JobID, req.Question, req.Answer, req.Feedback, req.Reason, req.Comment, req.ChatHistory,
		s.now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting feedback: %w", err)
	}
	return res.LastInsertId()
}

// List returns the most recent records, newest first.
func (s *FeedbackStore) List(ctx context.Context, limit int) ([]FeedbackRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_id, question, answer, rating, reason, comment, chat_history, created_at
		 FROM feedback ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying feedback: %w", err)
	}
	defer rows.Close()

	var out []FeedbackRecord
	for rows.Next() {
		var r FeedbackRecord
		var created string
		if err := rows.Scan(&r.ID, &r.JobID, &r.Question, &r.Answer, &r.Rating, &r.Reason, &r.Comment, &r.ChatHistory, &created); err != nil {
			return nil, fmt.Errorf("scanning feedback: %w", err)
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, created)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Count returns the number of stored records per rating.
func (s *FeedbackStore) Count(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT rating, COUNT(*) FROM feedback GROUP BY rating")
	if err != nil {
		return nil, fmt.Errorf("counting feedback: %w", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var rating string
		var n int
		if err := rows.Scan(&rating, &n); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		out[rating] = n
	}
	return out, rows.Err()
}

// Close releases the database.
func (s *FeedbackStore) Close() error {
	return s.db.Close()
}
