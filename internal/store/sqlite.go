package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hyperengineering/protrack/internal/types"
	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// Compile-time interface check
var _ Store = (*SQLiteStore)(nil)

// SQLiteStore represents the SQLite-backed roadmap database.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore creates a new SQLiteStore instance.
// It initializes the database with WAL mode, applies pragmas, and runs migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Each connection to :memory: is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if err := enablePragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable pragmas: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// enablePragmas sets SQLite pragmas for optimal performance and safety.
func enablePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=NORMAL",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateRoadmap inserts a new roadmap with its tasks and history. It assigns
// the roadmap id, createdAt and any missing task or history ids in place.
func (s *SQLiteStore) CreateRoadmap(ctx context.Context, r *types.Roadmap) error {
	if r.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidRoadmap)
	}

	now := s.now().UTC()
	r.ID = ulid.Make().String()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	if len(r.FormData) == 0 {
		r.FormData = json.RawMessage(`{}`)
	}
	if r.DailyTasks == nil {
		r.DailyTasks = []types.DailyTask{}
	}
	if r.ChatbotHistory == nil {
		r.ChatbotHistory = []types.HistoryEntry{}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO roadmaps (id, user_id, category, title, description, form_data, total_days, start_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, r.ID, r.UserID, string(r.Category), r.Title, r.Description, string(r.FormData), r.TotalDays,
		r.StartDate.String(), formatTime(r.CreatedAt), formatTime(now))
	if err != nil {
		return fmt.Errorf("insert roadmap: %w", err)
	}

	if err := insertTasks(ctx, tx, r); err != nil {
		return err
	}
	if err := insertHistory(ctx, tx, r, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// SaveRoadmap writes the whole aggregate back in one transaction. Category,
// form data and start date are immutable and never rewritten. History entries
// that are already stored are left untouched.
func (s *SQLiteStore) SaveRoadmap(ctx context.Context, r *types.Roadmap) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := s.now().UTC()
	result, err := tx.ExecContext(ctx, `
		UPDATE roadmaps
		SET title = ?, description = ?, total_days = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, r.Title, r.Description, r.TotalDays, formatTime(now), r.ID, r.UserID)
	if err != nil {
		return fmt.Errorf("update roadmap: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM daily_tasks WHERE roadmap_id = ?`, r.ID); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}
	if err := insertTasks(ctx, tx, r); err != nil {
		return err
	}
	if err := insertHistory(ctx, tx, r, now); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func insertTasks(ctx context.Context, tx *sql.Tx, r *types.Roadmap) error {
	if len(r.DailyTasks) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO daily_tasks (id, roadmap_id, position, day, date, title, description, completed, reminder_sent)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := range r.DailyTasks {
		t := &r.DailyTasks[i]
		if t.ID == "" {
			t.ID = ulid.Make().String()
		}
		_, err := stmt.ExecContext(ctx, t.ID, r.ID, i, t.Day, t.Date.String(), t.Title, t.Description,
			boolToInt(t.Completed), boolToInt(t.ReminderSent))
		if err != nil {
			return fmt.Errorf("insert task: %w", err)
		}
	}
	return nil
}

func insertHistory(ctx context.Context, tx *sql.Tx, r *types.Roadmap, now time.Time) error {
	if len(r.ChatbotHistory) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO chatbot_history (id, roadmap_id, seq, action, data, response, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := range r.ChatbotHistory {
		h := &r.ChatbotHistory[i]
		if h.ID == "" {
			h.ID = ulid.Make().String()
		}
		if h.Request.Data == nil {
			h.Request.Data = map[string]any{}
		}
		if h.Timestamp.IsZero() {
			h.Timestamp = now
		}
		data, err := json.Marshal(h.Request.Data)
		if err != nil {
			return fmt.Errorf("marshal history data: %w", err)
		}
		_, err = stmt.ExecContext(ctx, h.ID, r.ID, i, h.Request.Action, string(data), h.Response, formatTime(h.Timestamp))
		if err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
	}
	return nil
}

// GetRoadmap loads one roadmap owned by userID.
func (s *SQLiteStore) GetRoadmap(ctx context.Context, userID, id string) (*types.Roadmap, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, category, title, description, form_data, total_days, start_date, created_at
		FROM roadmaps
		WHERE id = ? AND user_id = ?
	`, id, userID)

	r, err := scanRoadmap(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan row: %w", err)
	}

	if err := s.loadChildren(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// ListRoadmaps returns the user's roadmaps, oldest first. An empty category
// matches all of them. The result is never nil.
func (s *SQLiteStore) ListRoadmaps(ctx context.Context, userID string, c types.Category) ([]types.Roadmap, error) {
	query := `
		SELECT id, user_id, category, title, description, form_data, total_days, start_date, created_at
		FROM roadmaps
		WHERE user_id = ?`
	args := []any{userID}
	if c != "" {
		query += ` AND category = ?`
		args = append(args, string(c))
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query roadmaps: %w", err)
	}

	roadmaps := []types.Roadmap{}
	for rows.Next() {
		r, err := scanRoadmap(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan row: %w", err)
		}
		roadmaps = append(roadmaps, *r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	rows.Close()

	for i := range roadmaps {
		if err := s.loadChildren(ctx, &roadmaps[i]); err != nil {
			return nil, err
		}
	}
	return roadmaps, nil
}

func (s *SQLiteStore) loadChildren(ctx context.Context, r *types.Roadmap) error {
	tasks, err := s.loadTasks(ctx, r.ID)
	if err != nil {
		return err
	}
	history, err := s.loadHistory(ctx, r.ID)
	if err != nil {
		return err
	}
	r.DailyTasks = tasks
	r.ChatbotHistory = history
	return nil
}

func (s *SQLiteStore) loadTasks(ctx context.Context, roadmapID string) ([]types.DailyTask, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, day, date, title, description, completed, reminder_sent
		FROM daily_tasks
		WHERE roadmap_id = ?
		ORDER BY position ASC
	`, roadmapID)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []types.DailyTask{}
	for rows.Next() {
		var t types.DailyTask
		var date string
		var completed, reminderSent int
		if err := rows.Scan(&t.ID, &t.Day, &date, &t.Title, &t.Description, &completed, &reminderSent); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		if t.Date, err = parseDate(date); err != nil {
			return nil, err
		}
		t.Completed = completed != 0
		t.ReminderSent = reminderSent != 0
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	return tasks, nil
}

func (s *SQLiteStore) loadHistory(ctx context.Context, roadmapID string) ([]types.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, action, data, response, created_at
		FROM chatbot_history
		WHERE roadmap_id = ?
		ORDER BY seq ASC
	`, roadmapID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	history := []types.HistoryEntry{}
	for rows.Next() {
		var h types.HistoryEntry
		var data, createdAt string
		if err := rows.Scan(&h.ID, &h.Request.Action, &data, &h.Response, &createdAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if err := json.Unmarshal([]byte(data), &h.Request.Data); err != nil {
			return nil, fmt.Errorf("parse history data: %w", err)
		}
		if h.Request.Data == nil {
			h.Request.Data = map[string]any{}
		}
		h.Timestamp = parseTime(createdAt)
		history = append(history, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return history, nil
}

// DueReminders returns incomplete, not yet reminded tasks dated on date.
func (s *SQLiteStore) DueReminders(ctx context.Context, date types.Date) ([]types.DueReminder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, r.id, r.user_id, r.title, t.day, t.date, t.title
		FROM daily_tasks t
		JOIN roadmaps r ON r.id = t.roadmap_id
		WHERE t.date = ? AND t.completed = 0 AND t.reminder_sent = 0
		ORDER BY r.user_id ASC, r.id ASC, t.position ASC
	`, date.String())
	if err != nil {
		return nil, fmt.Errorf("query due reminders: %w", err)
	}
	defer rows.Close()

	due := []types.DueReminder{}
	for rows.Next() {
		var d types.DueReminder
		var taskDate string
		if err := rows.Scan(&d.TaskID, &d.RoadmapID, &d.UserID, &d.RoadmapTitle, &d.Day, &taskDate, &d.Title); err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		if d.Date, err = parseDate(taskDate); err != nil {
			return nil, err
		}
		due = append(due, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reminders: %w", err)
	}
	return due, nil
}

// MarkRemindersSent flags the given tasks as reminded and returns how many
// rows changed.
func (s *SQLiteStore) MarkRemindersSent(ctx context.Context, taskIDs []string) (int64, error) {
	if len(taskIDs) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `UPDATE daily_tasks SET reminder_sent = 1 WHERE id = ? AND reminder_sent = 0`)
	if err != nil {
		return 0, fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	var total int64
	for _, id := range taskIDs {
		result, err := stmt.ExecContext(ctx, id)
		if err != nil {
			return 0, fmt.Errorf("mark reminder: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("get rows affected: %w", err)
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return total, nil
}

// GetStats returns aggregate store statistics
func (s *SQLiteStore) GetStats(ctx context.Context) (*types.StoreStats, error) {
	var stats types.StoreStats
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM roadmaps").Scan(&stats.RoadmapCount); err != nil {
		return nil, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM daily_tasks").Scan(&stats.TaskCount); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Backup writes a consistent copy of the database to destPath, which must
// not exist yet.
func (s *SQLiteStore) Backup(ctx context.Context, destPath string) error {
	if _, err := os.Stat(destPath); err == nil {
		return fmt.Errorf("backup destination %s already exists", destPath)
	}
	if _, err := s.db.ExecContext(ctx, "VACUUM INTO ?", destPath); err != nil {
		return fmt.Errorf("vacuum into %s: %w", destPath, err)
	}
	return nil
}

// scanRoadmap scans a roadmap row without its tasks or history.
func scanRoadmap(scanner interface{ Scan(...any) error }) (*types.Roadmap, error) {
	var r types.Roadmap
	var category, formData, startDate, createdAt string

	err := scanner.Scan(
		&r.ID,
		&r.UserID,
		&category,
		&r.Title,
		&r.Description,
		&formData,
		&r.TotalDays,
		&startDate,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	r.Category = types.Category(category)
	r.FormData = json.RawMessage(formData)
	if r.StartDate, err = parseDate(startDate); err != nil {
		return nil, err
	}
	r.CreatedAt = parseTime(createdAt)
	return &r, nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func parseDate(s string) (types.Date, error) {
	if s == "" {
		return types.Date{}, nil
	}
	d, err := types.ParseDate(s)
	if err != nil {
		return types.Date{}, fmt.Errorf("parse stored date: %w", err)
	}
	return d, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
