// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/verte-zerg/tuidice/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout is fixed width so stored timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// maxBatch bounds the number of ids bound in one IN clause, well below
// SQLite's host parameter limit.
var maxBatch = 500

// Store wraps SQLite access for widget state and roll history.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS widget_state (
			instance TEXT NOT NULL,
			key TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (instance, key)
		);`,
		`CREATE TABLE IF NOT EXISTS rolls (
			id INTEGER PRIMARY KEY,
			instance TEXT NOT NULL,
			user_name TEXT NOT NULL,
			raw TEXT NOT NULL,
			dice_count INTEGER NOT NULL,
			kind TEXT NOT NULL,
			faces INTEGER NOT NULL,
			modifier INTEGER NOT NULL,
			aggregate INTEGER NOT NULL,
			rolled_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS roll_values (
			roll_id INTEGER NOT NULL,
			idx INTEGER NOT NULL,
			value INTEGER NOT NULL,
			PRIMARY KEY (roll_id, idx)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_rolls_rolled_at ON rolls(rolled_at);`,
		`CREATE INDEX IF NOT EXISTS idx_rolls_instance ON rolls(instance);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// GetState returns the value stored under key for a widget instance.
func (s *Store) GetState(ctx context.Context, instance, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM widget_state WHERE instance = ? AND key = ?`, instance, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// SetState stores value under key for a widget instance.
func (s *Store) SetState(ctx context.Context, instance, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO widget_state (instance, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(instance, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		instance, key, value, formatTime(time.Now()))
	return err
}

// ClearState removes every slot of a widget instance.
func (s *Store) ClearState(ctx context.Context, instance string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM widget_state WHERE instance = ?`, instance)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Scope returns the state slots of one widget instance.
func (s *Store) Scope(instance string) *Scoped {
	return &Scoped{store: s, instance: instance}
}

// Scoped is a key-value view of widget_state for a single instance.
type Scoped struct {
	store    *Store
	instance string
}

// Get returns the value stored under key.
func (s *Scoped) Get(ctx context.Context, key string) (string, bool, error) {
	return s.store.GetState(ctx, s.instance, key)
}

// Set stores value under key.
func (s *Scoped) Set(ctx context.Context, key, value string) error {
	return s.store.SetState(ctx, s.instance, key, value)
}

// InsertRoll stores a completed roll and its individual die values.
func (s *Store) InsertRoll(ctx context.Context, rec model.RollRecord) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO rolls (instance, user_name, raw, dice_count, kind, faces, modifier, aggregate, rolled_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.Instance,
		rec.User,
		rec.Raw,
		rec.Count,
		rec.Kind,
		rec.Faces,
		rec.Modifier,
		rec.Aggregate,
		formatTime(rec.RolledAt),
	)
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	if len(rec.Values) > 0 {
		stmt, perr := tx.PrepareContext(ctx, `INSERT INTO roll_values (roll_id, idx, value) VALUES (?, ?, ?)`)
		if perr != nil {
			err = perr
			return 0, err
		}
		defer func() {
			if cerr := stmt.Close(); cerr != nil {
				// Best-effort statement close.
				_ = cerr
			}
		}()
		for i, v := range rec.Values {
			if _, err = stmt.ExecContext(ctx, id, i, v); err != nil {
				return 0, err
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return id, nil
}

// ListRolls returns rolls filtered by the history config, oldest first.
// When cfg.Last is positive only the most recent Last rolls are returned.
func (s *Store) ListRolls(ctx context.Context, cfg model.HistoryConfig) ([]model.RollRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Instance != "" {
		clauses = append(clauses, "instance = ?")
		args = append(args, cfg.Instance)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "rolled_at >= ?")
		args = append(args, formatTime(*cfg.Since))
	}
	query := fmt.Sprintf(`SELECT id, instance, user_name, raw, dice_count, kind, faces, modifier, aggregate, rolled_at
		FROM rolls
		WHERE %s
		ORDER BY rolled_at DESC, id DESC`, strings.Join(clauses, " AND "))
	if cfg.Last > 0 {
		query += " LIMIT ?"
		args = append(args, cfg.Last)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var rolls []model.RollRecord
	for rows.Next() {
		var rec model.RollRecord
		var rolledAt string
		if err := rows.Scan(&rec.ID, &rec.Instance, &rec.User, &rec.Raw, &rec.Count, &rec.Kind, &rec.Faces, &rec.Modifier, &rec.Aggregate, &rolledAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, rolledAt)
		if err != nil {
			return nil, err
		}
		rec.RolledAt = parsed
		rec.Values = []int{}
		rolls = append(rolls, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	slices.Reverse(rolls)
	if err := s.attachValues(ctx, rolls); err != nil {
		return nil, err
	}
	return rolls, nil
}

func (s *Store) attachValues(ctx context.Context, rolls []model.RollRecord) error {
	if len(rolls) == 0 {
		return nil
	}
	index := make(map[int64]int, len(rolls))
	ids := make([]int64, len(rolls))
	for i, r := range rolls {
		index[r.ID] = i
		ids[i] = r.ID
	}
	return forEachBatch(ids, func(batch []int64) error {
		placeholders, args := inClause(batch)
		query := fmt.Sprintf(`SELECT roll_id, value FROM roll_values
			WHERE roll_id IN (%s)
			ORDER BY roll_id, idx`, placeholders)
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := rows.Close(); cerr != nil {
				// Best-effort rows close.
				_ = cerr
			}
		}()
		for rows.Next() {
			var rollID int64
			var value int
			if err := rows.Scan(&rollID, &value); err != nil {
				return err
			}
			if i, ok := index[rollID]; ok {
				rolls[i].Values = append(rolls[i].Values, value)
			}
		}
		return rows.Err()
	})
}

// ListValueCountsForRolls counts die values per die type across rolls,
// ordered by die label then value.
func (s *Store) ListValueCountsForRolls(ctx context.Context, rollIDs []int64) ([]model.ValueAggregate, error) {
	if len(rollIDs) == 0 {
		return nil, nil
	}
	type dieValue struct {
		die   string
		value int
	}
	counts := map[dieValue]int{}
	err := forEachBatch(rollIDs, func(batch []int64) error {
		placeholders, args := inClause(batch)
		query := fmt.Sprintf(`SELECT CASE WHEN r.kind = 'df' THEN 'dF' ELSE 'd' || r.faces END AS die,
			v.value, COUNT(*) AS n
			FROM roll_values v
			JOIN rolls r ON r.id = v.roll_id
			WHERE v.roll_id IN (%s)
			GROUP BY die, v.value`, placeholders)
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := rows.Close(); cerr != nil {
				// Best-effort rows close.
				_ = cerr
			}
		}()
		for rows.Next() {
			var key dieValue
			var n int
			if err := rows.Scan(&key.die, &key.value, &n); err != nil {
				return err
			}
			counts[key] += n
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	result := make([]model.ValueAggregate, 0, len(counts))
	for key, n := range counts {
		result = append(result, model.ValueAggregate{Die: key.die, Value: key.value, Count: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Die != result[j].Die {
			return result[i].Die < result[j].Die
		}
		return result[i].Value < result[j].Value
	})
	return result, nil
}

func forEachBatch(ids []int64, fn func([]int64) error) error {
	for start := 0; start < len(ids); start += maxBatch {
		end := min(start+maxBatch, len(ids))
		if err := fn(ids[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func inClause(ids []int64) (string, []any) {
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	return strings.Join(placeholders, ","), args
}
