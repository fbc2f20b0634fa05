// Package archive mirrors collected comments into a sqlite (or remote libsql)
// database. It is append-only like the comment table.
package archive

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"weibo-analysis/internal/comments"
	"weibo-analysis/pkg/timezone"

	"github.com/pressly/goose/v3"
	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// goose keeps its configuration in globals
var gooseLock sync.Mutex

func migrate(db *sql.DB) error {
	gooseLock.Lock()
	defer gooseLock.Unlock()

	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	err := goose.SetDialect("sqlite3")
	if err != nil {
		return err
	}
	return goose.Up(db, "migrations")
}

func isRemote(dsn string) bool {
	for _, prefix := range []string{"libsql://", "https://", "http://", "wss://", "ws://"} {
		if strings.HasPrefix(dsn, prefix) {
			return true
		}
	}
	return false
}

type Store struct {
	db *sql.DB
}

// Open opens the archive at `dsn` and brings its schema up to date. A dsn
// with a libsql/http(s)/ws(s) scheme is opened with the libsql client,
// anything else is treated as a local sqlite file (or `:memory:`).
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("archive dsn is empty")
	}

	var db *sql.DB
	var err error
	if isRemote(dsn) {
		db, err = sql.Open("libsql", dsn)
		if err != nil {
			return nil, err
		}
	} else {
		if dsn != ":memory:" {
			err = os.MkdirAll(filepath.Dir(dsn), 0777)
			if err != nil {
				return nil, err
			}
		}
		db, err = sql.Open("sqlite", dsn)
		if err != nil {
			return nil, err
		}
		// a single connection keeps `:memory:` databases alive and avoids
		// SQLITE_BUSY on files.
		db.SetMaxOpenConns(1)
		_, err = db.ExecContext(ctx, "PRAGMA journal_mode=WAL")
		if err != nil {
			db.Close()
			return nil, err
		}
	}

	err = db.PingContext(ctx)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connect archive: %w", err)
	}
	err = migrate(db)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate archive: %w", err)
	}

	return &Store{db: db}, nil
}

const insertComment = `
insert or ignore into comments (run_id, comment_id, author_handle, text, timestamp, like_count, inserted_at)
values (?, ?, ?, ?, ?, ?, ?)`

// Insert stores one page of rows in a single transaction, inserting rows
// that are already present for the same run is a no-op.
func (s *Store) Insert(ctx context.Context, runID string, rows []comments.Comment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, insertComment)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := timezone.Now().Format("2006-01-02T15:04:05.000Z07:00")
	for _, c := range rows {
		var likes sql.NullInt64
		if c.LikeCount != nil {
			likes = sql.NullInt64{Int64: int64(*c.LikeCount), Valid: true}
		}
		_, err = stmt.ExecContext(ctx, runID, c.ID, c.Author, c.Text, c.Timestamp, likes, now)
		if err != nil {
			return fmt.Errorf("insert comment %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// Count returns the number of archived rows across every run.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "select count(*) from comments").Scan(&n)
	return n, err
}

// DistinctComments returns the number of distinct comment ids across every run.
func (s *Store) DistinctComments(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "select count(distinct comment_id) from comments").Scan(&n)
	return n, err
}

func (s *Store) Close() error {
	return s.db.Close()
}
