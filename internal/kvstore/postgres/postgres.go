// Package postgres backs the kvstore contract with a single jsonb document
// table. Change events ride LISTEN/NOTIFY on a dedicated connection.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib"

	"restodash/backend/internal/kvstore"
	"restodash/backend/internal/xid"
)

const notifyChannel = "restodash_kv_changes"

type Store struct {
	db          *sql.DB
	databaseURL string
	origin      string
}

var _ kvstore.Store = (*Store)(nil)

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &Store{db: db, databaseURL: databaseURL, origin: xid.New("kv")}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS kv_documents (
			key        text PRIMARY KEY,
			value      jsonb NOT NULL,
			updated_at timestamptz NOT NULL DEFAULT now()
		)
	`)
	return err
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM kv_documents WHERE key = $1
	`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, kvstore.ErrNotFound
		}
		return nil, err
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_documents (key, value, updated_at)
		VALUES ($1, $2::jsonb, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
	`, key, value)
	if err != nil {
		return err
	}
	return s.notify(ctx, key)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM kv_documents WHERE key = $1`, key)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil
	}
	return s.notify(ctx, key)
}

func (s *Store) notify(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `SELECT pg_notify($1, $2)`, notifyChannel, s.origin+"|"+key)
	return err
}

func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key FROM kv_documents WHERE key LIKE $1 || '%'
	`, escapeLike(prefix))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]string, 0, 16)
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Watch opens a dedicated LISTEN connection and streams change events until
// the context ends. The connection is re-established on failure.
func (s *Store) Watch(ctx context.Context) (<-chan kvstore.Event, error) {
	out := make(chan kvstore.Event)
	go func() {
		defer close(out)
		for ctx.Err() == nil {
			if err := s.listenOnce(ctx, out); err != nil && ctx.Err() == nil {
				select {
				case <-time.After(3 * time.Second):
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (s *Store) listenOnce(ctx context.Context, out chan<- kvstore.Event) error {
	conn, err := pgx.Connect(ctx, s.databaseURL)
	if err != nil {
		return err
	}
	defer conn.Close(context.Background())

	if _, err := conn.Exec(ctx, "LISTEN "+notifyChannel); err != nil {
		return err
	}
	for {
		notification, err := conn.WaitForNotification(ctx)
		if err != nil {
			return err
		}
		origin, key, found := strings.Cut(notification.Payload, "|")
		if !found || origin == s.origin {
			continue
		}
		select {
		case out <- kvstore.Event{Key: key}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Store) Close(context.Context) error {
	return s.db.Close()
}
