package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

type PeerKind string

const (
	PeerUser    PeerKind = "user"
	PeerChannel PeerKind = "channel" // каналы и супергруппы
	PeerChat    PeerKind = "chat"    // обычные группы, access_hash не нужен
)

// Peer: то, что нужно MTProto, чтобы обратиться к объекту по числовому id.
type Peer struct {
	Kind       PeerKind
	ID         int64
	AccessHash int64
	Username   string
	Title      string
	UpdatedAt  time.Time
}

type Store interface {
	SavePeers(ctx context.Context, peers []Peer) error
	PeerByID(ctx context.Context, kind PeerKind, id int64) (Peer, bool, error)
	PeerByUsername(ctx context.Context, username string) (Peer, bool, error)
	Close() error
}

type SQLiteConfig struct {
	Path           string
	BusyTimeout    time.Duration
	JournalModeWAL bool
}

type SQLite struct {
	cfg SQLiteConfig
	db  *sql.DB
}

func NewSQLite(cfg SQLiteConfig) (*SQLite, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite: path is required")
	}
	if cfg.BusyTimeout <= 0 {
		cfg.BusyTimeout = 5 * time.Second
	}

	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: mkdir data dir: %w", err)
		}
	}

	pragma := ""
	if cfg.JournalModeWAL {
		pragma += "&_pragma=journal_mode(WAL)"
	}
	pragma += fmt.Sprintf("&_pragma=busy_timeout(%d)", cfg.BusyTimeout.Milliseconds())
	dsn := fmt.Sprintf("file:%s?cache=shared%s", cfg.Path, pragma)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLite{cfg: cfg, db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLite) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) migrate() error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS peers (
			kind            TEXT    NOT NULL,
			id              INTEGER NOT NULL,
			access_hash     INTEGER NOT NULL,
			username        TEXT    NOT NULL DEFAULT '',
			title           TEXT    NOT NULL DEFAULT '',
			updated_at_unix INTEGER NOT NULL,
			PRIMARY KEY (kind, id)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_peers_username ON peers(username);`,
	}

	for _, q := range ddl {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("sqlite migrate: %w", err)
		}
	}
	return nil
}

// SavePeers: upsert пачкой в одной транзакции. Пустой access_hash не затирает
// уже известный (min-объекты из истории приходят без него).
func (s *SQLite) SavePeers(ctx context.Context, peers []Peer) error {
	if s == nil || s.db == nil {
		return errors.New("sqlite: db is nil")
	}
	if len(peers) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO peers (kind, id, access_hash, username, title, updated_at_unix)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(kind, id) DO UPDATE SET
			access_hash     = CASE WHEN excluded.access_hash != 0 THEN excluded.access_hash ELSE peers.access_hash END,
			username        = CASE WHEN excluded.username != '' THEN excluded.username ELSE peers.username END,
			title           = CASE WHEN excluded.title != '' THEN excluded.title ELSE peers.title END,
			updated_at_unix = excluded.updated_at_unix;
	`)
	if err != nil {
		return fmt.Errorf("sqlite prepare upsert peer: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Unix()
	for _, p := range peers {
		if p.Kind == "" || p.ID == 0 {
			continue
		}
		username := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(p.Username), "@"))
		if _, err := stmt.ExecContext(ctx, string(p.Kind), p.ID, p.AccessHash, username, p.Title, now); err != nil {
			return fmt.Errorf("sqlite upsert peer %s/%d: %w", p.Kind, p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite commit: %w", err)
	}
	return nil
}

func (s *SQLite) PeerByID(ctx context.Context, kind PeerKind, id int64) (Peer, bool, error) {
	if s == nil || s.db == nil {
		return Peer{}, false, errors.New("sqlite: db is nil")
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT kind, id, access_hash, username, title, updated_at_unix
		FROM peers
		WHERE kind = ? AND id = ?;
	`, string(kind), id)
	return scanPeer(row)
}

// PeerByUsername: без учета регистра и "@". Самая свежая запись, если
// username переехал на другой объект.
func (s *SQLite) PeerByUsername(ctx context.Context, username string) (Peer, bool, error) {
	if s == nil || s.db == nil {
		return Peer{}, false, errors.New("sqlite: db is nil")
	}
	username = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(username), "@"))
	if username == "" {
		return Peer{}, false, errors.New("sqlite: username is required")
	}
	row := s.db.QueryRowContext(ctx, `
		SELECT kind, id, access_hash, username, title, updated_at_unix
		FROM peers
		WHERE username = ?
		ORDER BY updated_at_unix DESC
		LIMIT 1;
	`, username)
	return scanPeer(row)
}

func scanPeer(row *sql.Row) (Peer, bool, error) {
	var (
		p       Peer
		kind    string
		updated int64
	)
	err := row.Scan(&kind, &p.ID, &p.AccessHash, &p.Username, &p.Title, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Peer{}, false, nil
		}
		return Peer{}, false, fmt.Errorf("sqlite get peer: %w", err)
	}
	p.Kind = PeerKind(kind)
	p.UpdatedAt = time.Unix(updated, 0).UTC()
	return p, true, nil
}
