// Package pg mirrors per-transfer statistics into Postgres for fleet-wide
// querying, the optional companion to internal/logsink's flat-file
// statistics record. It follows the teacher's pgx/v5 stdlib-driver,
// database/sql pattern rather than pgxpool, since the core submits at
// process-lifetime scale, not connection-pooled request scale.
package pg

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Store mirrors transfer statistics rows into the transfer_stats table
// created by migrations/000001_create_transfer_stats.up.sql.
type Store struct {
	db *sql.DB
}

// Open connects to Postgres using dsn (from config.PostgresDSN, never
// persisted in the JSON5 config file).
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("statsdb: open: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("statsdb: ping: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Record inserts one transfer statistics row.
func (s *Store) Record(ctx context.Context, user, peerHost string, sent, succeeded bool, bytes, secs, micros, rateBPS int64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transfer_stats (submit_user, peer_host, sent, succeeded, bytes, secs, micros, rate_bps)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user, peerHost, sent, succeeded, bytes, secs, micros, rateBPS,
	)
	if err != nil {
		return fmt.Errorf("statsdb: record: %w", err)
	}
	return nil
}

// RecentForHost returns the most recent transfer rows for peerHost, most
// recent first, capped at limit.
func (s *Store) RecentForHost(ctx context.Context, peerHost string, limit int) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT submit_user, peer_host, sent, succeeded, bytes, secs, micros, rate_bps, occurred_at
		 FROM transfer_stats WHERE peer_host = $1 ORDER BY occurred_at DESC LIMIT $2`,
		peerHost, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("statsdb: query %s: %w", peerHost, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.User, &r.PeerHost, &r.Sent, &r.Succeeded, &r.Bytes, &r.Secs, &r.Micros, &r.RateBPS, &r.OccurredAt); err != nil {
			return nil, fmt.Errorf("statsdb: scan row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Row is one mirrored transfer statistics record.
type Row struct {
	User       string
	PeerHost   string
	Sent       bool
	Succeeded  bool
	Bytes      int64
	Secs       int64
	Micros     int64
	RateBPS    int64
	OccurredAt time.Time
}
