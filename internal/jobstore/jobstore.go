// Package jobstore persists the per-(host,grade,letter) sequence counters that
// back internal/spoolname, the way the teacher's pg session store persists
// process state that must survive a restart rather than resetting to zero —
// here backed by an embedded modernc.org/sqlite database so uuship needs no
// external service just to mint collision-free spool names.
package jobstore

import (
	"database/sql"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS sequences (
	host   TEXT NOT NULL,
	grade  TEXT NOT NULL,
	letter TEXT NOT NULL,
	next   INTEGER NOT NULL DEFAULT 1,
	PRIMARY KEY (host, grade, letter)
);

CREATE TABLE IF NOT EXISTS submitted_jobs (
	job_id     TEXT PRIMARY KEY,
	host       TEXT NOT NULL,
	grade      TEXT NOT NULL,
	user       TEXT NOT NULL,
	cmd_file   TEXT NOT NULL,
	submitted_at INTEGER NOT NULL
);
`

// Store is a sqlite-backed Sequencer (internal/spoolname.Sequencer) plus a
// record of submitted jobs, queryable by "uuship stat".
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// Open opens (creating if necessary) the sqlite database at path and applies
// the schema. path may be ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("jobstore: open %s: %w", path, err)
	}
	// modernc.org/sqlite serialises writes itself; a single connection avoids
	// SQLITE_BUSY from concurrent writers within this process.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("jobstore: apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Next implements internal/spoolname.Sequencer: it atomically reads and
// increments the counter for (host, grade, letter), creating a fresh one
// seeded at 1 on first use. D., X., and C. names each hold their own
// counter even for the same (host, grade), matching spec.md's S3 scenario
// where a single exec submission mints D.hostn0001, X.hostn0001, and
// C.hostn0001 together.
func (s *Store) Next(host string, grade, letter byte) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("jobstore: begin: %w", err)
	}
	defer tx.Rollback()

	g, l := string(grade), string(letter)
	var next uint32
	err = tx.QueryRow(`SELECT next FROM sequences WHERE host = ? AND grade = ? AND letter = ?`, host, g, l).Scan(&next)
	switch {
	case err == sql.ErrNoRows:
		next = 1
		if _, err := tx.Exec(`INSERT INTO sequences (host, grade, letter, next) VALUES (?, ?, ?, ?)`, host, g, l, next+1); err != nil {
			return 0, fmt.Errorf("jobstore: seed sequence: %w", err)
		}
	case err != nil:
		return 0, fmt.Errorf("jobstore: read sequence: %w", err)
	default:
		if _, err := tx.Exec(`UPDATE sequences SET next = ? WHERE host = ? AND grade = ? AND letter = ?`, next+1, host, g, l); err != nil {
			return 0, fmt.Errorf("jobstore: advance sequence: %w", err)
		}
	}

	// base-62 sequences wrap at 62^4; the namer's collision-retry loop
	// handles reuse, so this only needs to wrap cleanly, not stay unique.
	next %= 62 * 62 * 62 * 62

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("jobstore: commit: %w", err)
	}
	return next, nil
}

// RecordJob indexes a submitted job for later lookup by "uuship stat".
func (s *Store) RecordJob(jobID, host, grade, user, cmdFile string, submittedAtUnix int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(
		`INSERT INTO submitted_jobs (job_id, host, grade, user, cmd_file, submitted_at) VALUES (?, ?, ?, ?, ?, ?)`,
		jobID, host, grade, user, cmdFile, submittedAtUnix,
	)
	if err != nil {
		return fmt.Errorf("jobstore: record job %s: %w", jobID, err)
	}
	return nil
}

// JobRecord is one row of submission history.
type JobRecord struct {
	JobID       string
	Host        string
	Grade       string
	User        string
	CmdFile     string
	SubmittedAt int64
}

// JobsForHost lists submitted jobs for host, most recent first.
func (s *Store) JobsForHost(host string) ([]JobRecord, error) {
	rows, err := s.db.Query(
		`SELECT job_id, host, grade, user, cmd_file, submitted_at FROM submitted_jobs
		 WHERE host = ? ORDER BY submitted_at DESC`, host,
	)
	if err != nil {
		return nil, fmt.Errorf("jobstore: query jobs for %s: %w", host, err)
	}
	defer rows.Close()

	var out []JobRecord
	for rows.Next() {
		var r JobRecord
		if err := rows.Scan(&r.JobID, &r.Host, &r.Grade, &r.User, &r.CmdFile, &r.SubmittedAt); err != nil {
			return nil, fmt.Errorf("jobstore: scan job row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
