// Package store persists measurement records of a TEBD run in a sqlite
// database, one file per run.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"

	"qxxz/tebd"
)

const (
	tableStep = "step"
	tableSite = "site"
	tableBond = "bond"
)

// Store is a measurement archive backed by a sqlite file.
// It is safe for a single writer; readers may open the same file separately.
type Store struct {
	Path string

	db *sql.DB
}

// Open creates or truncates the database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", dbPath))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := prepareDB(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "")
	}
	return &Store{Path: dbPath, db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Write appends one measurement record.
func (s *Store) Write(m tebd.Measurement) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "")
	}
	defer tx.Rollback()

	sqlStr := fmt.Sprintf(`INSERT INTO %s (step, t, trunc_err) VALUES (?, ?, ?)`, tableStep)
	if _, err := tx.ExecContext(ctx, sqlStr, m.Step, m.T, m.TruncErr); err != nil {
		return errors.Wrap(err, fmt.Sprintf("step %d", m.Step))
	}

	sqlStr = fmt.Sprintf(`INSERT INTO %s (step, site, sx, sy, sz) VALUES (?, ?, ?, ?, ?)`, tableSite)
	for i := range m.Sx {
		if _, err := tx.ExecContext(ctx, sqlStr, m.Step, i, m.Sx[i], m.Sy[i], m.Sz[i]); err != nil {
			return errors.Wrap(err, fmt.Sprintf("step %d site %d", m.Step, i))
		}
	}

	sqlStr = fmt.Sprintf(`INSERT INTO %s (step, bond, entropy) VALUES (?, ?, ?)`, tableBond)
	for i, v := range m.Entropy {
		if _, err := tx.ExecContext(ctx, sqlStr, m.Step, i, v); err != nil {
			return errors.Wrap(err, fmt.Sprintf("step %d bond %d", m.Step, i))
		}
	}

	return errors.Wrap(tx.Commit(), "")
}

// Read returns all measurement records in step order.
func (s *Store) Read() ([]tebd.Measurement, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	ms := make([]tebd.Measurement, 0)
	byStep := make(map[int]int)

	sqlStr := fmt.Sprintf(`SELECT step, t, trunc_err FROM %s ORDER BY step`, tableStep)
	rows, err := s.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer rows.Close()
	for rows.Next() {
		var m tebd.Measurement
		if err := rows.Scan(&m.Step, &m.T, &m.TruncErr); err != nil {
			return nil, errors.Wrap(err, "")
		}
		byStep[m.Step] = len(ms)
		ms = append(ms, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}

	sqlStr = fmt.Sprintf(`SELECT step, sx, sy, sz FROM %s ORDER BY step, site`, tableSite)
	siteRows, err := s.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer siteRows.Close()
	for siteRows.Next() {
		var step int
		var sx, sy, sz float64
		if err := siteRows.Scan(&step, &sx, &sy, &sz); err != nil {
			return nil, errors.Wrap(err, "")
		}
		k, ok := byStep[step]
		if !ok {
			return nil, errors.Errorf("orphan site row at step %d", step)
		}
		ms[k].Sx = append(ms[k].Sx, sx)
		ms[k].Sy = append(ms[k].Sy, sy)
		ms[k].Sz = append(ms[k].Sz, sz)
	}
	if err := siteRows.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}

	sqlStr = fmt.Sprintf(`SELECT step, entropy FROM %s ORDER BY step, bond`, tableBond)
	bondRows, err := s.db.QueryContext(ctx, sqlStr)
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	defer bondRows.Close()
	for bondRows.Next() {
		var step int
		var entropy float64
		if err := bondRows.Scan(&step, &entropy); err != nil {
			return nil, errors.Wrap(err, "")
		}
		k, ok := byStep[step]
		if !ok {
			return nil, errors.Errorf("orphan bond row at step %d", step)
		}
		ms[k].Entropy = append(ms[k].Entropy, entropy)
	}
	if err := bondRows.Err(); err != nil {
		return nil, errors.Wrap(err, "")
	}

	return ms, nil
}

func prepareDB(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	stmts := []string{
		fmt.Sprintf(`DROP TABLE IF EXISTS %s`, tableStep),
		fmt.Sprintf(`DROP TABLE IF EXISTS %s`, tableSite),
		fmt.Sprintf(`DROP TABLE IF EXISTS %s`, tableBond),
		fmt.Sprintf(`CREATE TABLE %s (step INTEGER, t REAL, trunc_err REAL, PRIMARY KEY (step)) STRICT`, tableStep),
		fmt.Sprintf(`CREATE TABLE %s (step INTEGER, site INTEGER, sx REAL, sy REAL, sz REAL, PRIMARY KEY (step, site)) STRICT`, tableSite),
		fmt.Sprintf(`CREATE TABLE %s (step INTEGER, bond INTEGER, entropy REAL, PRIMARY KEY (step, bond)) STRICT`, tableBond),
	}
	for _, sqlStr := range stmts {
		if _, err := db.ExecContext(ctx, sqlStr); err != nil {
			return errors.Wrap(err, sqlStr)
		}
	}
	return nil
}
