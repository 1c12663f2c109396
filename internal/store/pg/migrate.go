package pg

import (
	"context"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
)

// Formato de archivo: {version}_{name}_up.sql / {version}_{name}_down.sql
var migrationFilePattern = regexp.MustCompile(`^(\d+)_(.+)_(up|down)\.sql$`)

// Migration representa una migración individual.
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// MigrationResult resultado de aplicar migraciones.
type MigrationResult struct {
	Applied  []int
	Skipped  []int
	Duration time.Duration
}

// Migrator aplica migraciones SQL embebidas.
type Migrator struct {
	fsys fs.FS
	dir  string
}

// NewMigrator crea un Migrator sobre fsys/dir.
func NewMigrator(fsys fs.FS, dir string) *Migrator {
	return &Migrator{fsys: fsys, dir: dir}
}

// ParseMigrations lee y ordena las migraciones por versión.
func (m *Migrator) ParseMigrations() ([]Migration, error) {
	entries, err := fs.ReadDir(m.fsys, m.dir)
	if err != nil {
		return nil, err
	}
	byVersion := map[int]*Migration{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		match := migrationFilePattern.FindStringSubmatch(e.Name())
		if match == nil {
			continue
		}
		version, _ := strconv.Atoi(match[1])
		b, err := fs.ReadFile(m.fsys, path.Join(m.dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", e.Name(), err)
		}
		mig, ok := byVersion[version]
		if !ok {
			mig = &Migration{Version: version, Name: match[2]}
			byVersion[version] = mig
		}
		if match[3] == "up" {
			mig.Up = string(b)
		} else {
			mig.Down = string(b)
		}
	}
	out := make([]Migration, 0, len(byVersion))
	for _, mig := range byVersion {
		out = append(out, *mig)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}

const createMigrationsTable = `
CREATE TABLE IF NOT EXISTS _migrations (
	version INT PRIMARY KEY,
	name VARCHAR(255) NOT NULL,
	applied_at TIMESTAMPTZ DEFAULT NOW()
)`

// Up aplica las migraciones pendientes, cada una en su propia transacción.
func (m *Migrator) Up(ctx context.Context, s *Store) (*MigrationResult, error) {
	start := time.Now()
	res := &MigrationResult{}

	if _, err := s.pool.Exec(ctx, createMigrationsTable); err != nil {
		return res, fmt.Errorf("creating migrations table: %w", err)
	}
	applied, err := appliedVersions(ctx, s)
	if err != nil {
		return res, fmt.Errorf("getting applied migrations: %w", err)
	}
	migs, err := m.ParseMigrations()
	if err != nil {
		return res, fmt.Errorf("parsing migrations: %w", err)
	}

	for _, mig := range migs {
		if applied[mig.Version] || mig.Up == "" {
			res.Skipped = append(res.Skipped, mig.Version)
			continue
		}
		err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, mig.Up); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO _migrations (version, name) VALUES ($1, $2)`, mig.Version, mig.Name)
			return err
		})
		if err != nil {
			res.Duration = time.Since(start)
			return res, fmt.Errorf("applying migration %d_%s: %w", mig.Version, mig.Name, err)
		}
		res.Applied = append(res.Applied, mig.Version)
	}
	res.Duration = time.Since(start)
	return res, nil
}

// Down revierte las últimas n migraciones aplicadas (n<=0: todas).
func (m *Migrator) Down(ctx context.Context, s *Store, n int) ([]int, error) {
	if _, err := s.pool.Exec(ctx, createMigrationsTable); err != nil {
		return nil, err
	}
	applied, err := appliedVersions(ctx, s)
	if err != nil {
		return nil, err
	}
	migs, err := m.ParseMigrations()
	if err != nil {
		return nil, err
	}
	var reverted []int
	for i := len(migs) - 1; i >= 0; i-- {
		if n > 0 && len(reverted) >= n {
			break
		}
		mig := migs[i]
		if !applied[mig.Version] {
			continue
		}
		err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
			if mig.Down != "" {
				if _, err := tx.Exec(ctx, mig.Down); err != nil {
					return err
				}
			}
			_, err := tx.Exec(ctx, `DELETE FROM _migrations WHERE version = $1`, mig.Version)
			return err
		})
		if err != nil {
			return reverted, fmt.Errorf("reverting migration %d_%s: %w", mig.Version, mig.Name, err)
		}
		reverted = append(reverted, mig.Version)
	}
	return reverted, nil
}

// Pending lista versiones no aplicadas.
func (m *Migrator) Pending(ctx context.Context, s *Store) ([]int, error) {
	if _, err := s.pool.Exec(ctx, createMigrationsTable); err != nil {
		return nil, err
	}
	applied, err := appliedVersions(ctx, s)
	if err != nil {
		return nil, err
	}
	migs, err := m.ParseMigrations()
	if err != nil {
		return nil, err
	}
	var out []int
	for _, mig := range migs {
		if !applied[mig.Version] {
			out = append(out, mig.Version)
		}
	}
	return out, nil
}

func appliedVersions(ctx context.Context, s *Store) (map[int]bool, error) {
	rows, err := s.pool.Query(ctx, `SELECT version FROM _migrations`)
	if err != nil {
		return nil, err
	}
	versions, err := pgx.CollectRows(rows, pgx.RowTo[int32])
	if err != nil {
		return nil, err
	}
	applied := make(map[int]bool, len(versions))
	for _, v := range versions {
		applied[int(v)] = true
	}
	return applied, nil
}
