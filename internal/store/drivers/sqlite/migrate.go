package sqlite

import (
	"bytes"
	"embed"
	"errors"
	"io"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// prefixToken is replaced with the configured table prefix when migration
// files are read.
const prefixToken = "{{prefix}}"

// applyMigrations runs all pending up-migrations, with table names
// rendered through the deployment prefix. The migration bookkeeping table
// is prefixed too, so deployments sharing a file do not trample each
// other's versions.
func applyMigrations(db *sqlx.DB, prefix string) error {
	driver, err := migratesqlite.WithInstance(db.DB, &migratesqlite.Config{
		MigrationsTable: prefix + "schema_migrations",
	})
	if err != nil {
		return err
	}

	src, err := iofs.New(renderedFS{base: migrationsFS, prefix: prefix}, "migrations")
	if err != nil {
		return err
	}

	m, err := migrate.NewWithInstance("iofs", src, "", driver)
	if err != nil {
		return err
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// renderedFS serves the embedded migration files with the prefix token
// substituted. Directories pass through untouched so fs.ReadDir keeps
// working.
type renderedFS struct {
	base   fs.FS
	prefix string
}

func (r renderedFS) Open(name string) (fs.File, error) {
	f, err := r.base.Open(name)
	if err != nil {
		return nil, err
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if info.IsDir() {
		return f, nil
	}

	data, err := io.ReadAll(f)
	_ = f.Close()
	if err != nil {
		return nil, err
	}
	data = bytes.ReplaceAll(data, []byte(prefixToken), []byte(r.prefix))

	return &renderedFile{Reader: *bytes.NewReader(data), info: info}, nil
}

type renderedFile struct {
	bytes.Reader

	info fs.FileInfo
}

func (f *renderedFile) Stat() (fs.FileInfo, error) {
	return renderedInfo{FileInfo: f.info, size: f.Size()}, nil
}

func (f *renderedFile) Close() error { return nil }

// renderedInfo reports the post-substitution size.
type renderedInfo struct {
	fs.FileInfo

	size int64
}

func (i renderedInfo) Size() int64 { return i.size }
