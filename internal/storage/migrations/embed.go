// Package migrations holds the embedded schema of every storage backend and
// the runners that apply it.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed postgres/*.sql clickhouse/*.sql sqlite/*.sql
var schemas embed.FS

// Backend names a directory of embedded schema files.
type Backend string

const (
	Postgres   Backend = "postgres"
	Clickhouse Backend = "clickhouse"
	SQLite     Backend = "sqlite" // golang-migrate up/down pairs
)

// Migration is one embedded schema file. Version is the file name.
type Migration struct {
	Version string
	SQL     string
}

// Load returns the backend's .sql files sorted by name.
func Load(backend Backend) ([]Migration, error) {
	dir := string(backend)
	entries, err := fs.ReadDir(schemas, dir)
	if err != nil {
		return nil, fmt.Errorf("read embedded %s migrations: %w", backend, err)
	}

	var out []Migration
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := fs.ReadFile(schemas, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}
		out = append(out, Migration{Version: entry.Name(), SQL: string(data)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out, nil
}
