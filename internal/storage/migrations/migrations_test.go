package migrations

import (
	"strings"
	"testing"
)

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name: "comments and blank lines",
			input: `
-- first table
CREATE TABLE a (x Int32);

-- second
CREATE TABLE b (
    y String
);
`,
			want: []string{"CREATE TABLE a (x Int32)", "CREATE TABLE b (\n    y String\n)"},
		},
		{
			name:  "semicolon inside literal",
			input: "SELECT 'a;b'; SELECT 2",
			want:  []string{"SELECT 'a;b'", "SELECT 2"},
		},
		{
			name:  "escaped quotes",
			input: `SELECT 'it''s; fine', 'x\'; y'; SELECT 3`,
			want:  []string{`SELECT 'it''s; fine', 'x\'; y'`, "SELECT 3"},
		},
		{
			name:  "dashes inside literal",
			input: "SELECT '--not a comment'; -- trailing\nSELECT 4",
			want:  []string{"SELECT '--not a comment'", "SELECT 4"},
		},
		{
			name:  "quoted identifier",
			input: "CREATE TABLE `odd;name` (x Int8)",
			want:  []string{"CREATE TABLE `odd;name` (x Int8)"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := splitStatements(tt.input)
			if err != nil {
				t.Fatalf("splitStatements failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d statements, got %d: %q", len(tt.want), len(got), got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("statement %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSplitStatements_Unterminated(t *testing.T) {
	if _, err := splitStatements("SELECT 'open; SELECT 1"); err == nil {
		t.Error("expected error for unterminated literal")
	}
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default:@localhost:9000/pnl")
	if err != nil || db != "pnl" {
		t.Errorf("expected pnl, got %q (%v)", db, err)
	}
	if _, err := databaseFromDSN("clickhouse://localhost:9000"); err == nil {
		t.Error("expected error for DSN without database")
	}
}

func TestLoad(t *testing.T) {
	tests := []struct {
		backend Backend
		min     int
	}{
		{Postgres, 2},
		{Clickhouse, 1},
		{SQLite, 2},
	}
	for _, tt := range tests {
		t.Run(string(tt.backend), func(t *testing.T) {
			files, err := Load(tt.backend)
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			if len(files) < tt.min {
				t.Fatalf("expected at least %d files, got %d", tt.min, len(files))
			}
			for i, m := range files {
				if strings.TrimSpace(m.SQL) == "" {
					t.Errorf("%s is empty", m.Version)
				}
				if i > 0 && files[i-1].Version >= m.Version {
					t.Errorf("files not sorted: %s before %s", files[i-1].Version, m.Version)
				}
			}
		})
	}
}

func TestLoad_UnknownBackend(t *testing.T) {
	if _, err := Load(Backend("oracle")); err == nil {
		t.Error("expected error for unknown backend")
	}
}
