package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestExportToStdout(t *testing.T) {
	out, _, err := run(t, "export", "reports", "--timeframe", "year", "--year", "2024")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 9 {
		t.Fatalf("got %d lines, want header + 8", len(lines))
	}
	if !strings.HasPrefix(lines[0], "id,title,") {
		t.Errorf("header = %q", lines[0])
	}

	out, _, err = run(t, "export", "reports", "--timeframe", "year", "--year", "2024", "--category", "Roads")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if n := len(strings.Split(strings.TrimSpace(out), "\n")); n != 3 {
		t.Errorf("Roads export has %d lines, want 3", n)
	}
}

func TestExportEmpty(t *testing.T) {
	for _, kind := range []string{"reports", "timeseries"} {
		t.Run(kind, func(t *testing.T) {
			out, errOut, err := run(t, "export", kind, "--timeframe", "year", "--year", "1990")
			if err != nil {
				t.Fatalf("export: %v", err)
			}
			if out != "" {
				t.Errorf("stdout = %q, want nothing", out)
			}
			if !strings.Contains(errOut, "Nothing to export") {
				t.Errorf("stderr = %q", errOut)
			}
		})
	}
}

func TestExportToDirectory(t *testing.T) {
	dir := t.TempDir()
	_, _, err := run(t, "export", "categories", "--timeframe", "year", "--year", "2024", "--out", dir)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "reports-categories-year-2024-*.csv"))
	if len(matches) != 1 {
		t.Fatalf("files = %v", matches)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "category,count\n") {
		t.Errorf("csv = %q", data)
	}
}

func TestExportErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown kind", []string{"export", "people"}},
		{"missing kind", []string{"export"}},
		{"bad timeframe", []string{"export", "reports", "--timeframe", "decade"}},
		{"bad month", []string{"export", "reports", "--month", "13"}},
		{"bad series", []string{"export", "timeseries", "--hide", "purple"}},
		{"bad time zone", []string{"export", "reports", "--tz", "Mars/Olympus"}},
		{"missing seed", []string{"export", "reports", "--seed", "/nonexistent/seed.yaml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := run(t, tt.args...); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestSummary(t *testing.T) {
	out, _, err := run(t, "summary", "--format", "json", "--timeframe", "year", "--year", "2024", "--top", "2")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	var got struct {
		Totals struct {
			Total int `json:"total"`
		} `json:"totals"`
		Categories []struct {
			Name string `json:"name"`
		} `json:"categories"`
		Hotspots []struct {
			Name string `json:"name"`
		} `json:"hotspots"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if got.Totals.Total != 8 || len(got.Categories) != 5 || len(got.Hotspots) != 2 {
		t.Errorf("summary = %+v", got)
	}

	if _, _, err := run(t, "summary", "--format", "xml"); err == nil {
		t.Error("unknown format accepted")
	}
}

func TestSeedCommands(t *testing.T) {
	out, _, err := run(t, "seed", "validate")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "reports: 8") || !strings.Contains(out, "categories: 5") {
		t.Errorf("validate output = %q", out)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(bad, []byte("reports:\n  - id: 1\n    title: x\n    status: Unknown\n"), 0o644)
	if _, _, err := run(t, "seed", "validate", bad); err == nil {
		t.Error("invalid seed accepted")
	}

	dumped, _, err := run(t, "seed", "dump")
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	if !strings.Contains(dumped, "status: In Progress") {
		t.Errorf("dump missing mock vocabulary:\n%s", dumped)
	}

	// A dump round-trips through validate.
	path := filepath.Join(t.TempDir(), "dump.yaml")
	os.WriteFile(path, []byte(dumped), 0o644)
	if _, _, err := run(t, "seed", "validate", path); err != nil {
		t.Errorf("dumped seed does not validate: %v", err)
	}
}

func TestVersion(t *testing.T) {
	out, _, err := run(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "reportctl ") {
		t.Errorf("version = %q", out)
	}
}
