package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func runCLI(mongoURI string, args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, mongoURI, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeExport(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "export.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_RequiresMongoURI(t *testing.T) {
	code, _, stderr := runCLI("", writeExport(t, "[]"))
	assert.Equal(t, exitUsage, code)
	assert.Contains(t, stderr, "MONGODB_URI")
}

func TestRun_MissingExport(t *testing.T) {
	code, _, stderr := runCLI("mongodb://localhost:27017", filepath.Join(t.TempDir(), "nope.json"))
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "Could not read")
}

func TestRun_NotAnArray(t *testing.T) {
	code, _, stderr := runCLI("mongodb://localhost:27017", writeExport(t, `{"ID": 1}`))
	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr, "not a JSON array")
}

func TestRun_EmptyExportSkipsConnect(t *testing.T) {
	// the URI is never dialed for an empty export
	code, stdout, _ := runCLI("mongodb://unreachable.invalid:1", writeExport(t, "[]"))
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "nothing to migrate")
}

func TestRun_BadFlag(t *testing.T) {
	code, _, _ := runCLI("mongodb://localhost:27017", "-nope")
	assert.Equal(t, exitUsage, code)
}
