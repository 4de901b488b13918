package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--config-dir", t.TempDir()}, args...))
	err := root.Execute()
	return out.String(), err
}

func TestRulesCommand_DefaultTable(t *testing.T) {
	out, err := run(t, "rules")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Contains(t, lines[0], "SESSION TYPE")
	assert.Len(t, lines, 1+6*3)
	assert.Contains(t, out, "05:30")
	assert.Contains(t, out, "kids")
}

func TestSlotsCommand(t *testing.T) {
	out, err := run(t, "slots", "--date", "2026-10-21", "--type", "general")
	require.NoError(t, err)

	assert.Contains(t, out, "2026-10-21 (Wednesday)")
	assert.Equal(t, 4, strings.Count(out, "available"))
}

func TestSlotsCommand_Errors(t *testing.T) {
	_, err := run(t, "slots", "--date", "2026-13-01")
	assert.Error(t, err)

	_, err = run(t, "slots", "--date", "2026-10-21", "--type", "seniors")
	assert.ErrorContains(t, err, "unknown session type")

	_, err = run(t, "slots")
	assert.Error(t, err)
}

func TestSlotsCommand_CustomConfig(t *testing.T) {
	dir := t.TempDir()
	yaml := `
session_types:
  - name: private
    label: Private Lesson
schedule_rules:
  - start: "09:00"
    end: "10:00"
    days: [monday]
    interval_minutes: 60
    session_types: [private]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "booking.yaml"), []byte(yaml), 0o600))

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"--config-dir", dir, "slots", "--date", "2026-10-19"})
	require.NoError(t, root.Execute())

	assert.Contains(t, out.String(), "09:00")
	assert.Contains(t, out.String(), "private")
	assert.Equal(t, 1, strings.Count(out.String(), "available"))
}

func TestHashPasswordCommand(t *testing.T) {
	out, err := run(t, "hash-password", "--cost", "4", "correct horse")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("correct horse")))
}

func TestMigrateCommand_RejectsUnknownAction(t *testing.T) {
	_, err := run(t, "migrate", "sideways")
	assert.Error(t, err)
}
