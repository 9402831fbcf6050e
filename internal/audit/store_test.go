package audit

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	s, err := Open(filepath.Join(t.TempDir(), "nested", "audit.db"), log)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := Entry{
		SessionID:  "s1",
		Turn:       1,
		Source:     "directive",
		Command:    "ls -la",
		WorkingDir: "/tmp",
		Program:    "ls",
		Mode:       "allowlist",
		Action:     "ALLOW",
		Reason:     "ALLOWLISTED",
		State:      "closed",
		ExitCode:   0,
		Duration:   1500 * time.Millisecond,
		CreatedAt:  time.UnixMilli(1_700_000_000_000),
	}
	require.NoError(t, s.Record(ctx, first))
	require.NoError(t, s.Record(ctx, Entry{
		SessionID: "s1", Turn: 2, Source: "tool", Command: "rm -rf x",
		Action: "DENY", Reason: "DENYLISTED", ExitCode: 1, Edited: true,
	}))
	require.NoError(t, s.Record(ctx, Entry{SessionID: "s2", Turn: 1, Source: "directive", Command: "pwd", Action: "ALLOW", Confirmed: true}))

	all, err := s.Recent(ctx, 10, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "pwd", all[0].Command)
	assert.True(t, all[0].Confirmed)

	got := all[2]
	assert.Equal(t, "ls -la", got.Command)
	assert.Equal(t, "/tmp", got.WorkingDir)
	assert.Equal(t, "ls", got.Program)
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
	assert.Equal(t, int64(1_700_000_000_000), got.CreatedAt.UnixMilli())

	s1, err := s.Recent(ctx, 10, "s1")
	require.NoError(t, err)
	require.Len(t, s1, 2)
	assert.Equal(t, "rm -rf x", s1[0].Command)
	assert.True(t, s1[0].Edited)
	assert.Equal(t, 1, s1[0].ExitCode)

	limited, err := s.Recent(ctx, 1, "")
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStore_ReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")
	ctx := context.Background()

	s, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, Entry{SessionID: "s", Turn: 1, Source: "directive", Command: "echo", Action: "ALLOW"}))
	require.NoError(t, s.Close())

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer s.Close()
	entries, err := s.Recent(ctx, 0, "")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.False(t, entries[0].CreatedAt.IsZero())
}

func TestStore_PathWithURIReservedCharacters(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "odd?dir #1", "audit%25.db")
	ctx := context.Background()

	s, err := Open(path, nil)
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Record(ctx, Entry{SessionID: "s", Turn: 1, Source: "tool", Command: "true", Action: "ALLOW"}))
	entries, err := s.Recent(ctx, 0, "")
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	var mode string
	require.NoError(t, s.db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	_, err = os.Stat(path)
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(root, "odd"))
	assert.True(t, os.IsNotExist(err))
}

func TestSQLiteDSN(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix path layout")
	}
	dsn, err := sqliteDSN("/data/a?b#c%d.db")
	require.NoError(t, err)
	assert.Equal(t, "file:///data/a%3Fb%23c%25d.db?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", dsn)
}
