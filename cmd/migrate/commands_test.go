package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSchema struct {
	calls   []string
	steps   int
	forced  int
	version uint
	dirty   bool
	err     error
	closed  bool
}

func (f *fakeSchema) Up() error         { f.calls = append(f.calls, "up"); return f.err }
func (f *fakeSchema) Down() error       { f.calls = append(f.calls, "down"); return f.err }
func (f *fakeSchema) Steps(n int) error { f.steps = n; return f.err }
func (f *fakeSchema) Force(v int) error { f.forced = v; return f.err }
func (f *fakeSchema) Close() error      { f.closed = true; return nil }
func (f *fakeSchema) Version() (uint, bool, error) {
	return f.version, f.dirty, f.err
}

func runMigrate(t *testing.T, s *fakeSchema, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	open := func(string, *zap.Logger) (schema, error) {
		if s == nil {
			return nil, errors.New("connection refused")
		}
		return s, nil
	}
	cmd := newRootCmd(open, &out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSchemaCommands(t *testing.T) {
	t.Run("up", func(t *testing.T) {
		s := &fakeSchema{}
		_, err := runMigrate(t, s, "up")
		require.NoError(t, err)
		assert.Equal(t, []string{"up"}, s.calls)
		assert.True(t, s.closed)
	})

	t.Run("step negative", func(t *testing.T) {
		s := &fakeSchema{}
		_, err := runMigrate(t, s, "step", "--", "-2")
		require.NoError(t, err)
		assert.Equal(t, -2, s.steps)
	})

	t.Run("step rejects garbage", func(t *testing.T) {
		_, err := runMigrate(t, &fakeSchema{}, "step", "many")
		assert.ErrorContains(t, err, "invalid step count")
	})

	t.Run("force", func(t *testing.T) {
		s := &fakeSchema{}
		_, err := runMigrate(t, s, "force", "1")
		require.NoError(t, err)
		assert.Equal(t, 1, s.forced)
	})

	t.Run("migrator error surfaces", func(t *testing.T) {
		s := &fakeSchema{err: errors.New("dirty database")}
		_, err := runMigrate(t, s, "down")
		assert.ErrorContains(t, err, "dirty database")
		assert.True(t, s.closed)
	})

	t.Run("open failure", func(t *testing.T) {
		_, err := runMigrate(t, nil, "up")
		assert.ErrorContains(t, err, "connection refused")
	})
}

func TestVersionCmd(t *testing.T) {
	out, err := runMigrate(t, &fakeSchema{}, "version")
	require.NoError(t, err)
	assert.Equal(t, "no migrations applied\n", out)

	out, err = runMigrate(t, &fakeSchema{version: 1, dirty: true}, "version")
	require.NoError(t, err)
	assert.Equal(t, "version 000001 (dirty)\n", out)
}

func TestCreateAndListCmd(t *testing.T) {
	dir := t.TempDir()

	out, err := runMigrate(t, nil, "--path", dir, "create", "add payment notes", "free-text notes")
	require.NoError(t, err)
	assert.Contains(t, out, "000001_add_payment_notes.up.sql")

	_, err = os.Stat(filepath.Join(dir, "000001_add_payment_notes.down.sql"))
	require.NoError(t, err)

	out, err = runMigrate(t, nil, "--path", dir, "list")
	require.NoError(t, err)
	assert.Equal(t, "000001_add_payment_notes\n", out)
}

func TestListCmd_Embedded(t *testing.T) {
	out, err := runMigrate(t, nil, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "000001_create_ledger_tables")
}
