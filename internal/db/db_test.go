package db

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*DB, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "rates.db")
	d, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d, dir
}

func TestPutRecordOverwrites(t *testing.T) {
	d, _ := openTemp(t)
	ctx := context.Background()

	first := time.Date(2026, 10, 18, 6, 0, 0, 0, time.UTC)
	require.NoError(t, d.PutRecord(ctx, Record{
		Key: "dailyExchangeRates", Value: json.RawMessage(`{"v":1}`),
		UpdatedAt: first, UpdatedBy: "system", RunID: "run-1",
	}))

	second := first.Add(24*time.Hour + 123*time.Millisecond)
	require.NoError(t, d.PutRecord(ctx, Record{
		Key: "dailyExchangeRates", Value: json.RawMessage(`{"v":2}`),
		UpdatedAt: second, UpdatedBy: "system", RunID: "run-2",
	}))

	r, ok, err := d.GetRecord(ctx, "dailyExchangeRates")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"v":2}`, string(r.Value))
	assert.True(t, r.UpdatedAt.Equal(second))
	assert.Equal(t, "system", r.UpdatedBy)
	assert.Equal(t, "run-2", r.RunID)

	var n int
	require.NoError(t, d.sql.QueryRowContext(ctx, `SELECT COUNT(1) FROM settings`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestGetRecordMissing(t *testing.T) {
	d, _ := openTemp(t)
	_, ok, err := d.GetRecord(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPutRecordValidation(t *testing.T) {
	d, _ := openTemp(t)
	ctx := context.Background()
	assert.Error(t, d.PutRecord(ctx, Record{Value: json.RawMessage(`{}`)}))
	assert.Error(t, d.PutRecord(ctx, Record{Key: "k", Value: json.RawMessage(`{broken`)}))
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rates.db")
	ctx := context.Background()

	d, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, d.PutRecord(ctx, Record{Key: "k", Value: json.RawMessage(`[1]`), UpdatedAt: time.Now(), UpdatedBy: "system"}))
	require.NoError(t, d.Close())

	d, err = Open(path)
	require.NoError(t, err)
	defer d.Close()
	_, ok, err := d.GetRecord(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	v, err := d.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", v)
}

func TestBackupTo(t *testing.T) {
	d, dir := openTemp(t)
	ctx := context.Background()
	require.NoError(t, d.PutRecord(ctx, Record{Key: "k", Value: json.RawMessage(`"x"`), UpdatedAt: time.Now(), UpdatedBy: "system"}))

	dst := filepath.Join(dir, "backups", "snap.db")
	require.NoError(t, d.BackupTo(ctx, dst))
	assert.Error(t, d.BackupTo(ctx, dst))

	snap, err := Open(dst)
	require.NoError(t, err)
	defer snap.Close()
	r, ok, err := snap.GetRecord(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `"x"`, string(r.Value))
}
