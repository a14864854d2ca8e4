package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"monadAMM/internal/model"
)

func readLogs(t *testing.T, path string) []model.LogRecord {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	var out []model.LogRecord
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var record model.LogRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &record))
		out = append(out, record)
	}
	require.NoError(t, scanner.Err())
	return out
}

func TestJsonlStorageAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "events.jsonl")
	s := NewJsonlStorage(path)
	ctx := context.Background()

	require.NoError(t, s.PutLogBatch(ctx, []model.LogRecord{{Sequence: 1, LogIndex: 0}, {Sequence: 1, LogIndex: 1}}))
	require.NoError(t, s.PutLogBatch(ctx, nil))
	require.NoError(t, s.PutLogBatch(ctx, []model.LogRecord{{Sequence: 2, Topics: []string{"0xaa"}}}))

	logs := readLogs(t, path)
	require.Len(t, logs, 3)
	require.Equal(t, uint64(2), logs[2].Sequence)
	require.Equal(t, []string{"0xaa"}, logs[2].Topics)
}

func TestJSONLWriterTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "errors.jsonl")

	w, err := NewJSONLWriter(path, false)
	require.NoError(t, err)
	require.NoError(t, w.Write(model.LogRecord{Sequence: 9}))
	require.NoError(t, w.Close())

	w, err = NewJSONLWriter(path, false)
	require.NoError(t, err)
	require.NoError(t, w.Write(model.LogRecord{Sequence: 10}))
	require.NoError(t, w.Close())

	logs := readLogs(t, path)
	require.Len(t, logs, 1)
	require.Equal(t, uint64(10), logs[0].Sequence)
}
