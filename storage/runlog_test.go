package storage

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(savings float64) RunRecord {
	return RunRecord{
		GeneratedAt:     time.Date(2026, 8, 28, 6, 0, 0, 0, time.UTC),
		Analyzed:        10,
		Recommendations: 2,
		Skipped:         1,
		MonthlySavings:  savings,
		Result:          json.RawMessage(`{"resources_analyzed":10}`),
	}
}

func TestRunLogAppendAndRecent(t *testing.T) {
	log, err := OpenRunLog(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer log.Close()

	seq1, err := log.Append(testRecord(100))
	require.NoError(t, err)
	seq2, err := log.Append(testRecord(200))
	require.NoError(t, err)
	assert.Equal(t, seq1+1, seq2)

	records, err := log.Recent(10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 200.0, records[0].MonthlySavings, "newest first")
	assert.Equal(t, 100.0, records[1].MonthlySavings)

	records, err = log.Recent(1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, seq2, records[0].Sequence)
}

func TestRunLogGet(t *testing.T) {
	log, err := OpenRunLog(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer log.Close()

	seq, err := log.Append(testRecord(42))
	require.NoError(t, err)

	record, err := log.Get(seq)
	require.NoError(t, err)
	assert.Equal(t, 42.0, record.MonthlySavings)
	assert.JSONEq(t, `{"resources_analyzed":10}`, string(record.Result))

	_, err = log.Get(seq + 99)
	assert.Error(t, err)
}

func TestRunLogSequenceSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")

	log, err := OpenRunLog(path)
	require.NoError(t, err)
	seq, err := log.Append(testRecord(1))
	require.NoError(t, err)
	require.NoError(t, log.Close())

	reopened, err := OpenRunLog(path)
	require.NoError(t, err)
	defer reopened.Close()

	next, err := reopened.Append(testRecord(2))
	require.NoError(t, err)
	assert.Equal(t, seq+1, next)
}
