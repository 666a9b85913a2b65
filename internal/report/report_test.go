package report

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ytscrape/youtube"
)

func sampleResult() *youtube.Result {
	return &youtube.Result{
		Channel:           "UCfake",
		UploadsPlaylistID: "UUfake",
		VideoCount:        3,
		RecordCount:       3,
		Patterns: []youtube.PatternMatches{
			{Pattern: "a+", Matches: []string{"a", "aa"}},
			{Pattern: "b+", Matches: []string{}},
		},
		Started:  time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Duration: 1500 * time.Millisecond,
	}
}

func TestNewFromResult(t *testing.T) {
	r := New("ignored", sampleResult(), 4, nil)

	_, err := uuid.Parse(r.RunID)
	require.NoError(t, err)
	assert.Equal(t, StatusOK, r.Status)
	assert.Equal(t, "UCfake", r.Channel)
	assert.Equal(t, 2, r.MatchCount)
	assert.Equal(t, 4, r.QuotaUsed)
	assert.Equal(t, int64(1500), r.DurationMS)
	assert.Empty(t, r.Error)
}

func TestNewEmptyAndFailed(t *testing.T) {
	empty := New("UCfake", &youtube.Result{Channel: "UCfake"}, 2, nil)
	assert.Equal(t, StatusEmpty, empty.Status)
	assert.NotNil(t, empty.Patterns)

	failed := New("@someone", nil, 1, errors.New("boom"))
	assert.Equal(t, StatusFailed, failed.Status)
	assert.Equal(t, "@someone", failed.Channel)
	assert.Equal(t, "boom", failed.Error)
}

func TestWriteAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "report.json")

	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0644))

	r := New("UCfake", sampleResult(), 4, nil)
	require.NoError(t, r.Write(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got Report
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, r.RunID, got.RunID)
	assert.Equal(t, r.Patterns, got.Patterns)
	assert.True(t, r.StartedAt.Equal(got.StartedAt))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}

func TestWriteCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "report.json")
	require.NoError(t, New("UCfake", nil, 0, nil).Write(path))
	assert.FileExists(t, path)
}

func TestWriteUnwritableDir(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0644))

	err := New("UCfake", nil, 0, nil).Write(filepath.Join(blocker, "report.json"))
	assert.Error(t, err)
}
