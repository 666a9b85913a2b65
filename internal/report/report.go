// Package report writes a machine-readable summary of a scrape run.
package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ytscrape/youtube"
)

// Run status values.
const (
	StatusOK     = "ok"
	StatusEmpty  = "empty"
	StatusFailed = "failed"
)

// Report is the JSON document written after a run.
type Report struct {
	RunID             string                   `json:"run_id"`
	Status            string                   `json:"status"`
	Channel           string                   `json:"channel"`
	UploadsPlaylistID string                   `json:"uploads_playlist_id,omitempty"`
	VideoCount        int                      `json:"video_count"`
	RecordCount       int                      `json:"record_count"`
	MatchCount        int                      `json:"match_count"`
	QuotaUsed         int                      `json:"quota_used"`
	Patterns          []youtube.PatternMatches `json:"patterns"`
	StartedAt         time.Time                `json:"started_at"`
	DurationMS        int64                    `json:"duration_ms"`
	Error             string                   `json:"error,omitempty"`
}

// New builds a report for channel from a run outcome. res may be nil when
// the run failed.
func New(channel string, res *youtube.Result, quota int, runErr error) *Report {
	r := &Report{
		RunID:     uuid.NewString(),
		Status:    StatusOK,
		Channel:   channel,
		QuotaUsed: quota,
		Patterns:  []youtube.PatternMatches{},
		StartedAt: time.Now().UTC(),
	}
	if res != nil {
		r.Channel = res.Channel
		r.UploadsPlaylistID = res.UploadsPlaylistID
		r.VideoCount = res.VideoCount
		r.RecordCount = res.RecordCount
		r.MatchCount = res.MatchCount()
		if res.Patterns != nil {
			r.Patterns = res.Patterns
		}
		r.StartedAt = res.Started.UTC()
		r.DurationMS = res.Duration.Milliseconds()
		if res.Empty() {
			r.Status = StatusEmpty
		}
	}
	if runErr != nil {
		r.Status = StatusFailed
		r.Error = runErr.Error()
	}
	return r
}

// Write stores the report at path, replacing any previous file atomically.
func (r *Report) Write(path string) error {
	w, err := newAtomicWriter(path)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		w.abort()
		return fmt.Errorf("encode report: %w", err)
	}
	if err := w.commit(); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
