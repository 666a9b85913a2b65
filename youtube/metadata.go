package youtube

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/rs/zerolog"
)

// Fetcher turns video ids into VideoRecords using batched videos.list calls.
type Fetcher struct {
	svc       Service
	batchSize int
	log       zerolog.Logger
}

// NewFetcher creates a fetcher. batchSize is clamped to [1, MaxBatchSize];
// zero means MaxBatchSize.
func NewFetcher(svc Service, batchSize int, logger zerolog.Logger) *Fetcher {
	if batchSize <= 0 || batchSize > MaxBatchSize {
		batchSize = MaxBatchSize
	}
	return &Fetcher{svc: svc, batchSize: batchSize, log: logger}
}

// Records yields one record per id the service knows about, in input order.
// Ids the service does not return (deleted or private videos) are skipped.
// One request is issued per batch; a failed batch ends the sequence with
// its error.
func (f *Fetcher) Records(ctx context.Context, ids []string) iter.Seq2[VideoRecord, error] {
	return func(yield func(VideoRecord, error) bool) {
		for _, batch := range Batch(ids, f.batchSize) {
			f.log.Info().Int("count", len(batch)).Msgf("Getting %d videos: %s", len(batch), strings.Join(batch, ","))

			got, err := f.svc.ListVideos(ctx, batch)
			if err != nil {
				yield(VideoRecord{}, &APIError{Op: "list videos", Ref: fmt.Sprintf("%d ids from %s", len(batch), batch[0]), Err: err})
				return
			}

			byID := make(map[string]VideoRecord, len(got))
			for _, rec := range got {
				byID[rec.ID] = rec
			}
			for _, id := range batch {
				rec, ok := byID[id]
				if !ok {
					f.log.Debug().Str("video", id).Msg("No metadata returned")
					continue
				}
				delete(byID, id)
				f.log.Debug().Str("video", id).Msgf("Added to list: %s", rec.Title)
				if !yield(rec, nil) {
					return
				}
			}
		}
	}
}

// FetchAll collects Records into a slice.
func (f *Fetcher) FetchAll(ctx context.Context, ids []string) ([]VideoRecord, error) {
	records := make([]VideoRecord, 0, len(ids))
	for rec, err := range f.Records(ctx, ids) {
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
