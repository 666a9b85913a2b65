package youtube

import (
	"context"
	"fmt"
	"iter"

	"github.com/rs/zerolog"
)

// Paginator walks a playlist listing to completion.
type Paginator struct {
	svc      Service
	pageSize int64
	log      zerolog.Logger
}

// NewPaginator creates a paginator. pageSize is clamped to [1, MaxPageSize];
// zero means MaxPageSize.
func NewPaginator(svc Service, pageSize int64, logger zerolog.Logger) *Paginator {
	if pageSize <= 0 || pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return &Paginator{svc: svc, pageSize: pageSize, log: logger}
}

// IDs returns the video ids of a playlist in listing order. Each range over
// the sequence starts again from the first page. Ids repeated across pages
// are yielded once. On failure the sequence yields a single error and stops.
//
// The listing ends when a page carries no continuation token, or right after
// the first page when the playlist reports zero items. The reported total is
// never used to cut pagination short. A failure on any page, including a
// missing playlist, is returned as an *APIError.
func (p *Paginator) IDs(ctx context.Context, playlistID string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		seen := make(map[string]struct{})
		tokens := make(map[string]struct{})
		token := ""

		for pageNum := 1; ; pageNum++ {
			page, err := p.svc.ListPlaylistItems(ctx, playlistID, p.pageSize, token)
			if err != nil {
				yield("", &APIError{Op: "list playlist", Ref: playlistID, Err: err})
				return
			}
			p.log.Debug().
				Int("page", pageNum).
				Int("items", len(page.VideoIDs)).
				Int64("total", page.TotalResults).
				Bool("more", page.NextPageToken != "").
				Msg("Fetched playlist page")

			if pageNum == 1 && page.TotalResults == 0 {
				return
			}

			for _, id := range page.VideoIDs {
				if id == "" {
					continue
				}
				if _, dup := seen[id]; dup {
					continue
				}
				seen[id] = struct{}{}
				if !yield(id, nil) {
					return
				}
			}

			if page.NextPageToken == "" {
				return
			}
			if _, again := tokens[page.NextPageToken]; again {
				yield("", &APIError{
					Op:  "list playlist",
					Ref: playlistID,
					Err: fmt.Errorf("%w: %q on page %d", ErrPaginationLoop, page.NextPageToken, pageNum),
				})
				return
			}
			tokens[page.NextPageToken] = struct{}{}
			token = page.NextPageToken
		}
	}
}

// All drains IDs into a slice.
func (p *Paginator) All(ctx context.Context, playlistID string) ([]string, error) {
	var ids []string
	for id, err := range p.IDs(ctx, playlistID) {
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
