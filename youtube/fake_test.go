package youtube

import (
	"context"
	"fmt"
	"math/rand"
)

// fakeService serves a single uploads playlist from memory.
type fakeService struct {
	uploads map[string]string // channel id -> playlist id
	pages   map[string]*Page  // page token -> page
	videos  map[string]VideoRecord

	resolveErr error
	pageErr    map[string]error // page token -> error
	videosErr  error
	shuffle    bool

	resolveCalls  int
	pageTokens    []string
	pageSizes     []int64
	videoRequests [][]string
}

func (f *fakeService) UploadsPlaylistID(ctx context.Context, ref ChannelRef) (string, error) {
	f.resolveCalls++
	if f.resolveErr != nil {
		return "", f.resolveErr
	}
	id, ok := f.uploads[ref.String()]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrChannelNotFound, ref)
	}
	return id, nil
}

func (f *fakeService) ListPlaylistItems(ctx context.Context, playlistID string, pageSize int64, pageToken string) (*Page, error) {
	f.pageTokens = append(f.pageTokens, pageToken)
	f.pageSizes = append(f.pageSizes, pageSize)
	if err := f.pageErr[pageToken]; err != nil {
		return nil, err
	}
	page, ok := f.pages[pageToken]
	if !ok {
		return nil, fmt.Errorf("unknown page token %q", pageToken)
	}
	return page, nil
}

func (f *fakeService) ListVideos(ctx context.Context, ids []string) ([]VideoRecord, error) {
	f.videoRequests = append(f.videoRequests, append([]string(nil), ids...))
	if f.videosErr != nil {
		return nil, f.videosErr
	}
	out := make([]VideoRecord, 0, len(ids))
	for _, id := range ids {
		if rec, ok := f.videos[id]; ok {
			out = append(out, rec)
		}
	}
	if f.shuffle {
		rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	}
	return out, nil
}

// newFakeChannel builds a channel "UCfake" whose uploads playlist "UUfake"
// is split into pages of the given sizes. describe supplies the description
// for video i (0-based); nil gives a plain description.
func newFakeChannel(pageSizes []int, describe func(i int) string) *fakeService {
	f := &fakeService{
		uploads: map[string]string{"UCfake": "UUfake"},
		pages:   make(map[string]*Page),
		videos:  make(map[string]VideoRecord),
	}

	total := 0
	for _, n := range pageSizes {
		total += n
	}

	n := 0
	token := ""
	for p, size := range pageSizes {
		page := &Page{TotalResults: int64(total), ResultsPerPage: int64(size)}
		for j := 0; j < size; j++ {
			id := fmt.Sprintf("vid%03d", n)
			desc := "just a video"
			if describe != nil {
				desc = describe(n)
			}
			page.VideoIDs = append(page.VideoIDs, id)
			f.videos[id] = VideoRecord{ID: id, Title: fmt.Sprintf("Video %d", n), Description: desc}
			n++
		}
		if p < len(pageSizes)-1 {
			page.NextPageToken = fmt.Sprintf("tok%d", p+1)
		}
		f.pages[token] = page
		token = page.NextPageToken
	}
	if len(pageSizes) == 0 {
		f.pages[""] = &Page{}
	}
	return f
}

func videoIDs(n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("vid%03d", i)
	}
	return ids
}
