package tasks

import (
	"context"
	"sync"

	"github.com/desertthunder/clipx/internal/models"
)

// DefaultPageSize is the page size the feed asks for when none is configured.
const DefaultPageSize = 10

// ClipLister fetches one page of the feed.
type ClipLister interface {
	ListClips(ctx context.Context, page, limit int) (*models.ClipPage, error)
}

// Feed accumulates feed pages for infinite scrolling.
type Feed struct {
	mu      sync.Mutex
	api     ClipLister
	limit   int
	page    int
	clips   []models.Clip
	hasMore bool
	loading bool
	// gen discards a load that finishes after Reset.
	gen uint64
}

// NewFeed creates an empty feed. A non-positive limit uses [DefaultPageSize].
func NewFeed(api ClipLister, limit int) *Feed {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	return &Feed{api: api, limit: limit, hasMore: true}
}

// Next loads the next page and returns the clips it added.
//
// It returns (nil, nil) without a request while another load is running or once no pages remain.
// On failure the feed is unchanged.
func (f *Feed) Next(ctx context.Context) ([]models.Clip, error) {
	f.mu.Lock()
	if f.loading || !f.hasMore {
		f.mu.Unlock()
		return nil, nil
	}
	f.loading = true
	next, gen := f.page+1, f.gen
	f.mu.Unlock()

	resp, err := f.api.ListClips(ctx, next, f.limit)

	f.mu.Lock()
	defer f.mu.Unlock()

	if gen != f.gen {
		return nil, nil
	}
	f.loading = false
	if err != nil {
		return nil, err
	}

	f.page = next
	f.hasMore = resp.HasMore
	f.clips = append(f.clips, resp.Clips...)
	return append([]models.Clip(nil), resp.Clips...), nil
}

// Reset empties the feed so the next call to [Feed.Next] loads the first page again.
func (f *Feed) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	f.page, f.clips, f.hasMore, f.loading = 0, nil, true, false
}

// Clips returns a copy of every clip loaded so far.
func (f *Feed) Clips() []models.Clip {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Clip(nil), f.clips...)
}

// Len returns the number of clips loaded so far.
func (f *Feed) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clips)
}

func (f *Feed) HasMore() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasMore
}

func (f *Feed) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// Page returns the last page loaded, 0 before the first load.
func (f *Feed) Page() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.page
}

// ApplyLike updates a loaded clip with the result of a like toggle. It reports whether the clip was found.
func (f *Feed) ApplyLike(clipID string, res models.LikeResult) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.clips {
		if f.clips[i].ID == clipID {
			f.clips[i].LikesCount = res.LikesCount
			f.clips[i].IsLiked = res.IsLiked
			return true
		}
	}
	return false
}
