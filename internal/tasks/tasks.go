package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/desertthunder/clipx/internal/formatter"
	"github.com/desertthunder/clipx/internal/models"
	"github.com/desertthunder/clipx/internal/shared"
)

// ClipAPI is the part of the API client the tasks need.
type ClipAPI interface {
	ClipLister
	GetClip(ctx context.Context, id string) (*models.Clip, error)
	ListComments(ctx context.Context, clipID string) ([]models.Comment, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUserClips(ctx context.Context, userID string) ([]models.Clip, error)
}

// EngineOpts configures a [FeedEngine].
type EngineOpts struct {
	RateLimit float64 // Requests per second (default: 5)
	PageSize  int     // Clips per page (default: [DefaultPageSize])
	Logger    *log.Logger
}

// FeedEngine crawls and exports the feed.
type FeedEngine struct {
	api      ClipAPI
	limiter  *rate.Limiter
	pageSize int
	logger   *log.Logger
	now      func() time.Time
}

// NewFeedEngine creates a [FeedEngine] for api.
func NewFeedEngine(api ClipAPI, opts EngineOpts) *FeedEngine {
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	return &FeedEngine{
		api:      api,
		limiter:  rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		pageSize: opts.PageSize,
		logger:   shared.WithLogger(opts.Logger, "component", "feed"),
		now:      time.Now,
	}
}

// CrawlResult contains every clip collected by a crawl.
type CrawlResult struct {
	Clips     []models.Clip
	Pages     int
	Truncated bool // Stopped at the page cap or an empty page while the API still reported more
}

// Crawl walks the feed from the first page until no pages remain or maxPages pages were read.
// A non-positive maxPages means no cap.
func (e *FeedEngine) Crawl(ctx context.Context, progress chan<- ProgressUpdate, maxPages int) (*CrawlResult, error) {
	feed := NewFeed(e.api, e.pageSize)
	result := &CrawlResult{}

	for feed.HasMore() {
		if maxPages > 0 && result.Pages >= maxPages {
			result.Truncated = true
			break
		}

		if err := e.limiter.Wait(ctx); err != nil {
			return result, fmt.Errorf("crawl interrupted: %w", err)
		}

		page := result.Pages + 1
		sendProgress(progress, fetchPageUpdate(page, maxPages))

		added, err := feed.Next(ctx)
		if err != nil {
			result.Clips = feed.Clips()
			return result, fmt.Errorf("failed to fetch page %d: %w", page, err)
		}
		result.Pages = page

		e.logger.Debug("fetched page", "page", page, "clips", len(added), "has_more", feed.HasMore())
		sendProgress(progress, fetchedPageUpdate(page, maxPages, added, feed.Len()))

		if len(added) == 0 && feed.HasMore() {
			e.logger.Warn("empty page while the API reports more, stopping", "page", page)
			result.Truncated = true
			break
		}
	}

	result.Clips = feed.Clips()
	return result, nil
}

// ExportOpts contains configuration for feed exports.
type ExportOpts struct {
	Format   formatter.Format // Output format (default: text)
	Output   string           // Output file (default: clips.{ext})
	MaxPages int              // Page cap, 0 for the whole feed
}

// ExportResult describes a finished export.
type ExportResult struct {
	Path      string
	Count     int
	Pages     int
	Truncated bool
}

// Export crawls the feed and writes it to a file.
func (e *FeedEngine) Export(ctx context.Context, progress chan<- ProgressUpdate, opts ExportOpts) (*ExportResult, error) {
	if opts.Format == "" {
		opts.Format = formatter.FormatText
	}

	crawl, err := e.Crawl(ctx, progress, opts.MaxPages)
	if err != nil {
		return nil, err
	}

	sendProgress(progress, writeExportUpdate(string(opts.Format), len(crawl.Clips)))

	path, err := formatter.WriteClipsExport(crawl.Clips, opts.Format, opts.Output, e.now())
	if err != nil {
		return nil, err
	}

	sendProgress(progress, exportCompletedUpdate(path, len(crawl.Clips)))
	return &ExportResult{Path: path, Count: len(crawl.Clips), Pages: crawl.Pages, Truncated: crawl.Truncated}, nil
}

// Profile is a user together with their uploads.
type Profile struct {
	User  *models.User
	Clips []models.Clip
}

// LoadProfile fetches a user and their clips concurrently.
func LoadProfile(ctx context.Context, api ClipAPI, userID string) (*Profile, error) {
	var (
		wg             sync.WaitGroup
		user           *models.User
		clips          []models.Clip
		userErr, clErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		user, userErr = api.GetUser(ctx, userID)
	}()
	go func() {
		defer wg.Done()
		clips, clErr = api.ListUserClips(ctx, userID)
	}()
	wg.Wait()

	if err := errors.Join(userErr, clErr); err != nil {
		return nil, err
	}
	return &Profile{User: user, Clips: clips}, nil
}

// ClipThread is a clip together with its comments.
type ClipThread struct {
	Clip     *models.Clip
	Comments []models.Comment
}

// LoadClip fetches a clip and its comments concurrently.
func LoadClip(ctx context.Context, api ClipAPI, clipID string) (*ClipThread, error) {
	var (
		wg              sync.WaitGroup
		clip            *models.Clip
		comments        []models.Comment
		clipErr, comErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		clip, clipErr = api.GetClip(ctx, clipID)
	}()
	go func() {
		defer wg.Done()
		comments, comErr = api.ListComments(ctx, clipID)
	}()
	wg.Wait()

	if err := errors.Join(clipErr, comErr); err != nil {
		return nil, err
	}
	return &ClipThread{Clip: clip, Comments: comments}, nil
}
