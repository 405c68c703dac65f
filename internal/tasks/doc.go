// Package tasks implements the multi-request operations of the client on top of the API.
//
// # Feed Paging
//
// [Feed] is the infinite-scroll pager behind the feed views. [Feed.Next] loads the next page and is a
// no-op while a load is running or once the API has reported that no pages remain. A failed load leaves
// the feed as it was, so the caller can simply try again.
//
// # Crawling and Export
//
// [FeedEngine.Crawl] walks the feed page by page, throttled by a [rate.Limiter], and
// [FeedEngine.Export] writes the result through the formatter package.
//
// # Progress Reporting
//
// Long-running operations accept a progress channel. Updates are sent with select and default, so a slow
// or absent reader never stalls the operation.
//
// # Parallel Loads
//
// [LoadProfile] and [LoadClip] issue their two requests concurrently; either failure fails the load.
package tasks
