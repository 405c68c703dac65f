package tasks

import (
	"fmt"

	"github.com/desertthunder/clipx/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase, 0 when unknown
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchFeed Phase = iota
	WriteExport
)

func (p Phase) String() string {
	switch p {
	case FetchFeed:
		return "fetch_feed"
	case WriteExport:
		return "write_export"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func fetchPageUpdate(page, maxPages int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchFeed,
		Step:    page,
		Total:   maxPages,
		Message: fmt.Sprintf("Fetching feed page %d...", page),
	}
}

func fetchedPageUpdate(page, maxPages int, clips []models.Clip, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchFeed,
		Step:    page,
		Total:   maxPages,
		Message: fmt.Sprintf("Page %d: %d clips (%d so far)", page, len(clips), total),
		Data:    clips,
	}
}

func writeExportUpdate(format string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteExport,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing %d clips as %s...", count, format),
	}
}

func exportCompletedUpdate(path string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteExport,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("✓ Exported %d clips to %s", count, path),
		Data:    path,
	}
}
