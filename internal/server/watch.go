package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/clipx/internal/formatter"
	"github.com/desertthunder/clipx/internal/models"
	"github.com/desertthunder/clipx/internal/shared"
)

//go:embed templates/watch.html
var templateFS embed.FS

var watchTemplate = template.Must(template.ParseFS(templateFS, "templates/watch.html"))

// ClipSource fetches the data the watch page renders.
type ClipSource interface {
	GetClip(ctx context.Context, id string) (*models.Clip, error)
	ListComments(ctx context.Context, clipID string) ([]models.Comment, error)
}

type commentView struct {
	Author  string
	Content string
	Posted  string
}

type watchPage struct {
	Clip     models.Clip
	Range    string
	Likes    string
	Posted   string
	Comments []commentView
}

// WatchHandler serves GET /clip/{id}.
type WatchHandler struct {
	api    ClipSource
	logger *log.Logger
	now    func() time.Time
}

// NewWatchHandler creates a [WatchHandler] backed by api.
func NewWatchHandler(api ClipSource, logger *log.Logger) *WatchHandler {
	return &WatchHandler{api: api, logger: logger, now: time.Now}
}

// Routes returns the HTTP routes this handler serves.
func (h *WatchHandler) Routes() []string {
	return []string{"GET /clip/{id}"}
}

// ServeHTTP renders the clip page. A missing clip is a 404 and any other API failure a 502.
func (h *WatchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	clip, err := h.api.GetClip(r.Context(), id)
	if err != nil {
		h.fail(w, id, err)
		return
	}

	comments, err := h.api.ListComments(r.Context(), id)
	if err != nil {
		h.logger.Warn("failed to load comments", "clip", id, "error", err)
		comments = nil
	}

	now := h.now()
	page := watchPage{
		Clip:   *clip,
		Range:  formatter.ClipRange(*clip),
		Likes:  formatter.Likes(clip.LikesCount, clip.IsLiked),
		Posted: formatter.RelativeTime(clip.CreatedAt, now),
	}
	for _, c := range comments {
		author := "unknown"
		if c.User != nil && c.User.Username != "" {
			author = c.User.Username
		}
		page.Comments = append(page.Comments, commentView{Author: author, Content: c.Content, Posted: formatter.RelativeTime(c.CreatedAt, now)})
	}

	var buf bytes.Buffer
	if err := watchTemplate.Execute(&buf, page); err != nil {
		h.logger.Error("failed to render watch page", "clip", id, "error", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *WatchHandler) fail(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, shared.ErrNotFound):
		http.Error(w, "Clip not found", http.StatusNotFound)
	default:
		h.logger.Error("failed to load clip", "clip", id, "error", err)
		http.Error(w, "Failed to load clip", http.StatusBadGateway)
	}
}

// NewWatchRouter builds the watch server's router with logging and panic recovery.
func NewWatchRouter(api ClipSource, logger *log.Logger) *BasicRouter {
	router := NewBasicRouter()
	router.Use(Recover(logger), Logging(logger))
	router.Handler(NewWatchHandler(api, logger))
	router.HandleFunc(http.MethodGet, "/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("ok\n"))
	})
	return router
}
