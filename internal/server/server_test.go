package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/clipx/internal/models"
	"github.com/desertthunder/clipx/internal/services"
	"github.com/desertthunder/clipx/internal/shared"
	tu "github.com/desertthunder/clipx/internal/testing"
)

func TestBasicRouter(t *testing.T) {
	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mark("first"), mark("second"))
		router.HandleFunc(http.MethodGet, "/ping", func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		})

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ping", nil))

		if strings.Join(order, ",") != "first,second,handler" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("Method Not Allowed", func(t *testing.T) {
		router := NewBasicRouter()
		router.HandleFunc(http.MethodGet, "/ping", func(w http.ResponseWriter, r *http.Request) {})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))

		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})

	t.Run("Recover", func(t *testing.T) {
		router := NewBasicRouter()
		router.Use(Recover(shared.NewLogger(io.Discard)))
		router.HandleFunc(http.MethodGet, "/boom", func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
	})

	t.Run("Logging Records Status", func(t *testing.T) {
		var buf strings.Builder
		router := NewBasicRouter()
		router.Use(Logging(shared.NewLogger(&buf)))
		router.HandleFunc(http.MethodGet, "/teapot", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		})

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/teapot", nil))

		if !strings.Contains(buf.String(), "status=418") {
			t.Errorf("expected status in log, got %q", buf.String())
		}
	})
}

func TestWatchHandler(t *testing.T) {
	api := tu.NewFakeAPI(t)
	clip := api.AddClip(models.Clip{
		Title:            "Chorus <live>",
		YouTubeVideoID:   "dQw4w9WgXcQ",
		StartTimeSeconds: 43,
		EndTimeSeconds:   65,
		LikesCount:       2,
		User:             &models.User{ID: "u1", Username: "alice"},
	})
	api.AddComment(clip.ID, models.Comment{ID: "m1", Content: "great pick", User: &models.User{Username: "bob"}, CreatedAt: time.Now()})

	client := services.NewClient(api.URL, nil, nil)
	router := NewWatchRouter(client, shared.NewLogger(io.Discard))

	t.Run("Renders Embed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clip/"+clip.ID, nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("unexpected content type %s", ct)
		}

		body := rec.Body.String()
		for _, want := range []string{
			"https://www.youtube.com/embed/dQw4w9WgXcQ?start=43&amp;end=65&amp;autoplay=1",
			"Chorus &lt;live&gt;",
			"@alice",
			"0:43-1:05",
			"2 likes",
			"great pick",
			"@bob",
		} {
			if !strings.Contains(body, want) {
				t.Errorf("page missing %q", want)
			}
		}
	})

	t.Run("Missing Clip", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clip/nope", nil))

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("API Down", func(t *testing.T) {
		down := services.NewClient("http://127.0.0.1:1", nil, nil)
		rec := httptest.NewRecorder()
		NewWatchRouter(down, shared.NewLogger(io.Discard)).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/clip/x", nil))

		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected 502, got %d", rec.Code)
		}
	})
}

func TestServer(t *testing.T) {
	router := NewWatchRouter(services.NewClient("http://127.0.0.1:1", nil, nil), shared.NewLogger(io.Discard))
	srv, err := Listen("127.0.0.1:0", router, shared.NewLogger(io.Discard))
	if err != nil {
		t.Fatalf("Listen failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	resp, err := http.Get(srv.URL() + "/health")
	if err != nil {
		t.Fatalf("health request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("unexpected shutdown error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
