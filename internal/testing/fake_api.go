package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/clipx/internal/models"
	"github.com/desertthunder/clipx/internal/validation"
)

// RecordedRequest is what [FakeAPI] saw of an incoming request.
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
	RequestID     string
}

// FakeAPI is an in-memory clip API served over httptest.
type FakeAPI struct {
	*httptest.Server

	mu        sync.Mutex
	users     map[string]*models.User
	passwords map[string]string // email -> password
	tokens    map[string]string // token -> user id
	clips     []*models.Clip
	comments  map[string][]models.Comment
	likes     map[string]map[string]bool // clip id -> user id set
	requests  []RecordedRequest
	status    int
	delay     time.Duration
	seq       int
}

// NewFakeAPI starts a [FakeAPI] that is closed when the test ends.
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()

	f := &FakeAPI{
		users:     map[string]*models.User{},
		passwords: map[string]string{},
		tokens:    map[string]string{},
		comments:  map[string][]models.Comment{},
		likes:     map[string]map[string]bool{},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", f.login)
	mux.HandleFunc("POST /api/auth/register", f.register)
	mux.HandleFunc("GET /api/auth/me", f.me)
	mux.HandleFunc("GET /api/clips", f.listClips)
	mux.HandleFunc("POST /api/clips", f.createClip)
	mux.HandleFunc("GET /api/clips/{id}", f.getClip)
	mux.HandleFunc("POST /api/clips/{id}/like", f.like)
	mux.HandleFunc("GET /api/clips/{id}/comments", f.listComments)
	mux.HandleFunc("POST /api/clips/{id}/comments", f.addComment)
	mux.HandleFunc("GET /api/clips/user/{id}", f.userClips)
	mux.HandleFunc("GET /api/users/{id}", f.getUser)

	f.Server = httptest.NewServer(f.record(mux))
	t.Cleanup(f.Close)
	return f
}

// AddUser registers a user that can log in with email and password and returns its token.
func (f *FakeAPI) AddUser(u models.User, password string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.addUser(u, password)
}

func (f *FakeAPI) addUser(u models.User, password string) string {
	if u.ID == "" {
		f.seq++
		u.ID = fmt.Sprintf("u%d", f.seq)
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	f.users[u.ID] = &u
	if u.Email != "" {
		f.passwords[u.Email] = password
	}
	token := "tok-" + u.ID
	f.tokens[token] = u.ID
	return token
}

// AddClip appends a clip to the feed. Feeds are served newest first, so later clips come first.
func (f *FakeAPI) AddClip(c models.Clip) models.Clip {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == "" {
		f.seq++
		c.ID = fmt.Sprintf("c%d", f.seq)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	f.clips = append([]*models.Clip{&c}, f.clips...)
	return c
}

// AddComment attaches a comment to a clip.
func (f *FakeAPI) AddComment(clipID string, c models.Comment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.comments[clipID] = append(f.comments[clipID], c)
}

// FailWith makes every request answer status until reset with 0.
func (f *FakeAPI) FailWith(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

// Delay holds every response for d.
func (f *FakeAPI) Delay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

// Requests returns a copy of every request received so far.
func (f *FakeAPI) Requests() []RecordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]RecordedRequest(nil), f.requests...)
}

func (f *FakeAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.requests = append(f.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
		})
		status, delay := f.status, f.delay
		f.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		if status != 0 {
			writeError(w, status, "forced failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// authUser must be called with mu held.
func (f *FakeAPI) authUser(r *http.Request) *models.User {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return nil
	}
	id, ok := f.tokens[token]
	if !ok {
		return nil
	}
	return f.users[id]
}

func (f *FakeAPI) login(w http.ResponseWriter, r *http.Request) {
	var creds models.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	pw, ok := f.passwords[creds.Email]
	if !ok || pw != creds.Password {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}
	for token, id := range f.tokens {
		if u := f.users[id]; u != nil && u.Email == creds.Email {
			writeJSON(w, http.StatusOK, map[string]any{"token": token, "user": u})
			return
		}
	}
	writeError(w, http.StatusInternalServerError, "token missing")
}

func (f *FakeAPI) register(w http.ResponseWriter, r *http.Request) {
	var reg models.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.passwords[reg.Email]; exists {
		writeError(w, http.StatusBadRequest, "User already exists")
		return
	}
	token := f.addUser(models.User{Username: reg.Username, Email: reg.Email}, reg.Password)
	writeJSON(w, http.StatusCreated, map[string]any{"token": token, "user": f.users[f.tokens[token]]})
}

func (f *FakeAPI) me(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u := f.authUser(r)
	if u == nil {
		writeError(w, http.StatusUnauthorized, "Token is not valid")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": u})
}

// view returns a copy of c with isLiked computed for viewer.
func (f *FakeAPI) view(c *models.Clip, viewer *models.User) models.Clip {
	out := *c
	out.LikesCount = len(f.likes[c.ID])
	out.CommentsCount = len(f.comments[c.ID])
	out.IsLiked = viewer != nil && f.likes[c.ID][viewer.ID]
	return out
}

func (f *FakeAPI) listClips(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	viewer := f.authUser(r)
	start := min((page-1)*limit, len(f.clips))
	end := min(start+limit, len(f.clips))

	clips := make([]models.Clip, 0, end-start)
	for _, c := range f.clips[start:end] {
		clips = append(clips, f.view(c, viewer))
	}
	writeJSON(w, http.StatusOK, map[string]any{"clips": clips, "hasMore": end < len(f.clips)})
}

func (f *FakeAPI) findClip(id string) *models.Clip {
	for _, c := range f.clips {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (f *FakeAPI) getClip(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c := f.findClip(r.PathValue("id"))
	if c == nil {
		writeError(w, http.StatusNotFound, "Clip not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"clip": f.view(c, f.authUser(r))})
}

// videoID extracts the id from watch?v= and youtu.be links.
func videoID(raw string) string {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if v := u.Query().Get("v"); v != "" {
		return v
	}
	return strings.Trim(u.Path, "/")
}

func (f *FakeAPI) createClip(w http.ResponseWriter, r *http.Request) {
	var nc models.NewClip
	if err := json.NewDecoder(r.Body).Decode(&nc); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	u := f.authUser(r)
	if u == nil {
		writeError(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}

	start, err := validation.ParseTimestamp(nc.StartTime)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start time")
		return
	}
	end := 0
	if nc.EndTime != "" {
		if end, err = validation.ParseTimestamp(nc.EndTime); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid end time")
			return
		}
	}

	f.seq++
	c := &models.Clip{
		ID:               fmt.Sprintf("c%d", f.seq),
		YouTubeURL:       nc.YouTubeURL,
		YouTubeVideoID:   videoID(nc.YouTubeURL),
		Title:            nc.Title,
		Description:      nc.Description,
		StartTime:        nc.StartTime,
		EndTime:          nc.EndTime,
		StartTimeSeconds: start,
		EndTimeSeconds:   end,
		User:             u,
		CreatedAt:        time.Now().UTC(),
	}
	f.clips = append([]*models.Clip{c}, f.clips...)
	u.ClipsCount++
	writeJSON(w, http.StatusCreated, map[string]any{"clip": f.view(c, u)})
}

func (f *FakeAPI) like(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u := f.authUser(r)
	if u == nil {
		writeError(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}
	c := f.findClip(r.PathValue("id"))
	if c == nil {
		writeError(w, http.StatusNotFound, "Clip not found")
		return
	}

	set, ok := f.likes[c.ID]
	if !ok {
		set = map[string]bool{}
		f.likes[c.ID] = set
	}
	if set[u.ID] {
		delete(set, u.ID)
	} else {
		set[u.ID] = true
	}
	writeJSON(w, http.StatusOK, models.LikeResult{LikesCount: len(set), IsLiked: set[u.ID]})
}

func (f *FakeAPI) listComments(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := r.PathValue("id")
	if f.findClip(id) == nil {
		writeError(w, http.StatusNotFound, "Clip not found")
		return
	}
	comments := append([]models.Comment{}, f.comments[id]...)
	writeJSON(w, http.StatusOK, map[string]any{"comments": comments})
}

func (f *FakeAPI) addComment(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Content == "" {
		writeError(w, http.StatusBadRequest, "Comment content is required")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	u := f.authUser(r)
	if u == nil {
		writeError(w, http.StatusUnauthorized, "No token, authorization denied")
		return
	}
	id := r.PathValue("id")
	if f.findClip(id) == nil {
		writeError(w, http.StatusNotFound, "Clip not found")
		return
	}

	f.seq++
	c := models.Comment{ID: fmt.Sprintf("m%d", f.seq), Content: body.Content, User: u, CreatedAt: time.Now().UTC()}
	f.comments[id] = append([]models.Comment{c}, f.comments[id]...)
	writeJSON(w, http.StatusCreated, map[string]any{"comment": c})
}

func (f *FakeAPI) getUser(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[r.PathValue("id")]
	if !ok {
		writeError(w, http.StatusNotFound, "User not found")
		return
	}
	public := *u
	public.Email = ""
	writeJSON(w, http.StatusOK, map[string]any{"user": public})
}

func (f *FakeAPI) userClips(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id := r.PathValue("id")
	viewer := f.authUser(r)
	clips := []models.Clip{}
	for _, c := range f.clips {
		if c.User != nil && c.User.ID == id {
			clips = append(clips, f.view(c, viewer))
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"clips": clips})
}
