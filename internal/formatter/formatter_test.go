package formatter

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/clipx/internal/models"
	"github.com/desertthunder/clipx/internal/shared"
	th "github.com/desertthunder/clipx/internal/testing"
)

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func sampleClips() []models.Clip {
	return []models.Clip{
		{
			ID:               "c1",
			Title:            "Chorus",
			Description:      "Best part",
			YouTubeVideoID:   "dQw4w9WgXcQ",
			StartTimeSeconds: 43,
			EndTimeSeconds:   65,
			LikesCount:       1,
			CommentsCount:    2,
			IsLiked:          true,
			User:             &models.User{ID: "u1", Username: "alice"},
			CreatedAt:        now.Add(-3 * time.Hour),
		},
		{
			ID:             "c2",
			Title:          "Intro, \"cold open\"",
			YouTubeVideoID: "abc",
			LikesCount:     0,
			CreatedAt:      now.Add(-30 * time.Second),
		},
	}
}

func TestRelativeTime(t *testing.T) {
	tc := []struct {
		ago  time.Duration
		want string
	}{
		{ago: 0, want: "just now"},
		{ago: 59 * time.Second, want: "just now"},
		{ago: time.Minute, want: "1m ago"},
		{ago: 59 * time.Minute, want: "59m ago"},
		{ago: time.Hour, want: "1h ago"},
		{ago: 23 * time.Hour, want: "23h ago"},
		{ago: 24 * time.Hour, want: "1d ago"},
		{ago: 6 * 24 * time.Hour, want: "6d ago"},
	}

	for _, tt := range tc {
		t.Run(tt.want, func(t *testing.T) {
			if got := RelativeTime(now.Add(-tt.ago), now); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}

	t.Run("After A Week Shows The Date", func(t *testing.T) {
		got := RelativeTime(now.Add(-8*24*time.Hour), now)
		if strings.Contains(got, "ago") || !strings.Contains(got, "2025") {
			t.Errorf("expected a date, got %q", got)
		}
	})
}

func TestFormatSeconds(t *testing.T) {
	tc := map[int]string{0: "0:00", 5: "0:05", 65: "1:05", 3600: "1:00:00", 5445: "1:30:45", -3: "0:00"}
	for in, want := range tc {
		if got := FormatSeconds(in); got != want {
			t.Errorf("FormatSeconds(%d): expected %s, got %s", in, want, got)
		}
	}

	if got := ClipRange(sampleClips()[0]); got != "0:43-1:05" {
		t.Errorf("unexpected range %s", got)
	}
	if got := ClipRange(sampleClips()[1]); got != "0:00-end" {
		t.Errorf("unexpected open range %s", got)
	}
}

func TestParseFormat(t *testing.T) {
	tc := map[string]Format{"": FormatText, "txt": FormatText, "MD": FormatMarkdown, "csv": FormatCSV, " json ": FormatJSON}
	for in, want := range tc {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q): expected %s, got %s (%v)", in, want, got, err)
		}
	}

	if _, err := ParseFormat("xml"); !errors.Is(err, shared.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestExporters(t *testing.T) {
	clips := sampleClips()

	t.Run("ClipsToText", func(t *testing.T) {
		output := string(ClipsToText(clips, now))

		for _, want := range []string{"1. Chorus", "@alice", "1 like (liked)", "2 comments", "3h ago", "id: c1", "@unknown", "0 likes", "just now"} {
			if !strings.Contains(output, want) {
				t.Errorf("text output missing %q:\n%s", want, output)
			}
		}
	})

	t.Run("ClipsToCSV", func(t *testing.T) {
		data, err := ClipsToCSV(clips)
		if err != nil {
			t.Fatalf("ClipsToCSV failed: %v", err)
		}
		output := string(data)

		if !strings.HasPrefix(output, "ID,Title,Author,VideoID,Start,End,Likes,Comments,URL,CreatedAt") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "c1,Chorus,alice,dQw4w9WgXcQ,43,65,1,2,") {
			t.Errorf("CSV missing clip row, got: %s", output)
		}
		if !strings.Contains(output, `"Intro, ""cold open"""`) {
			t.Errorf("CSV did not quote title, got: %s", output)
		}
	})

	t.Run("ClipsToMarkdown", func(t *testing.T) {
		output := string(ClipsToMarkdown("Feed", clips))

		for _, want := range []string{
			"# Feed",
			"**Clips**: 2",
			"## 1. Chorus",
			"https://img.youtube.com/vi/dQw4w9WgXcQ/hqdefault.jpg",
			"- **Range**: 0:43-1:05",
			"Best part",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("markdown missing %q:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportClips(clips, FormatJSON, now)
		if err != nil {
			t.Fatalf("ExportClips failed: %v", err)
		}

		var decoded []models.Clip
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if len(decoded) != 2 || decoded[0].ID != "c1" {
			t.Errorf("unexpected decoded clips: %+v", decoded)
		}
	})

	t.Run("ClipDetail", func(t *testing.T) {
		comments := []models.Comment{{Content: "love it", User: &models.User{Username: "bob"}, CreatedAt: now.Add(-2 * time.Minute)}}
		output := string(ClipDetail(clips[0], comments, now))

		for _, want := range []string{
			"Chorus",
			"by @alice, 3h ago",
			"https://www.youtube.com/embed/dQw4w9WgXcQ?start=43&end=65&autoplay=1",
			"Comments (1)",
			"@bob · 2m ago",
			"love it",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("detail missing %q:\n%s", want, output)
			}
		}
	})

	t.Run("CommentsToText Empty", func(t *testing.T) {
		if output := string(CommentsToText(nil, now)); !strings.Contains(output, "No comments yet.") {
			t.Errorf("expected empty state, got %q", output)
		}
	})

	t.Run("ProfileToText", func(t *testing.T) {
		u := models.User{Username: "alice", Bio: "clips all day", ClipsCount: 1, CreatedAt: now}
		output := string(ProfileToText(u, clips[:1], now))

		for _, want := range []string{"@alice", "clips all day", "1 clip\n", "Chorus"} {
			if !strings.Contains(output, want) {
				t.Errorf("profile missing %q:\n%s", want, output)
			}
		}

		empty := string(ProfileToText(models.User{Username: "bob"}, nil, now))
		if !strings.Contains(empty, "No clips yet.") {
			t.Errorf("expected empty profile state, got %q", empty)
		}
	})
}

func TestWriteClipsExport(t *testing.T) {
	clips := sampleClips()

	t.Run("WithCustomPath", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out", "feed.csv")

		got, err := WriteClipsExport(clips, FormatCSV, path, now)
		if err != nil {
			t.Fatalf("WriteClipsExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}
		th.AssertFileExists(t, path)
		if content := th.MustReadFile(t, path); !strings.Contains(content, "Chorus") {
			t.Errorf("export missing clip, got %s", content)
		}
	})

	t.Run("WithDefaultPath", func(t *testing.T) {
		t.Chdir(t.TempDir())

		got, err := WriteClipsExport(clips, FormatMarkdown, "", now)
		if err != nil {
			t.Fatalf("WriteClipsExport failed: %v", err)
		}
		if got != "clips.md" {
			t.Errorf("expected clips.md, got %s", got)
		}
		th.AssertFileExists(t, got)
	})

	t.Run("InvalidFormat", func(t *testing.T) {
		if _, err := WriteClipsExport(clips, Format("xml"), filepath.Join(t.TempDir(), "x"), now); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
