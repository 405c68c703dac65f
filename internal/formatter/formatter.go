// package formatter renders clips, comments and profiles as text, Markdown, CSV and JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/clipx/internal/models"
	"github.com/desertthunder/clipx/internal/shared"
)

// Format names an output encoding.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatJSON     Format = "json"
)

// Formats lists every supported [Format].
var Formats = []Format{FormatText, FormatMarkdown, FormatCSV, FormatJSON}

// ParseFormat accepts a format name or a common alias such as "md" or "txt".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, markdown, csv or json)", shared.ErrInvalidArgument, s)
	}
}

// Ext returns the file extension for f, without the dot.
func (f Format) Ext() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatText:
		return "txt"
	default:
		return string(f)
	}
}

// RelativeTime describes t relative to now: "just now", "5m ago", "3h ago", "2d ago", or the date after a week.
func RelativeTime(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d/time.Hour))
	case d < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(d/(24*time.Hour)))
	default:
		return t.Local().Format("Jan 2, 2006")
	}
}

// FormatSeconds renders seconds as m:ss, or h:mm:ss past an hour.
func FormatSeconds(s int) string {
	if s < 0 {
		s = 0
	}
	h, m, sec := s/3600, (s%3600)/60, s%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, sec)
	}
	return fmt.Sprintf("%d:%02d", m, sec)
}

// ClipRange renders the clip's start and end, e.g. "0:43-1:05" or "0:43-end".
func ClipRange(c models.Clip) string {
	end := "end"
	if c.EndTimeSeconds > 0 {
		end = FormatSeconds(c.EndTimeSeconds)
	}
	return FormatSeconds(c.StartTimeSeconds) + "-" + end
}

// Likes renders a like count, marking the viewer's own like.
func Likes(n int, liked bool) string {
	s := shared.Plural(n, "like", "likes")
	if liked {
		s += " (liked)"
	}
	return s
}

// ClipLine renders a one-line feed entry.
func ClipLine(c models.Clip, now time.Time) string {
	return fmt.Sprintf("%s  @%s · %s · %s · %s · %s",
		c.Title, c.Author(), ClipRange(c),
		Likes(c.LikesCount, c.IsLiked), shared.Plural(c.CommentsCount, "comment", "comments"),
		RelativeTime(c.CreatedAt, now))
}

// ClipsToText renders the feed as a numbered list.
func ClipsToText(clips []models.Clip, now time.Time) []byte {
	var buf bytes.Buffer
	for i, c := range clips {
		fmt.Fprintf(&buf, "%3d. %s\n     id: %s\n", i+1, ClipLine(c, now), c.ID)
	}
	return buf.Bytes()
}

// ClipDetail renders a clip with its comments.
func ClipDetail(c models.Clip, comments []models.Comment, now time.Time) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "%s\n", c.Title)
	fmt.Fprintf(&buf, "by @%s, %s\n\n", c.Author(), RelativeTime(c.CreatedAt, now))
	if c.Description != "" {
		fmt.Fprintf(&buf, "%s\n\n", c.Description)
	}
	fmt.Fprintf(&buf, "Range:     %s\n", ClipRange(c))
	fmt.Fprintf(&buf, "Video:     %s\n", c.WatchURL())
	fmt.Fprintf(&buf, "Embed:     %s\n", c.EmbedURL())
	fmt.Fprintf(&buf, "Thumbnail: %s\n", c.Thumbnail())
	fmt.Fprintf(&buf, "Likes:     %s\n", Likes(c.LikesCount, c.IsLiked))

	if comments != nil {
		buf.WriteString("\n")
		buf.Write(CommentsToText(comments, now))
	}
	return buf.Bytes()
}

// CommentsToText renders a comment thread.
func CommentsToText(comments []models.Comment, now time.Time) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Comments (%d)\n", len(comments))
	if len(comments) == 0 {
		buf.WriteString("  No comments yet.\n")
	}
	for _, cm := range comments {
		author := "unknown"
		if cm.User != nil && cm.User.Username != "" {
			author = cm.User.Username
		}
		fmt.Fprintf(&buf, "  @%s · %s\n    %s\n", author, RelativeTime(cm.CreatedAt, now), cm.Content)
	}
	return buf.Bytes()
}

// ProfileToText renders a user's profile and uploads.
func ProfileToText(u models.User, clips []models.Clip, now time.Time) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "@%s\n", u.Username)
	if u.Bio != "" {
		fmt.Fprintf(&buf, "%s\n", u.Bio)
	}
	if !u.CreatedAt.IsZero() {
		fmt.Fprintf(&buf, "Joined %s\n", u.CreatedAt.Local().Format("January 2006"))
	}
	fmt.Fprintf(&buf, "%s\n\n", shared.Plural(u.ClipsCount, "clip", "clips"))

	if len(clips) == 0 {
		buf.WriteString("No clips yet.\n")
		return buf.Bytes()
	}
	buf.Write(ClipsToText(clips, now))
	return buf.Bytes()
}

// ClipsToCSV converts clips to CSV with a header row.
func ClipsToCSV(clips []models.Clip) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Author", "VideoID", "Start", "End", "Likes", "Comments", "URL", "CreatedAt"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, c := range clips {
		record := []string{
			c.ID,
			c.Title,
			c.Author(),
			c.YouTubeVideoID,
			strconv.Itoa(c.StartTimeSeconds),
			strconv.Itoa(c.EndTimeSeconds),
			strconv.Itoa(c.LikesCount),
			strconv.Itoa(c.CommentsCount),
			c.WatchURL(),
			c.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ClipsToMarkdown renders clips as a Markdown document with thumbnails.
func ClipsToMarkdown(title string, clips []models.Clip) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Clips**: %d\n\n", len(clips))

	for i, c := range clips {
		fmt.Fprintf(&buf, "## %d. %s\n\n", i+1, c.Title)
		fmt.Fprintf(&buf, "[![%s](%s)](%s)\n\n", c.Title, c.Thumbnail(), c.WatchURL())
		fmt.Fprintf(&buf, "- **By**: @%s\n", c.Author())
		fmt.Fprintf(&buf, "- **Range**: %s\n", ClipRange(c))
		fmt.Fprintf(&buf, "- **Likes**: %d · **Comments**: %d\n", c.LikesCount, c.CommentsCount)
		if c.Description != "" {
			fmt.Fprintf(&buf, "\n%s\n", c.Description)
		}
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

// MarshalJSON encodes v, indented when pretty is set.
func MarshalJSON(v any, pretty bool) ([]byte, error) {
	if pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

// ExportClips renders clips in format.
func ExportClips(clips []models.Clip, format Format, now time.Time) ([]byte, error) {
	switch format {
	case FormatText:
		return ClipsToText(clips, now), nil
	case FormatMarkdown:
		return ClipsToMarkdown("Clips", clips), nil
	case FormatCSV:
		return ClipsToCSV(clips)
	case FormatJSON:
		return MarshalJSON(clips, true)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteClipsExport writes clips to path in format and returns the path written.
//
// Defaults to clips.{ext} in the working directory.
func WriteClipsExport(clips []models.Clip, format Format, path string, now time.Time) (string, error) {
	if path == "" {
		path = "clips." + format.Ext()
	}

	data, err := ExportClips(clips, format, now)
	if err != nil {
		return "", fmt.Errorf("failed to render %s: %w", format, err)
	}

	if err := shared.EnsureDir(path); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}
