package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"

	"github.com/desertthunder/clipx/internal/formatter"
	"github.com/desertthunder/clipx/internal/models"
)

var _ list.Item = clipItem{}

// clipItem wraps [models.Clip] to implement [list.Item].
type clipItem struct {
	clip models.Clip
	now  time.Time
}

func (i clipItem) FilterValue() string { return i.clip.Title }
func (i clipItem) Title() string       { return i.clip.Title }
func (i clipItem) Description() string {
	return fmt.Sprintf("@%s • %s • %s • %s",
		i.clip.Author(),
		formatter.ClipRange(i.clip),
		formatter.Likes(i.clip.LikesCount, i.clip.IsLiked),
		formatter.RelativeTime(i.clip.CreatedAt, i.now),
	)
}

func clipItems(clips []models.Clip, now time.Time) []list.Item {
	items := make([]list.Item, len(clips))
	for i, c := range clips {
		items[i] = clipItem{clip: c, now: now}
	}
	return items
}
