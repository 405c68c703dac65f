package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/desertthunder/clipx/internal/models"
	"github.com/desertthunder/clipx/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
	err  error
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPageLoaded MsgKind = iota
	MsgClipLoaded
	MsgLikeToggled
	MsgBrowserOpened
)

type likeToggled struct {
	clipID string
	result *models.LikeResult
}

// pageLoadedMsg is the constructor for [MsgPageLoaded]
func pageLoadedMsg(added []models.Clip, err error) Msg {
	return Msg{kind: MsgPageLoaded, data: added, err: err}
}

// clipLoadedMsg is the constructor for [MsgClipLoaded]
func clipLoadedMsg(thread *tasks.ClipThread, err error) Msg {
	return Msg{kind: MsgClipLoaded, data: thread, err: err}
}

// likeToggledMsg is the constructor for [MsgLikeToggled]
func likeToggledMsg(clipID string, result *models.LikeResult, err error) Msg {
	return Msg{kind: MsgLikeToggled, data: likeToggled{clipID: clipID, result: result}, err: err}
}

// browserOpenedMsg is the constructor for [MsgBrowserOpened]
func browserOpenedMsg(url string, err error) Msg {
	return Msg{kind: MsgBrowserOpened, data: url, err: err}
}
