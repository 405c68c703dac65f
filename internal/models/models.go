package models

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// User is the profile snapshot returned by the auth and users endpoints.
type User struct {
	ID         string    `json:"_id"`
	Username   string    `json:"username"`
	Email      string    `json:"email,omitempty"`
	Avatar     string    `json:"avatar,omitempty"`
	Bio        string    `json:"bio,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	ClipsCount int       `json:"clipsCount"`
}

// UnmarshalJSON accepts either "_id" or "id" as the identifier.
func (u *User) UnmarshalJSON(data []byte) error {
	type alias User
	aux := struct {
		*alias
		AltID string `json:"id"`
	}{alias: (*alias)(u)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if u.ID == "" {
		u.ID = aux.AltID
	}
	return nil
}

// Clip is a user-submitted reference to a YouTube video with a start/end range.
type Clip struct {
	ID               string    `json:"_id"`
	YouTubeURL       string    `json:"youtubeUrl"`
	YouTubeVideoID   string    `json:"youtubeVideoId"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	StartTime        string    `json:"startTime,omitempty"`
	EndTime          string    `json:"endTime,omitempty"`
	StartTimeSeconds int       `json:"startTimeSeconds"`
	EndTimeSeconds   int       `json:"endTimeSeconds,omitempty"`
	ThumbnailURL     string    `json:"thumbnailUrl,omitempty"`
	Duration         string    `json:"duration,omitempty"`
	User             *User     `json:"user,omitempty"`
	LikesCount       int       `json:"likesCount"`
	CommentsCount    int       `json:"commentsCount"`
	IsLiked          bool      `json:"isLiked"`
	CreatedAt        time.Time `json:"createdAt"`
}

// UnmarshalJSON accepts either "_id" or "id" as the identifier.
func (c *Clip) UnmarshalJSON(data []byte) error {
	type alias Clip
	aux := struct {
		*alias
		AltID string `json:"id"`
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = aux.AltID
	}
	return nil
}

// Thumbnail returns the clip's thumbnail, falling back to the video's high quality default image.
func (c Clip) Thumbnail() string {
	if c.ThumbnailURL != "" {
		return c.ThumbnailURL
	}
	if c.YouTubeVideoID == "" {
		return ""
	}
	return fmt.Sprintf("https://img.youtube.com/vi/%s/hqdefault.jpg", c.YouTubeVideoID)
}

// EmbedURL returns the YouTube embed URL that plays only the clip's range.
//
// end is left empty when the clip plays to the end of the video.
func (c Clip) EmbedURL() string {
	end := ""
	if c.EndTimeSeconds > 0 {
		end = strconv.Itoa(c.EndTimeSeconds)
	}
	return fmt.Sprintf("https://www.youtube.com/embed/%s?start=%d&end=%s&autoplay=1",
		url.PathEscape(c.YouTubeVideoID), c.StartTimeSeconds, end)
}

// WatchURL returns the regular YouTube page for the clip, positioned at its start.
func (c Clip) WatchURL() string {
	if c.YouTubeVideoID == "" {
		return c.YouTubeURL
	}
	return fmt.Sprintf("https://www.youtube.com/watch?v=%s&t=%ds", url.QueryEscape(c.YouTubeVideoID), c.StartTimeSeconds)
}

// Author returns the uploader's username, or "unknown" when the user was not populated.
func (c Clip) Author() string {
	if c.User == nil || c.User.Username == "" {
		return "unknown"
	}
	return c.User.Username
}

// Comment is a comment left on a clip.
type Comment struct {
	ID         string    `json:"_id"`
	Content    string    `json:"content"`
	User       *User     `json:"user,omitempty"`
	LikesCount int       `json:"likesCount"`
	IsLiked    bool      `json:"isLiked"`
	CreatedAt  time.Time `json:"createdAt"`
}

// UnmarshalJSON accepts either "_id" or "id" as the identifier.
func (c *Comment) UnmarshalJSON(data []byte) error {
	type alias Comment
	aux := struct {
		*alias
		AltID string `json:"id"`
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = aux.AltID
	}
	return nil
}

// ClipPage is one page of the feed.
type ClipPage struct {
	Clips   []Clip `json:"clips"`
	HasMore bool   `json:"hasMore"`
}

// LikeResult is the state of a clip's likes after a like toggle.
type LikeResult struct {
	LikesCount int  `json:"likesCount"`
	IsLiked    bool `json:"isLiked"`
}

// NewClip is the request body for uploading a clip.
type NewClip struct {
	YouTubeURL  string `json:"youtubeUrl"`
	Title       string `json:"title"`
	Description string `json:"description"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
}

// Credentials is the request body for logging in.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the request body for creating an account.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResult is returned by login and register.
type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
