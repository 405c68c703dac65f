// Package models defines the data transfer objects exchanged with the clip API.
//
// The API is document-oriented, so identifiers arrive as "_id". Every type here also accepts a plain "id"
// and always encodes "_id", which keeps the client compatible with either form.
//
//   - [User] : public profile of an account
//   - [Clip] : a YouTube video reference with a start/end range
//   - [Comment] : a comment on a clip
//   - [ClipPage] : one page of the feed with the hasMore flag
//   - [NewClip] : upload request body
//   - [LikeResult] : state of a clip's likes after a toggle
package models
