package weibo

import (
	"encoding/json"
	"weibo-analysis/internal/comments"
	"weibo-analysis/pkg/timezone"
)

// the mobile api answers `ok: -100` when the cookie is missing or expired
const okLoginRequired = -100

type apiUser struct {
	ScreenName string `json:"screen_name"`
}

type apiComment struct {
	ID        json.Number `json:"id"`
	IDStr     string      `json:"idstr"`
	CreatedAt string      `json:"created_at"`
	Text      string      `json:"text"`
	LikeCount *int        `json:"like_count"`
	User      *apiUser    `json:"user"`
}

type apiPage struct {
	Data  []apiComment `json:"data"`
	MaxID int64        `json:"max_id"`
}

type apiResponse struct {
	Ok   int      `json:"ok"`
	Msg  string   `json:"msg"`
	Data *apiPage `json:"data"`
}

// Page is one page of the hot comment flow of a post.
type Page struct {
	Comments []comments.Comment
	// MaxID is the cursor of the next page, 0 when the api gave none.
	MaxID int64
}

func (c apiComment) toComment() comments.Comment {
	id := c.IDStr
	if id == "" {
		id = c.ID.String()
	}
	author := ""
	if c.User != nil {
		author = c.User.ScreenName
	}

	var likes *int
	if c.LikeCount != nil && *c.LikeCount >= 0 {
		n := *c.LikeCount
		likes = &n
	}

	return comments.Comment{
		ID:        id,
		Author:    author,
		Text:      c.Text,
		Timestamp: timezone.Normalize(c.CreatedAt),
		LikeCount: likes,
	}
}

func commentsFromApi(entries []apiComment) []comments.Comment {
	out := make([]comments.Comment, len(entries))
	for i, e := range entries {
		out[i] = e.toComment()
	}
	return out
}
