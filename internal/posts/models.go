package posts

import "time"

type Group struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// Author is the slice of a user this package needs.
type Author struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type Post struct {
	ID         int64     `json:"id"`
	Text       string    `json:"text"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author"`
	GroupID    *int64    `json:"group_id,omitempty"`
	GroupSlug  string    `json:"group_slug,omitempty"`
	Image      string    `json:"image,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

type Comment struct {
	ID         int64     `json:"id"`
	PostID     int64     `json:"post_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// PostForm carries the create/edit submission. Group and Image are optional.
type PostForm struct {
	Text  string `json:"text" form:"text"`
	Group string `json:"group" form:"group"`
	Image string `json:"image" form:"image"`
}
