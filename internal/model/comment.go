package model

import "time"

// Comment belongs to exactly one post and disappears with it.
type Comment struct {
	ID       int64     `json:"id"`
	PostID   int64     `json:"postId"`
	AuthorID string    `json:"authorId"`
	Author   string    `json:"author"` // author's username
	Text     string    `json:"text"`
	Created  time.Time `json:"created"`
}

func (c Comment) String() string {
	return truncate(c.Text, DisplayTextLength)
}
