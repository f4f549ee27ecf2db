package model

import "time"

// DisplayTextLength is how many characters of a post or comment are used
// when the record is shown as a one-line label (admin lists, logs).
const DisplayTextLength = 15

// Post is a published entry. Author and Group are filled by the repository
// from joined rows so listings never need a second query per post.
type Post struct {
	ID       int64     `json:"id"`
	Text     string    `json:"text"`
	PubDate  time.Time `json:"pubDate"`
	AuthorID string    `json:"authorId"`
	Author   string    `json:"author"` // author's username
	GroupID  *int64    `json:"groupId,omitempty"`
	Group    *Group    `json:"group,omitempty"`
	Image    string    `json:"image,omitempty"` // storage key, empty when no image
}

func (p Post) String() string {
	return truncate(p.Text, DisplayTextLength)
}

// truncate cuts s to n characters, counting runes so multi-byte text is
// never split in the middle of a character.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
