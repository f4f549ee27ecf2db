package model

// Group is a topical community a post may belong to.
type Group struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

func (g Group) String() string {
	return g.Title
}
