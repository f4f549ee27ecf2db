package model

// Follow is a directed edge: UserID follows AuthorID.
// The pair is unique and self-loops are rejected by the schema.
type Follow struct {
	ID       int64  `json:"id"`
	UserID   string `json:"userId"`
	AuthorID string `json:"authorId"`
}
