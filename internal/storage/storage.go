// Package storage persists uploaded post images and maps their keys to
// public URLs. Posts store only the key; the URL is resolved at render time
// so a bucket or media host can move without rewriting rows.
package storage

import (
	"context"
	"fmt"
	"path"

	"github.com/google/uuid"
)

type Storage interface {
	Upload(ctx context.Context, object *UploadObject) (*UploadResponse, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

type UploadObject struct {
	Prefix string // e.g. "posts"
	Ext    string // including the dot, e.g. ".jpg"
	Mime   string
	Data   []byte
}

type UploadResponse struct {
	Key string
	URL string
}

// objectKey names every upload with a fresh UUID so two uploads never
// overwrite each other.
func objectKey(object *UploadObject) string {
	return path.Join(object.Prefix, fmt.Sprintf("%s%s", uuid.NewString(), object.Ext))
}
