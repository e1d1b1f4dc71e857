// Package archive keeps the raw text of every classifier response so that a
// misclassified command can be investigated later.
package archive

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"
)

// ObjectPrefix is the folder archived outputs are written under.
const ObjectPrefix = "model-outputs"

// Output is one raw model response.
type Output struct {
	ID        string    `json:"id"`
	Command   string    `json:"command"`
	RawText   string    `json:"raw_text"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

// Sink stores model outputs.
type Sink interface {
	// Store persists out and returns its location.
	Store(ctx context.Context, out *Output) (string, error)
}

// Nop discards outputs. It is used when no bucket is configured.
type Nop struct{}

// Store implements Sink.
func (Nop) Store(ctx context.Context, out *Output) (string, error) {
	return "", nil
}

// ObjectName returns model-outputs/YYYY/MM/DD/<id>.json for out, using the
// UTC creation date.
func ObjectName(out *Output) string {
	return path.Join(ObjectPrefix, out.CreatedAt.UTC().Format("2006/01/02"), out.ID+".json")
}

// ParseURI splits gs://bucket/object into its parts.
func ParseURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}

	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}
