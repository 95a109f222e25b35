// Package media abstracts the object storage holding item media. Publish is
// its only consumer: it checks that the staging object exists and copies it
// to a deterministic public location. Copies are idempotent under
// same-argument replay so a crashed publish can resume safely.
package media

import (
	"context"
	"errors"
	"path"
	"strings"
)

// ErrNotFound indicates the requested media object does not exist.
var ErrNotFound = errors.New("media object not found")

// Store is the object-storage port used by the Publish step.
type Store interface {
	// Exists reports whether an object is present at key.
	Exists(ctx context.Context, key string) (bool, error)

	// Copy duplicates the object at src to dst. Returns ErrNotFound when
	// src is absent. Replaying a copy with identical arguments is a safe
	// no-op: the destination ends up with the source content either way.
	Copy(ctx context.Context, src, dst string) error
}

// PublishedPrefix is the root of the public media namespace.
const PublishedPrefix = "published"

// PublishedKey derives the deterministic public location for an item's
// media: published/<itemID>/<original filename>. Determinism is what makes
// the publish copy resumable after a crash.
func PublishedKey(itemID, stagingKey string) string {
	return path.Join(PublishedPrefix, itemID, BaseName(stagingKey))
}

// BaseName returns the final path element of a media key, with any leading
// slashes stripped first.
func BaseName(key string) string {
	k := strings.TrimLeft(key, "/")
	if k == "" {
		return ""
	}
	return path.Base(k)
}
