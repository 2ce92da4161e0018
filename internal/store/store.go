// Package store owns the persisted alerting state: the seen-article log and
// recipient preferences. Both are held in memory and written through to a
// ports.BlobStore as JSON.
package store

import (
	"errors"
)

// ErrNotFound is returned by blob stores when a key has never been written.
var ErrNotFound = errors.New("blob not found")

// Blob keys.
const (
	KeySeenArticles         = "seen_articles"
	KeyRecipientPreferences = "recipient_preferences"
	KeyRecipientSet         = "recipient_set"
)
