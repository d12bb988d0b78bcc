package store

import "time"

// Meta is the sidecar record committed next to each artifact. SHA256 is
// always populated; ETag/LastModified only when the origin supplied them.
type Meta struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	SHA256       string    `json:"sha256"`
	SizeBytes    int64     `json:"size_bytes"`
	FetchedAt    time.Time `json:"fetched_at"`
}

// Compare reports whether newSHA matches the committed hash. Kept as a named
// seam so "what counts as changed" stays in one place.
func Compare(newSHA string, m Meta) bool {
	return m.SHA256 != "" && m.SHA256 == newSHA
}
