package models

// City is a shared, append-only reference table keyed by name. Rows are
// created lazily on first reference from either the weather or the
// subscription flow and are never deleted here.
type City struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
