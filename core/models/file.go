package models

// PathMapping pairs one eligible source file with its destination. Rel is the
// slash-separated path relative to the source root and is identical for both.
type PathMapping struct {
	Source string
	Dest   string
	Rel    string
}
