package models

import (
	"crypto/md5"
	"fmt"
	"time"
)

// CacheEntry remembers the formatted stub generated for one version of a source file.
type CacheEntry struct {
	FilePath   string    `json:"file_path"`
	SourceHash string    `json:"source_hash"`
	Output     []byte    `json:"output"`
	CreatedAt  time.Time `json:"created_at"`
}

func NewCacheEntry(filePath string, source, output []byte) *CacheEntry {
	return &CacheEntry{
		FilePath:   filePath,
		SourceHash: HashContent(source),
		Output:     output,
		CreatedAt:  time.Now(),
	}
}

// IsValid reports whether the entry was generated from exactly this source.
func (ce *CacheEntry) IsValid(source []byte) bool {
	return ce.SourceHash == HashContent(source)
}

func HashContent(content []byte) string {
	return fmt.Sprintf("%x", md5.Sum(content))
}
