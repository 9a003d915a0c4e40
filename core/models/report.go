package models

import (
	"sort"
	"sync"
	"time"
)

type FileStatus string

const (
	StatusOK     FileStatus = "ok"
	StatusFailed FileStatus = "failed"
)

// FileResult is the outcome of processing one eligible file.
type FileResult struct {
	Mapping PathMapping
	Status  FileStatus
	Kind    ErrorKind
	Err     error
	Cached  bool
}

// Report summarizes one pipeline run. It is safe for concurrent use while the
// run is in progress.
type Report struct {
	SourceRoot string
	DestRoot   string
	Started    time.Time
	Duration   time.Duration

	mu          sync.Mutex
	results     []FileResult
	skipped     []string
	directories []string
}

func NewReport(src, dst string) *Report {
	return &Report{SourceRoot: src, DestRoot: dst, Started: time.Now()}
}

func (r *Report) AddResult(res FileResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, res)
}

func (r *Report) AddSkipped(rel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped = append(r.skipped, rel)
}

func (r *Report) AddDirectory(rel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.directories = append(r.directories, rel)
}

func (r *Report) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Duration = time.Since(r.Started)
}

// Results returns the file results ordered by relative path.
func (r *Report) Results() []FileResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]FileResult(nil), r.results...)
	sort.Slice(out, func(i, j int) bool { return out[i].Mapping.Rel < out[j].Mapping.Rel })
	return out
}

func (r *Report) Succeeded() []FileResult {
	return r.filter(StatusOK)
}

func (r *Report) Failed() []FileResult {
	return r.filter(StatusFailed)
}

func (r *Report) filter(status FileStatus) []FileResult {
	var out []FileResult
	for _, res := range r.Results() {
		if res.Status == status {
			out = append(out, res)
		}
	}
	return out
}

func (r *Report) Skipped() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]string(nil), r.skipped...)
	sort.Strings(out)
	return out
}

func (r *Report) Directories() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := append([]string(nil), r.directories...)
	sort.Strings(out)
	return out
}

func (r *Report) HasFailures() bool {
	return len(r.Failed()) > 0
}
