package notify

import (
	"fmt"
	"sync"
)

// Recorder captures notifications for assertions in tests.
type Recorder struct {
	mu     sync.Mutex
	Infos  []string
	Errors []string
	Modals []string
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Info(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Infos = append(r.Infos, fmt.Sprintf(format, args...))
}

func (r *Recorder) Error(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Recorder) Modal(title, detail string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Modals = append(r.Modals, title)
}

// Total returns the number of captured notifications of all kinds.
func (r *Recorder) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Infos) + len(r.Errors) + len(r.Modals)
}
