package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/bnema/warehouse-showcase/internal/domain"
	"github.com/bnema/warehouse-showcase/internal/ports"
)

const defaultCapacity = 100

// Entry is a recorded notification with its position in the stream.
type Entry struct {
	Seq uint64
	domain.Notification
}

// Recorder keeps the most recent notifications in memory so clients can
// poll for the ones they have not seen yet.
type Recorder struct {
	mu       sync.RWMutex
	capacity int
	next     uint64
	entries  []Entry
}

var _ ports.Notifier = (*Recorder)(nil)

func NewRecorder(capacity int) *Recorder {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Recorder{capacity: capacity}
}

func (r *Recorder) Notify(n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.next++
	r.entries = append(r.entries, Entry{Seq: r.next, Notification: n})
	if len(r.entries) > r.capacity {
		r.entries = r.entries[len(r.entries)-r.capacity:]
	}
}

// Recent returns the buffered notifications in chronological order.
func (r *Recorder) Recent() []Entry {
	return r.Since(0)
}

// Since returns buffered notifications with a sequence number above seq.
func (r *Recorder) Since(seq uint64) []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.entries))
	for _, entry := range r.entries {
		if entry.Seq > seq {
			out = append(out, entry)
		}
	}
	return out
}

// Logger writes every notification to a structured logger.
type Logger struct {
	logger *slog.Logger
}

var _ ports.Notifier = (*Logger)(nil)

func NewLogger(logger *slog.Logger) *Logger {
	return &Logger{logger: logger}
}

func (l *Logger) Notify(n domain.Notification) {
	level := slog.LevelInfo
	switch n.Level {
	case domain.NotificationWarning:
		level = slog.LevelWarn
	case domain.NotificationError:
		level = slog.LevelError
	}
	l.logger.Log(context.Background(), level, "notification", "title", n.Title, "message", n.Message)
}

// Fanout delivers each notification to every wrapped notifier in order.
type Fanout []ports.Notifier

var _ ports.Notifier = Fanout(nil)

func (f Fanout) Notify(n domain.Notification) {
	for _, notifier := range f {
		if notifier != nil {
			notifier.Notify(n)
		}
	}
}
