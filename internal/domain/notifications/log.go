package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCapacity bounds the log to the most recent entries; insertion
// beyond it evicts the oldest.
const DefaultCapacity = 20

var ErrEntryNotFound = errors.New("notification entry not found")

type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Log is a bounded, deduplicated list of leave events, newest first.
// It is a derived projection of the record store and never the source of
// truth for request status. All access goes through its methods; there is
// no ambient shared state.
type Log struct {
	mu       sync.Mutex
	entries  []Entry
	capacity int

	Mailer Mailer
}

func NewLog() *Log {
	return NewLogWithCapacity(DefaultCapacity)
}

func NewLogWithCapacity(capacity int) *Log {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Log{capacity: capacity}
}

// Append records an event. A status-change entry supersedes any earlier
// status-change entry for the same subject request, so the log shows only
// the latest known status per request rather than a history.
func (l *Log) Append(entry Entry) {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	l.mu.Lock()
	if entry.Kind == KindStatusChange {
		kept := l.entries[:0]
		for _, existing := range l.entries {
			if existing.Kind == KindStatusChange && existing.SubjectID == entry.SubjectID {
				continue
			}
			kept = append(kept, existing)
		}
		l.entries = kept
	}

	l.entries = append([]Entry{entry}, l.entries...)
	if len(l.entries) > l.capacity {
		l.entries = l.entries[:l.capacity]
	}
	l.mu.Unlock()

	l.deliver(entry)
}

// ListFor returns the recipient's entries, most recent first.
func (l *Log) ListFor(recipient string) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []Entry
	for _, entry := range l.entries {
		if entry.Recipient == recipient {
			out = append(out, entry)
		}
	}
	return out
}

func (l *Log) MarkRead(entryID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.entries {
		if l.entries[i].ID == entryID {
			l.entries[i].Read = true
			return nil
		}
	}
	return ErrEntryNotFound
}

// MarkAllRead flips every current entry for the recipient. Idempotent.
func (l *Log) MarkAllRead(recipient string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.entries {
		if l.entries[i].Recipient == recipient {
			l.entries[i].Read = true
		}
	}
}

func (l *Log) UnreadCount(recipient string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	count := 0
	for _, entry := range l.entries {
		if entry.Recipient == recipient && !entry.Read {
			count++
		}
	}
	return count
}

func (l *Log) deliver(entry Entry) {
	if l.Mailer == nil || entry.Recipient == AdminAudience {
		return
	}

	subject := "Leave request update"
	body := entry.LeaveType + " leave " + entry.StartDate.Format("2006-01-02") + " to " + entry.EndDate.Format("2006-01-02")
	if entry.Status != "" {
		body += " is now " + entry.Status
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := l.Mailer.Send(ctx, entry.Recipient, subject, body); err != nil {
		slog.Warn("notification email send failed", "entryId", entry.ID, "err", err)
	}
}
