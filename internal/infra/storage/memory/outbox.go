package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "staybook/internal/app/outbox"
	infraoutbox "staybook/internal/infra/outbox"
)

// Outbox stages event records in memory. It doubles as the worker's Store so
// the single-process deployment publishes through the same pipeline as mongo.
type Outbox struct {
	mu      sync.Mutex
	docs    map[string]*infraoutbox.EventDocument
	order   []string
	claimed map[string]bool
}

func NewOutbox() *Outbox {
	return &Outbox{
		docs:    make(map[string]*infraoutbox.EventDocument),
		claimed: make(map[string]bool),
	}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.docs[record.ID] = &infraoutbox.EventDocument{
		ID:          record.ID,
		Name:        record.Name,
		Payload:     record.Payload,
		OccurredAt:  record.OccurredAt,
		Aggregate:   record.Aggregate,
		Headers:     record.Headers,
		NextAttempt: time.Now().UTC(),
	}
	o.order = append(o.order, record.ID)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	return nil
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.EventDocument, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now().UTC()
	for _, id := range o.order {
		doc, ok := o.docs[id]
		if !ok || o.claimed[id] || doc.NextAttempt.After(now) {
			continue
		}
		o.claimed[id] = true
		doc.ClaimedBy = workerID
		doc.ClaimedAt = now
		snapshot := *doc
		return &snapshot, nil
	}
	return nil, nil
}

func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.docs, id)
	delete(o.claimed, id)
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	doc, ok := o.docs[id]
	if !ok {
		return nil
	}
	delete(o.claimed, id)
	doc.Attempts++
	doc.NextAttempt = next
	doc.LastError = errMsg
	return nil
}

// PendingCount reports how many documents await delivery.
func (o *Outbox) PendingCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.docs)
}

var _ appoutbox.Outbox = (*Outbox)(nil)
var _ infraoutbox.Store = (*Outbox)(nil)
