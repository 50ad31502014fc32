// Package messenger implements per-recipient prioritised inboxes with
// delivery and acknowledgement tracking (spec.md §4.3).
package messenger

import (
	"fmt"

	"github.com/kandev/kandev/internal/core/coreerr"
)

// Priority ranks a message for deliver_priority. Higher ranks first.
type Priority int

const (
	Normal Priority = iota
	High
	Urgent
)

// ContentKind tags the TypedMessage content union.
type ContentKind int

const (
	Text ContentKind = iota
	TaskAssignment
	StatusRequest
	StatusReport
	Interrupt
	Shutdown
)

// Message is the TypedMessage entity of spec.md §3.
type Message struct {
	ID          int64
	Sender      string
	Recipient   string
	Kind        ContentKind
	Body        string
	Priority    Priority
	CreatedMs   int64
	DeliveredMs *int64
	AckMs       *int64
}

// Stats summarises the messenger's global counters (spec.md §4.3 "stats").
type Stats struct {
	TotalSent      int
	TotalDelivered int
	TotalAcked     int
	Pending        int
}

// Messenger owns every recipient's inbox plus the flat delivered history.
type Messenger struct {
	seq       int64
	inboxes   map[string][]*Message
	delivered []*Message
	acked     int
}

// New creates an empty Messenger.
func New() *Messenger {
	return &Messenger{inboxes: make(map[string][]*Message)}
}

// Send assigns the next monotonic id, appends to the recipient's inbox,
// and returns the id.
func (m *Messenger) Send(sender, recipient string, kind ContentKind, body string, priority Priority, now int64) (int64, error) {
	if recipient == "" {
		return 0, fmt.Errorf("%w: recipient must not be empty", coreerr.ErrInvalidInput)
	}
	m.seq++
	msg := &Message{
		ID:        m.seq,
		Sender:    sender,
		Recipient: recipient,
		Kind:      kind,
		Body:      body,
		Priority:  priority,
		CreatedMs: now,
	}
	m.inboxes[recipient] = append(m.inboxes[recipient], msg)
	return msg.ID, nil
}

// Deliver pops the strict-FIFO head of the agent's inbox.
func (m *Messenger) Deliver(agent string, now int64) (*Message, error) {
	inbox := m.inboxes[agent]
	if len(inbox) == 0 {
		return nil, fmt.Errorf("%w: no pending message for %q", coreerr.ErrNotFound, agent)
	}
	msg := inbox[0]
	m.inboxes[agent] = inbox[1:]
	return m.markDelivered(msg, now), nil
}

// DeliverPriority picks the highest-priority message in the inbox, breaking
// ties by lowest index (oldest).
func (m *Messenger) DeliverPriority(agent string, now int64) (*Message, error) {
	inbox := m.inboxes[agent]
	if len(inbox) == 0 {
		return nil, fmt.Errorf("%w: no pending message for %q", coreerr.ErrNotFound, agent)
	}
	bestIdx := 0
	for i := 1; i < len(inbox); i++ {
		if inbox[i].Priority > inbox[bestIdx].Priority {
			bestIdx = i
		}
	}
	msg := inbox[bestIdx]
	m.inboxes[agent] = append(inbox[:bestIdx:bestIdx], inbox[bestIdx+1:]...)
	return m.markDelivered(msg, now), nil
}

func (m *Messenger) markDelivered(msg *Message, now int64) *Message {
	msg.DeliveredMs = &now
	m.delivered = append(m.delivered, msg)
	return msg
}

// Acknowledge locates the delivered message by id and stamps AckMs. Fails
// if the message was never delivered, or was already acknowledged.
func (m *Messenger) Acknowledge(id int64, now int64) error {
	for _, msg := range m.delivered {
		if msg.ID != id {
			continue
		}
		if msg.DeliveredMs == nil {
			return fmt.Errorf("%w: message %d was never delivered", coreerr.ErrInvalidState, id)
		}
		if msg.AckMs != nil {
			return fmt.Errorf("%w: message %d already acknowledged", coreerr.ErrCapacity, id)
		}
		msg.AckMs = &now
		m.acked++
		return nil
	}
	return fmt.Errorf("%w: message %d", coreerr.ErrNotFound, id)
}

// Stats reports the global send/deliver/ack counters.
func (m *Messenger) Stats() Stats {
	pending := 0
	for _, inbox := range m.inboxes {
		pending += len(inbox)
	}
	return Stats{
		TotalSent:      pending + len(m.delivered),
		TotalDelivered: len(m.delivered),
		TotalAcked:     m.acked,
		Pending:        pending,
	}
}

// CancelInbox removes an inbox entirely, dropping all pending messages and
// returning the dropped count.
func (m *Messenger) CancelInbox(agent string) int {
	n := len(m.inboxes[agent])
	delete(m.inboxes, agent)
	return n
}
