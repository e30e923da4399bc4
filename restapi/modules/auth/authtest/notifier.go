package authtest

import (
	"context"
	"sync"
)

// Message is one email captured by RecordingNotifier
type Message struct {
	To      string
	Subject string
	Body    string
}

// RecordingNotifier captures sent messages. Err, when set, is returned from Send
// and nothing is recorded.
type RecordingNotifier struct {
	mu       sync.Mutex
	messages []Message

	Err error
}

// Send implements auth.Notifier
func (n *RecordingNotifier) Send(_ context.Context, to, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.Err != nil {
		return n.Err
	}
	n.messages = append(n.messages, Message{To: to, Subject: subject, Body: body})
	return nil
}

// Messages returns a copy of everything sent so far
func (n *RecordingNotifier) Messages() []Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Message(nil), n.messages...)
}

// Last returns the most recent message
func (n *RecordingNotifier) Last() (Message, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.messages) == 0 {
		return Message{}, false
	}
	return n.messages[len(n.messages)-1], true
}
