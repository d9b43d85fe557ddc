package bridge

import (
	"sync"

	"errorhelper/internal/chat"
	"errorhelper/internal/models"
)

type Kind string

const (
	KindDetail Kind = "detail"
	KindChat   Kind = "chat"
	KindTree   Kind = "tree"
)

func ParseKind(s string) (Kind, bool) {
	switch Kind(s) {
	case KindDetail, KindChat, KindTree:
		return Kind(s), true
	}
	return "", false
}

// Sender delivers one outbound message to a rendering surface.
type Sender interface {
	Send(msg models.Outbound) error
}

// Panel is one open webview.
type Panel struct {
	ID            string
	Kind          Kind
	FingerprintID string

	session *chat.Session

	mu     sync.Mutex
	sender Sender
	closed bool
}

func (p *Panel) Session() *chat.Session { return p.session }

// Post sends msg unless the panel has been closed; messages to closed panels
// are dropped. It reports whether the message was handed to the sender.
func (p *Panel) Post(msg models.Outbound) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	return p.sender.Send(msg) == nil
}

func (p *Panel) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Panel) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}
