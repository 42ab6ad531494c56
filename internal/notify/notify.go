// Package notify carries short user-facing notifications ("toasts") from the
// controller to whatever presents them: the interactive screen drains a
// Queue, CLI commands print through a Console.
package notify

import (
	"fmt"
	"time"
)

// Kind is the severity of a notification.
type Kind int

const (
	KindInfo Kind = iota
	KindSuccess
	KindWarning
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindWarning:
		return "warning"
	case KindError:
		return "error"
	case KindInfo:
		return "info"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// DefaultDuration is how long a notification stays visible.
const DefaultDuration = 3 * time.Second

type Notification struct {
	Kind    Kind
	Title   string
	Message string
	Time    time.Time
}

// New stamps a notification with the current time.
func New(kind Kind, message string) Notification {
	return Notification{Kind: kind, Message: message, Time: time.Now()}
}

// WithTitle returns a copy of n with a title.
func (n Notification) WithTitle(title string) Notification {
	n.Title = title
	return n
}

func (n Notification) String() string {
	if n.Title == "" {
		return n.Message
	}
	return n.Title + ": " + n.Message
}

// Notifier receives notifications. Implementations must not block.
type Notifier interface {
	Notify(n Notification)
}

// Func adapts a function to Notifier.
type Func func(n Notification)

func (f Func) Notify(n Notification) { f(n) }

// Multi fans a notification out to every non-nil notifier.
type Multi []Notifier

func (m Multi) Notify(n Notification) {
	for _, t := range m {
		if t != nil {
			t.Notify(n)
		}
	}
}

// Discard drops every notification.
var Discard Notifier = Func(func(Notification) {})
