package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgBlue, color.Bold)
)

// Console prints notifications as single colored lines.
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

var _ Notifier = (*Console)(nil)

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Notify(n Notification) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintf(c.out, "%s %s\n", label(n.Kind), n)
}

func label(k Kind) string {
	switch k {
	case KindSuccess:
		return successColor.Sprint("✔")
	case KindError:
		return errorColor.Sprint("✖")
	case KindWarning:
		return warningColor.Sprint("!")
	default:
		return infoColor.Sprint("i")
	}
}
