package console

import (
	"context"
	"fmt"
	"io"
	"sync"

	"payments_admin/internal/ports"
)

// Notifier prints alerts on the operator's terminal: "! " for errors and "* "
// otherwise.
type Notifier struct {
	mu  sync.Mutex
	Out io.Writer
}

var _ ports.Notifier = (*Notifier)(nil)

func NewNotifier(out io.Writer) *Notifier {
	return &Notifier{Out: out}
}

func (n *Notifier) Notify(_ context.Context, notice ports.Notice) {
	mark := "*"
	if notice.Level == ports.LevelError {
		mark = "!"
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.Out, "%s %s\n", mark, notice.Message)
}
