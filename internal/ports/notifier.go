package ports

import "context"

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notice is a user-visible alert.
type Notice struct {
	Level   Level
	Message string
}

type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Notice) {}
