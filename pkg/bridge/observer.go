package bridge

// Observer receives bridge activity for metrics. Calls happen without the
// bridge lock held and must not block.
type Observer interface {
	CommandQueued(service, action string)
	Flushed(mode string, commands int)
	Dispatched(matched bool)
}

// NoOpObserver discards all activity.
type NoOpObserver struct{}

// CommandQueued is a no-op.
func (NoOpObserver) CommandQueued(_, _ string) {}

// Flushed is a no-op.
func (NoOpObserver) Flushed(_ string, _ int) {}

// Dispatched is a no-op.
func (NoOpObserver) Dispatched(_ bool) {}
