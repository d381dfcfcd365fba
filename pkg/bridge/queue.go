package bridge

import "github.com/morezero/webview-bridge/pkg/wire"

// commandQueue is a FIFO of commands not yet handed to the host.
type commandQueue struct {
	cmds []wire.Command
}

func (q *commandQueue) enqueue(cmd wire.Command) {
	q.cmds = append(q.cmds, cmd)
}

// drain removes and returns the commands present now. Later enqueues start a fresh slice.
func (q *commandQueue) drain() []wire.Command {
	cmds := q.cmds
	q.cmds = nil
	return cmds
}

func (q *commandQueue) size() int {
	return len(q.cmds)
}
