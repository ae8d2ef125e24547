package asyncftp

import (
	"context"
	"sync"
)

// Pending is the handle of an issued command. It completes exactly once,
// either with the reply that ended the command or with an error.
type Pending struct {
	command string
	done    chan struct{}
	once    sync.Once

	reply *Reply
	data  []byte
	err   error
}

func newPending(command string) *Pending {
	return &Pending{command: command, done: make(chan struct{})}
}

// complete records the outcome. Only the first call has any effect; it
// reports whether it was that call.
func (p *Pending) complete(r *Reply, err error) bool {
	return p.completeData(r, nil, err)
}

func (p *Pending) completeData(r *Reply, data []byte, err error) bool {
	first := false
	p.once.Do(func() {
		p.reply, p.data, p.err = r, data, err
		close(p.done)
		first = true
	})
	return first
}

// Command returns the command text the handle belongs to, with passwords
// masked.
func (p *Pending) Command() string {
	return p.command
}

// Done returns a channel closed when the command has completed.
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the command completes or ctx is done. Giving up on the
// wait does not withdraw the command from the queue.
func (p *Pending) Wait(ctx context.Context) (*Reply, error) {
	select {
	case <-p.done:
		return p.reply, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result returns the outcome of a completed command. It must only be called
// after Done is closed.
func (p *Pending) Result() (*Reply, error) {
	return p.reply, p.err
}

// Data returns the bytes received by a transfer command.
func (p *Pending) Data() []byte {
	<-p.done
	return p.data
}
