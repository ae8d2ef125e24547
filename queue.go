package asyncftp

import (
	"strings"
	"time"
)

// dispatcher decides what a reply means for the command at the head of the
// queue. dispatch runs with the session lock held and reports whether the
// command is finished. fail is called instead when the session dies with the
// command still queued.
type dispatcher interface {
	dispatch(s *Session, r *Reply) (finished bool)
	fail(err error)
}

// command is one entry of the queue. A silent command writes nothing and
// only waits for a reply (the server greeting).
type command struct {
	text    string
	silent  bool
	pending *Pending
	d       dispatcher
	sent    time.Time
}

// verb returns the command name for logs and metrics.
func (c *command) verb() string {
	if c.silent {
		return "GREETING"
	}
	v, _, _ := strings.Cut(c.text, " ")
	return strings.ToUpper(v)
}

// commandQueue is the FIFO of pending commands. Only the head has had its
// text written.
type commandQueue struct {
	items []*command
}

// push appends c and reports whether it became the head.
func (q *commandQueue) push(c *command) bool {
	q.items = append(q.items, c)
	return len(q.items) == 1
}

func (q *commandQueue) head() *command {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

// pop removes the head and returns the new one, if any.
func (q *commandQueue) pop() *command {
	if len(q.items) == 0 {
		return nil
	}
	q.items[0] = nil
	q.items = q.items[1:]
	return q.head()
}

func (q *commandQueue) len() int {
	return len(q.items)
}

// drain empties the queue and returns what was in it.
func (q *commandQueue) drain() []*command {
	items := q.items
	q.items = nil
	return items
}

// codemapDispatcher serves single-step commands: the codemap decides.
type codemapDispatcher struct {
	command string
	codes   Codemap
	pending *Pending
}

func (d *codemapDispatcher) dispatch(s *Session, r *Reply) bool {
	h, ok := d.codes.lookup(r.Code)
	if r.Category() == CategoryInfo {
		if ok && h != nil {
			if err := h(r); err != nil {
				d.pending.complete(nil, err)
			}
		}
		return false
	}

	if !ok {
		d.pending.complete(r, unmappedReply(d.command, r))
		return true
	}
	var err error
	if h != nil {
		err = h(r)
	}
	d.pending.complete(r, err)
	return true
}

func (d *codemapDispatcher) fail(err error) {
	d.pending.complete(nil, err)
}

// unmappedReply is the error for a final reply no handler was registered
// for. Negative replies stay RemoteErrors so that callers always see the
// server's code and message.
func unmappedReply(command string, r *Reply) error {
	if r.Category() == CategoryErr {
		return remoteError(command, r)
	}
	return &ProtocolError{Command: command, Response: r.Message, Code: r.Code}
}

// maskCommand hides the argument of PASS for logs and errors.
func maskCommand(text string) string {
	if len(text) >= 4 && strings.EqualFold(text[:4], "PASS") {
		return "PASS ****"
	}
	return text
}
