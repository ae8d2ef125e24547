package asyncftp

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"
)

// Session is the control channel of one FTP connection. It owns the reply
// parser and the command queue, and runs a reader goroutine that dispatches
// replies as they arrive.
//
// Issue may be called from any number of goroutines. Commands go out on the
// wire in the order they were issued, each one only after its predecessor
// received its final reply.
type Session struct {
	conn    net.Conn
	logger  *slog.Logger
	metrics MetricsCollector
	timeout time.Duration

	mu       sync.Mutex
	queue    commandQueue
	parser   replyParser
	closed   bool
	closeErr error
	lastSent time.Time
	// transfers with a data channel that has not finished, including ones
	// already popped from the queue on their final reply
	transfers map[*transfer]struct{}

	// done is closed when the reader goroutine exits
	done chan struct{}
}

// newSession binds a session to conn and starts reading from it.
func newSession(conn net.Conn, logger *slog.Logger, metrics MetricsCollector, timeout time.Duration) *Session {
	s := &Session{
		conn:     conn,
		logger:   logger,
		metrics:  metrics,
		timeout:  timeout,
		lastSent: time.Now(),
		done:     make(chan struct{}),
	}
	go s.readLoop()
	return s
}

// Issue queues a command and returns its completion handle. If nothing else
// is queued the text is written at once. The codemap decides which replies
// complete the command successfully.
func (s *Session) Issue(text string, codes Codemap) *Pending {
	p := newPending(maskCommand(text))
	s.enqueue(&command{
		text:    text,
		pending: p,
		d:       &codemapDispatcher{command: p.command, codes: codes, pending: p},
	})
	return p
}

// awaitGreeting queues a command that sends nothing and completes on the
// server's unsolicited greeting.
func (s *Session) awaitGreeting() *Pending {
	p := newPending("CONNECT")
	codes := Codemap{
		Code(ReplyServiceReady): nil,
		On(CategoryInfo):        nil,
		On(CategoryErr):         Reject("CONNECT"),
	}
	s.enqueue(&command{
		silent:  true,
		pending: p,
		d:       &codemapDispatcher{command: p.command, codes: codes, pending: p},
	})
	return p
}

// enqueue appends c to the queue, starting it if it is the head.
func (s *Session) enqueue(c *command) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		c.d.fail(s.closeErr)
		return
	}
	if s.queue.push(c) {
		s.startLocked(c)
	}
}

// startLocked puts the head command's text on the wire.
func (s *Session) startLocked(c *command) {
	c.sent = time.Now()
	if s.timeout > 0 {
		_ = s.conn.SetReadDeadline(c.sent.Add(s.timeout))
	}
	if c.silent {
		return
	}
	s.writeLineLocked(c.text)
}

// writeLineLocked writes one command line. A failed write kills the session.
func (s *Session) writeLineLocked(text string) {
	if s.closed {
		return
	}
	s.logger.Debug("ftp command", "cmd", maskCommand(text))
	if s.timeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.timeout)); err != nil {
			s.shutdownLocked(&TransportError{Op: "set write deadline", Err: err})
			return
		}
	}
	s.lastSent = time.Now()
	if _, err := io.WriteString(s.conn, text+"\r\n"); err != nil {
		s.shutdownLocked(&TransportError{Op: "write command", Err: err})
	}
}

func (s *Session) readLoop() {
	defer close(s.done)

	buf := make([]byte, 4096)
	for {
		n, err := s.conn.Read(buf)
		if n > 0 {
			s.mu.Lock()
			s.parser.feed(buf[:n])
			s.drainLinesLocked()
			s.mu.Unlock()
		}
		if err == nil {
			continue
		}

		s.mu.Lock()
		if s.idleTimeoutLocked(err) {
			s.mu.Unlock()
			continue
		}
		if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
			err = ErrClosed
		}
		s.shutdownLocked(&TransportError{Op: "read reply", Err: err})
		s.mu.Unlock()
		return
	}
}

// idleTimeoutLocked reports whether err is a read deadline that may be
// ignored: nothing is waiting for a reply, or the head command is moving
// data on its own channel (which has deadlines of its own).
func (s *Session) idleTimeoutLocked(err error) bool {
	var ne net.Error
	if !errors.As(err, &ne) || !ne.Timeout() || s.closed {
		return false
	}
	c := s.queue.head()
	if c == nil {
		_ = s.conn.SetReadDeadline(time.Time{})
		return true
	}
	if t, ok := c.d.(interface{ dataActive() bool }); ok && t.dataActive() {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.timeout))
		return true
	}
	return false
}

func (s *Session) drainLinesLocked() {
	for !s.closed {
		line, ok, overflow := s.parser.nextLine()
		if overflow {
			s.logger.Warn("ftp reply line too long, discarded", "limit", MaxLineLength)
			return
		}
		if !ok {
			return
		}
		s.handleLineLocked(line)
	}
}

func (s *Session) handleLineLocked(line string) {
	r, stray := s.parser.add(classifyLine(line))
	if stray {
		s.logger.Debug("ftp discarding unsolicited line", "line", line)
		return
	}
	if r == nil {
		return
	}
	s.logger.Debug("ftp reply", "code", r.Code, "message", r.Message)

	c := s.queue.head()
	if c == nil {
		s.logger.Debug("ftp unsolicited reply", "code", r.Code, "message", r.Message)
		return
	}
	if s.timeout > 0 {
		_ = s.conn.SetReadDeadline(time.Now().Add(s.timeout))
	}

	finished := c.d.dispatch(s, r)
	if r.Category() == CategoryInfo || !finished || s.closed {
		return
	}

	if s.metrics != nil {
		s.metrics.RecordCommand(c.verb(), r.Category() == CategoryOK, time.Since(c.sent))
	}
	next := s.queue.pop()
	if next == nil {
		if s.timeout > 0 {
			_ = s.conn.SetReadDeadline(time.Time{})
		}
		return
	}
	s.startLocked(next)
}

// shutdownLocked fails every queued command and every unfinished data
// transfer with err, drops any partial reply state and closes the
// connection.
func (s *Session) shutdownLocked(err error) {
	if s.closed {
		return
	}
	s.closed = true
	s.closeErr = err
	s.parser.reset()
	pending := s.queue.drain()
	if len(pending) > 0 {
		s.logger.Debug("ftp session closed with commands queued", "count", len(pending), "error", err)
	}
	for _, c := range pending {
		c.d.fail(err)
	}
	for t := range s.transfers {
		t.abortLocked(err)
	}
	_ = s.conn.Close()
}

// trackLocked registers a transfer whose data channel is being opened.
func (s *Session) trackLocked(t *transfer) {
	if s.transfers == nil {
		s.transfers = make(map[*transfer]struct{})
	}
	s.transfers[t] = struct{}{}
}

func (s *Session) untrackLocked(t *transfer) {
	delete(s.transfers, t)
}

// Close closes the control connection. Queued commands fail with an error
// wrapping ErrClosed.
func (s *Session) Close() error {
	s.mu.Lock()
	s.shutdownLocked(&TransportError{Op: "close", Err: ErrClosed})
	s.mu.Unlock()
	<-s.done
	return nil
}

// Done returns a channel closed once the session has stopped reading.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Err returns the error the session closed with, or nil while it is open.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closeErr
}

// idleFor returns how long the session has had nothing queued, or zero when
// a command is in progress.
func (s *Session) idleFor() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.queue.len() > 0 {
		return 0
	}
	return time.Since(s.lastSent)
}
