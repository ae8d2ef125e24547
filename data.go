package asyncftp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gonzalop/asyncftp/internal/ratelimit"
)

// pasvRegex matches the PASV response format: 227 Entering Passive Mode (h1,h2,h3,h4,p1,p2)
var pasvRegex = regexp.MustCompile(`\((\d+),(\d+),(\d+),(\d+),(\d+),(\d+)\)`)

// PassiveAddress is the data connection endpoint announced in a 227 reply.
type PassiveAddress struct {
	IP   net.IP
	Port int
}

// String returns the address in host:port form.
func (a PassiveAddress) String() string {
	return net.JoinHostPort(a.IP.String(), strconv.Itoa(a.Port))
}

// ParsePassiveAddress extracts the address from the text of a PASV reply.
// Example: "Entering Passive Mode (192,168,1,1,195,149)"
// Returns: 192.168.1.1:50069 (195*256 + 149 = 50069)
func ParsePassiveAddress(message string) (PassiveAddress, error) {
	matches := pasvRegex.FindStringSubmatch(message)
	if len(matches) != 7 {
		return PassiveAddress{}, fmt.Errorf("invalid PASV response: %s", message)
	}

	var parts [6]int
	for i := range parts {
		val, err := strconv.Atoi(matches[i+1])
		if err != nil || val < 0 || val > 255 {
			return PassiveAddress{}, fmt.Errorf("invalid PASV field: %s", matches[i+1])
		}
		parts[i] = val
	}

	return PassiveAddress{
		IP:   net.IPv4(byte(parts[0]), byte(parts[1]), byte(parts[2]), byte(parts[3])).To4(),
		Port: parts[4]*256 + parts[5],
	}, nil
}

// resolveDataAddr returns the address to dial. If the server announced
// 0.0.0.0 it is replaced with the control connection host.
func resolveDataAddr(a PassiveAddress, controlHost string) string {
	if a.IP.IsUnspecified() && controlHost != "" {
		return net.JoinHostPort(controlHost, strconv.Itoa(a.Port))
	}
	return a.String()
}

// Dialer opens transport connections. *net.Dialer implements it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// broker opens data channels for transfers. It holds the settings shared by
// every transfer of a client.
type broker struct {
	dialer   Dialer
	host     string
	timeout  time.Duration
	limiter  *ratelimit.Limiter
	progress func(command string, transferred int64)
	logger   *slog.Logger
	metrics  MetricsCollector
}

// dial connects to a data address, applying the client timeout.
func (b *broker) dial(ctx context.Context, addr string) (net.Conn, error) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}
	conn, err := b.dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}
	if b.timeout > 0 {
		return &deadlineConn{Conn: conn, timeout: b.timeout}, nil
	}
	return conn, nil
}

type transferDirection int

const (
	directionReceive transferDirection = iota
	directionSend
)

// transferState tracks where a data transfer is in the passive handshake.
type transferState int

const (
	stateAwaitingPasv transferState = iota
	stateAwaitingStart
	stateAwaitingEnd
	stateFinished
)

func (s transferState) String() string {
	switch s {
	case stateAwaitingPasv:
		return "awaiting-pasv"
	case stateAwaitingStart:
		return "awaiting-start"
	case stateAwaitingEnd:
		return "awaiting-end"
	}
	return "finished"
}

// transfer is the queue entry of a command that needs a data channel. It
// starts as PASV and, on the 227 reply, writes its real command while
// staying at the head of the queue.
//
// Fields below mu-guarded are protected by the session lock.
type transfer struct {
	s       *Session
	b       *broker
	dir     transferDirection
	command string
	payload io.Reader
	// sink, when set, receives the data of a receive transfer instead of
	// the in-memory buffer
	sink    io.Writer
	pending *Pending

	ctx    context.Context
	cancel context.CancelFunc
	// start is closed when a send may write its payload
	start chan struct{}
	// exited is closed when the data goroutine returns
	exited chan struct{}
	moved  atomic.Int64

	// mu-guarded
	state       transferState
	started     bool
	aborted     bool
	conn        net.Conn
	opened      time.Time
	dataDone    bool
	data        []byte
	controlDone bool
	final       *Reply
}

func newTransfer(s *Session, b *broker, dir transferDirection, command string, payload io.Reader) *transfer {
	ctx, cancel := context.WithCancel(context.Background())
	return &transfer{
		s:       s,
		b:       b,
		dir:     dir,
		command: command,
		payload: payload,
		pending: newPending(command),
		ctx:     ctx,
		cancel:  cancel,
		start:   make(chan struct{}),
		exited:  make(chan struct{}),
	}
}

// enqueue queues the transfer on its session.
func (t *transfer) enqueue() *Pending {
	t.s.enqueue(&command{text: "PASV", pending: t.pending, d: t})
	return t.pending
}

func (t *transfer) dispatch(s *Session, r *Reply) bool {
	if t.state == stateAwaitingPasv {
		return t.dispatchPasv(s, r)
	}

	switch r.Category() {
	case CategoryInfo:
		if t.state == stateAwaitingStart && (r.Code == ReplyFileStatusOkay || r.Code == ReplyDataConnectionAlreadyOpen) {
			t.state = stateAwaitingEnd
			if t.dir == directionSend {
				close(t.start)
			}
		}
		return false
	case CategoryOK:
		t.controlDone = true
		t.final = r
		if t.dir == directionSend || t.dataDone {
			t.deliverLocked()
		}
		return true
	case CategoryErr:
		t.abortLocked(remoteError(t.command, r))
		return true
	}
	t.abortLocked(&ProtocolError{Command: t.command, Response: r.Message, Code: r.Code})
	return true
}

func (t *transfer) dispatchPasv(s *Session, r *Reply) bool {
	switch r.Category() {
	case CategoryInfo:
		return false
	case CategoryErr:
		t.abortLocked(remoteError("PASV", r))
		return true
	}
	if r.Code != ReplyEnteringPassiveMode {
		t.abortLocked(&ProtocolError{Command: "PASV", Response: r.Message, Code: r.Code})
		return true
	}

	addr, err := ParsePassiveAddress(r.Message)
	if err != nil {
		t.abortLocked(&ProtocolError{Command: "PASV", Response: err.Error(), Code: r.Code})
		return true
	}
	dataAddr := resolveDataAddr(addr, t.b.host)
	t.b.logger.Debug("ftp opening data connection", "addr", dataAddr, "cmd", t.command)

	t.state = stateAwaitingStart
	t.started = true
	t.opened = time.Now()
	s.trackLocked(t)
	go t.run(dataAddr)
	s.writeLineLocked(t.command)
	return false
}

// fail is called when the session dies with the transfer queued.
func (t *transfer) fail(err error) {
	t.abortLocked(err)
}

// dataActive reports whether payload is still moving on the data channel.
func (t *transfer) dataActive() bool {
	return !t.aborted && t.conn != nil && !t.dataDone && t.state != stateFinished
}

// deliverLocked completes the transfer successfully.
func (t *transfer) deliverLocked() {
	if t.aborted || t.state == stateFinished {
		return
	}
	t.state = stateFinished
	t.s.untrackLocked(t)
	t.pending.completeData(t.final, t.data, nil)
	t.cancel()
	if t.b.metrics != nil {
		verb, _, _ := strings.Cut(t.command, " ")
		t.b.metrics.RecordTransfer(verb, t.moved.Load(), time.Since(t.opened))
	}
	t.b.logger.Debug("ftp data transfer complete", "cmd", t.command, "bytes", t.moved.Load())
}

// abortLocked fails the transfer and tears down its data channel. Later
// replies for the command are still consumed by dispatch.
func (t *transfer) abortLocked(err error) {
	if t.aborted || t.state == stateFinished {
		return
	}
	t.aborted = true
	t.s.untrackLocked(t)
	t.pending.complete(nil, err)
	t.cancel()
	if t.conn != nil {
		_ = t.conn.Close()
	}
	t.b.logger.Debug("ftp data transfer aborted", "cmd", t.command, "state", t.state, "error", err)
}

// settle blocks until the data goroutine, if one was started, has returned.
// After settle the sink is no longer written to.
func (t *transfer) settle() {
	t.s.mu.Lock()
	started := t.started
	t.s.mu.Unlock()
	if started {
		<-t.exited
	}
}

// run owns the data connection for the lifetime of the transfer.
func (t *transfer) run(addr string) {
	defer close(t.exited)
	conn, err := t.b.dial(t.ctx, addr)

	t.s.mu.Lock()
	if err != nil {
		t.abortLocked(&TransportError{Op: "dial data", Err: err})
		t.s.mu.Unlock()
		return
	}
	if t.aborted {
		t.s.mu.Unlock()
		_ = conn.Close()
		return
	}
	t.conn = conn
	t.s.mu.Unlock()

	defer conn.Close()
	if t.dir == directionReceive {
		t.receive(conn)
	} else {
		t.send(conn)
	}
}

func (t *transfer) receive(conn net.Conn) {
	var buf bytes.Buffer
	var dst io.Writer = &buf
	if t.sink != nil {
		dst = t.sink
	}
	src := ratelimit.NewReader(t.ctx, conn, t.b.limiter)
	_, err := io.Copy(&ProgressWriter{Writer: dst, Callback: t.report}, src)

	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.aborted {
		return
	}
	if err != nil {
		t.abortLocked(&TransportError{Op: "read data", Err: err})
		return
	}
	t.dataDone = true
	if t.sink == nil {
		t.data = buf.Bytes()
	}
	if t.controlDone {
		t.deliverLocked()
	}
}

func (t *transfer) send(conn net.Conn) {
	select {
	case <-t.start:
	case <-t.ctx.Done():
		return
	}

	dst := ratelimit.NewWriter(t.ctx, conn, t.b.limiter)
	_, err := io.Copy(dst, &ProgressReader{Reader: t.payload, Callback: t.report})
	if err == nil {
		err = closeWrite(conn)
	}

	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.dataDone = true
	if err != nil && !t.aborted && t.state != stateFinished {
		t.abortLocked(&TransportError{Op: "write data", Err: err})
	}
}

func (t *transfer) report(transferred int64) {
	t.moved.Store(transferred)
	if t.b.progress != nil {
		t.b.progress(t.command, transferred)
	}
}

// closeWrite half-closes conn when the transport supports it, signalling
// end of payload while keeping the socket readable.
func closeWrite(conn net.Conn) error {
	if cw, ok := conn.(interface{ CloseWrite() error }); ok {
		return cw.CloseWrite()
	}
	return conn.Close()
}
