package asyncftp

import (
	"bytes"
	"strconv"
	"strings"
)

// MaxLineLength is the longest reply line the parser buffers while waiting
// for its terminator. Longer input is dropped.
const MaxLineLength = 8 * 1024

// Reply represents a complete FTP server reply: the final line plus any
// continuation lines that preceded it.
type Reply struct {
	// Code is the three-digit reply code (e.g., 220, 550)
	Code int

	// Message is the text of the final line
	Message string

	// Lines contains the text of every line of the reply group, the
	// continuation lines first and the final line's text last
	Lines []string
}

// Category returns the reply's class.
func (r *Reply) Category() Category {
	return CategoryOf(r.Code)
}

// Is2xx returns true if the reply code is in the 2xx range (success).
func (r *Reply) Is2xx() bool {
	return r.Code >= 200 && r.Code < 300
}

// Is3xx returns true if the reply code is in the 3xx range (intermediate).
func (r *Reply) Is3xx() bool {
	return r.Code >= 300 && r.Code < 400
}

// Is4xx returns true if the reply code is in the 4xx range (temporary failure).
func (r *Reply) Is4xx() bool {
	return r.Code >= 400 && r.Code < 500
}

// Is5xx returns true if the reply code is in the 5xx range (permanent failure).
func (r *Reply) Is5xx() bool {
	return r.Code >= 500 && r.Code < 600
}

// Body returns the continuation lines of the reply, without the final line.
func (r *Reply) Body() []string {
	if len(r.Lines) == 0 {
		return nil
	}
	return r.Lines[:len(r.Lines)-1]
}

// String returns the full reply text.
func (r *Reply) String() string {
	return strings.Join(r.Lines, "\n")
}

// replyLine is one classified line off the control connection.
type replyLine struct {
	code  int // 0 when the line has no leading code
	final bool
	text  string
}

// classifyLine parses a single reply line (without its terminator).
//
//	"220 Ready"    final, code 220
//	"220-Welcome"  continuation, code 220
//	" SIZE"        continuation without code (RFC 2389 style)
func classifyLine(line string) replyLine {
	if len(line) < 3 {
		return replyLine{text: line}
	}
	code, err := strconv.Atoi(line[0:3])
	if err != nil || code < 100 || code > 599 || line[0] == '+' || line[0] == '-' {
		return replyLine{text: line}
	}
	switch {
	case len(line) == 3:
		// Some servers omit the space after a bare code.
		return replyLine{code: code, final: true}
	case line[3] == ' ':
		return replyLine{code: code, final: true, text: line[4:]}
	case line[3] == '-':
		return replyLine{code: code, text: line[4:]}
	}
	return replyLine{text: line}
}

// replyParser accumulates control connection bytes and hands out complete
// lines. It also assembles multi-line reply groups.
type replyParser struct {
	buf []byte
	// discarding is set after an overflow until the end of the long line
	discarding bool

	// group holds the continuation text seen so far for the open group
	group []string
	// groupCode is the code of the line that opened the group, 0 if none
	groupCode int
}

// feed appends freshly read bytes to the buffer.
func (p *replyParser) feed(b []byte) {
	p.buf = append(p.buf, b...)
}

// nextLine returns the next complete line without its terminator. ok is
// false when only a partial line (or nothing) is buffered.
func (p *replyParser) nextLine() (line string, ok bool, overflow bool) {
	for {
		idx := bytes.IndexByte(p.buf, '\n')
		if idx < 0 {
			if p.discarding {
				p.buf = p.buf[:0]
				return "", false, false
			}
			if len(p.buf) > MaxLineLength {
				p.buf = p.buf[:0]
				p.discarding = true
				return "", false, true
			}
			return "", false, false
		}
		if p.discarding {
			p.discarding = false
			p.consume(idx + 1)
			continue
		}
		line = string(bytes.TrimRight(p.buf[:idx], "\r"))
		p.consume(idx + 1)
		return line, true, false
	}
}

// consume drops the first n buffered bytes. It shifts rather than reslices
// so the buffer does not grow without bound.
func (p *replyParser) consume(n int) {
	m := copy(p.buf, p.buf[n:])
	p.buf = p.buf[:m]
}

// groupOpen reports whether a multi-line reply is being assembled.
func (p *replyParser) groupOpen() bool {
	return p.groupCode != 0
}

// add processes one classified line. It returns a complete reply when the
// line closes a group, and stray=true when the line belongs to no group and
// was not a final reply.
func (p *replyParser) add(l replyLine) (r *Reply, stray bool) {
	if p.groupOpen() {
		// Any final line ends the group, whatever its code.
		if l.final {
			return p.close(l), false
		}
		// Continuation lines and uncoded body lines (STAT, FEAT) alike.
		if l.code == p.groupCode {
			p.group = append(p.group, l.text)
		} else {
			p.group = append(p.group, rawText(l))
		}
		return nil, false
	}

	switch {
	case l.final:
		return p.close(l), false
	case l.code != 0:
		p.groupCode = l.code
		p.group = append(p.group[:0], l.text)
		return nil, false
	}
	return nil, true
}

func (p *replyParser) close(l replyLine) *Reply {
	lines := make([]string, 0, len(p.group)+1)
	lines = append(lines, p.group...)
	lines = append(lines, l.text)
	p.resetGroup()
	return &Reply{Code: l.code, Message: l.text, Lines: lines}
}

// resetGroup discards a half-built reply group.
func (p *replyParser) resetGroup() {
	p.group = p.group[:0]
	p.groupCode = 0
}

// reset drops every buffered byte and the open group.
func (p *replyParser) reset() {
	p.buf = p.buf[:0]
	p.discarding = false
	p.resetGroup()
}

// rawText rebuilds the original line for text that is kept verbatim.
func rawText(l replyLine) string {
	if l.code == 0 {
		return l.text
	}
	return strconv.Itoa(l.code) + "-" + l.text
}
