package asyncftp

import (
	"reflect"
	"strings"
	"testing"
)

func TestClassifyLine(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		line string
		want replyLine
	}{
		{"final", "220 Ready", replyLine{code: 220, final: true, text: "Ready"}},
		{"continuation", "220-Welcome", replyLine{code: 220, text: "Welcome"}},
		{"final without text", "200 ", replyLine{code: 200, final: true}},
		{"bare code", "200", replyLine{code: 200, final: true}},
		{"space prefixed body", " SIZE", replyLine{text: " SIZE"}},
		{"listing body", "-rw-r--r-- 1 u g 1 Jan 1 2000 f", replyLine{text: "-rw-r--r-- 1 u g 1 Jan 1 2000 f"}},
		{"code out of range", "999 nope", replyLine{text: "999 nope"}},
		{"signed digits", "+20 x", replyLine{text: "+20 x"}},
		{"digits then letter", "220x", replyLine{text: "220x"}},
		{"short", "22", replyLine{text: "22"}},
		{"empty", "", replyLine{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := classifyLine(tt.line); got != tt.want {
				t.Errorf("classifyLine(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

// parseAll feeds input to a parser and returns every complete reply along
// with the number of stray lines.
func parseAll(p *replyParser, input string) ([]*Reply, int) {
	var replies []*Reply
	stray := 0
	p.feed([]byte(input))
	for {
		line, ok, _ := p.nextLine()
		if !ok {
			return replies, stray
		}
		r, s := p.add(classifyLine(line))
		if s {
			stray++
		}
		if r != nil {
			replies = append(replies, r)
		}
	}
}

func TestReplyParser_SingleLine(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		input    string
		wantCode int
		wantMsg  string
	}{
		{"simple success", "220 Welcome\r\n", 220, "Welcome"},
		{"error response", "550 File not found\r\n", 550, "File not found"},
		{"code with no message", "200 \r\n", 200, ""},
		{"bare LF", "226 Done\n", 226, "Done"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var p replyParser
			replies, _ := parseAll(&p, tt.input)
			if len(replies) != 1 {
				t.Fatalf("got %d replies, want 1", len(replies))
			}
			if replies[0].Code != tt.wantCode {
				t.Errorf("code = %d, want %d", replies[0].Code, tt.wantCode)
			}
			if replies[0].Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", replies[0].Message, tt.wantMsg)
			}
		})
	}
}

func TestReplyParser_MultiLine(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name      string
		input     string
		wantCode  int
		wantLines []string
	}{
		{
			name: "multi-line response",
			input: "220-Welcome to FTP\r\n" +
				"220-This is line 2\r\n" +
				"220 Ready\r\n",
			wantCode:  220,
			wantLines: []string{"Welcome to FTP", "This is line 2", "Ready"},
		},
		{
			name: "RFC 2389 feature list",
			input: "211-Extensions supported:\r\n" +
				" MLST size*;create;modify*;perm;media-type\r\n" +
				" SIZE\r\n" +
				"211 END\r\n",
			wantCode:  211,
			wantLines: []string{"Extensions supported:", " MLST size*;create;modify*;perm;media-type", " SIZE", "END"},
		},
		{
			name: "continuation with other code is text",
			input: "211-Status:\r\n" +
				"200-inner\r\n" +
				"211 End\r\n",
			wantCode:  211,
			wantLines: []string{"Status:", "200-inner", "End"},
		},
		{
			name: "final line with other code closes group",
			input: "250-continuation\r\n" +
				"200 final with other code\r\n",
			wantCode:  200,
			wantLines: []string{"continuation", "final with other code"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var p replyParser
			replies, stray := parseAll(&p, tt.input)
			if stray != 0 {
				t.Errorf("got %d stray lines, want 0", stray)
			}
			if len(replies) != 1 {
				t.Fatalf("got %d replies, want 1", len(replies))
			}
			r := replies[0]
			if r.Code != tt.wantCode {
				t.Errorf("code = %d, want %d", r.Code, tt.wantCode)
			}
			if !reflect.DeepEqual(r.Lines, tt.wantLines) {
				t.Errorf("lines = %q, want %q", r.Lines, tt.wantLines)
			}
			if r.Message != tt.wantLines[len(tt.wantLines)-1] {
				t.Errorf("message = %q, want final line text", r.Message)
			}
		})
	}
}

func TestReplyParser_PartialLines(t *testing.T) {
	t.Parallel()
	var p replyParser

	for _, chunk := range []string{"2", "50 Fi", "le action ok", "ay\r"} {
		if replies, _ := parseAll(&p, chunk); len(replies) != 0 {
			t.Fatalf("reply delivered before line terminator: %+v", replies[0])
		}
	}
	replies, _ := parseAll(&p, "\n150-a")
	if len(replies) != 1 || replies[0].Code != 250 || replies[0].Message != "File action okay" {
		t.Fatalf("replies = %+v, want one 250", replies)
	}

	replies, _ = parseAll(&p, "\r\n150 b\r\n")
	if len(replies) != 1 || replies[0].Code != 150 {
		t.Fatalf("replies = %+v, want one 150", replies)
	}
	if want := []string{"a", "b"}; !reflect.DeepEqual(replies[0].Lines, want) {
		t.Errorf("lines = %q, want %q", replies[0].Lines, want)
	}
}

func TestReplyParser_StrayLine(t *testing.T) {
	t.Parallel()
	var p replyParser
	replies, stray := parseAll(&p, "hello there\r\n200 OK\r\n")
	if stray != 1 {
		t.Errorf("stray = %d, want 1", stray)
	}
	if len(replies) != 1 || replies[0].Code != 200 {
		t.Errorf("replies = %+v, want one 200", replies)
	}
}

func TestReplyParser_Overflow(t *testing.T) {
	t.Parallel()
	var p replyParser
	p.feed([]byte(strings.Repeat("x", MaxLineLength+1)))
	if _, ok, overflow := p.nextLine(); ok || !overflow {
		t.Fatalf("nextLine() ok=%v overflow=%v, want overflow", ok, overflow)
	}

	// The rest of the long line is dropped up to its terminator, even when
	// it arrives in later reads.
	for _, chunk := range []string{"xxxx", "550 still the long line"} {
		if replies, stray := parseAll(&p, chunk); len(replies) != 0 || stray != 0 {
			t.Fatalf("tail of long line parsed: replies=%+v stray=%d", replies, stray)
		}
	}

	// The parser recovers on the next line.
	replies, stray := parseAll(&p, "\r\n200 OK\r\n")
	if stray != 0 {
		t.Errorf("stray = %d, want 0", stray)
	}
	if len(replies) != 1 || replies[0].Code != 200 {
		t.Errorf("replies = %+v, want one 200", replies)
	}
}

func TestReplyParser_Reset(t *testing.T) {
	t.Parallel()
	var p replyParser
	parseAll(&p, "211-half\r\n211-built\r\n212 par")
	p.reset()

	replies, _ := parseAll(&p, "200 fresh\r\n")
	if len(replies) != 1 {
		t.Fatalf("got %d replies, want 1", len(replies))
	}
	if want := []string{"fresh"}; !reflect.DeepEqual(replies[0].Lines, want) {
		t.Errorf("lines = %q, want %q", replies[0].Lines, want)
	}
}

func TestReply_Body(t *testing.T) {
	t.Parallel()
	r := &Reply{Code: 213, Message: "End", Lines: []string{"Status of f:", " -rw-r--r-- 1 u g 1 Jan 1 2000 f", "End"}}
	if got := r.Body(); len(got) != 2 || got[1] != " -rw-r--r-- 1 u g 1 Jan 1 2000 f" {
		t.Errorf("Body() = %q", got)
	}
	if got := (&Reply{}).Body(); got != nil {
		t.Errorf("empty Body() = %q, want nil", got)
	}
	if !r.Is2xx() || r.Is3xx() || r.Is4xx() || r.Is5xx() {
		t.Errorf("class predicates wrong for %d", r.Code)
	}
}

func FuzzReplyParser(f *testing.F) {
	f.Add("220 Ready\r\n")
	f.Add("211-Extensions supported:\r\n SIZE\r\n211 END\r\n")
	f.Add("150 ok\r\n226 done\r\n")
	f.Add("999\r\n")

	f.Fuzz(func(t *testing.T, s string) {
		var p replyParser
		replies, _ := parseAll(&p, s)
		for _, r := range replies {
			if len(r.Lines) == 0 {
				t.Fatalf("reply %d without lines", r.Code)
			}
			if r.Lines[len(r.Lines)-1] != r.Message {
				t.Fatalf("final line %q != message %q", r.Lines[len(r.Lines)-1], r.Message)
			}
		}
	})
}
