package asyncftp

import "fmt"

// Category classifies a reply code by its first digit.
type Category int

const (
	// CategoryNone is returned for codes outside 100-599.
	CategoryNone Category = iota
	// CategoryInfo is a positive preliminary reply (1xx). It never ends a command.
	CategoryInfo
	// CategoryOK is a positive completion reply (2xx).
	CategoryOK
	// CategoryMore is a positive intermediate reply (3xx).
	CategoryMore
	// CategoryErr is a transient (4xx) or permanent (5xx) negative reply.
	CategoryErr
)

// CategoryOf returns the category of a reply code.
func CategoryOf(code int) Category {
	switch code / 100 {
	case 1:
		return CategoryInfo
	case 2:
		return CategoryOK
	case 3:
		return CategoryMore
	case 4, 5:
		return CategoryErr
	}
	return CategoryNone
}

func (c Category) String() string {
	switch c {
	case CategoryInfo:
		return "info"
	case CategoryOK:
		return "ok"
	case CategoryMore:
		return "more"
	case CategoryErr:
		return "err"
	}
	return "none"
}

// ReplyKey selects the replies a Handler applies to: either one exact code
// or a whole category. Build keys with Code and On.
type ReplyKey struct {
	code     int
	category Category
}

// Code returns a key matching exactly one reply code.
func Code(code int) ReplyKey {
	return ReplyKey{code: code}
}

// On returns a key matching every code of a category.
func On(c Category) ReplyKey {
	return ReplyKey{category: c}
}

func (k ReplyKey) String() string {
	if k.code != 0 {
		return fmt.Sprintf("%03d", k.code)
	}
	return k.category.String()
}

// Handler is invoked with the reply a command received. Returning an error
// fails the command with that error; a nil Handler accepts the reply.
type Handler func(r *Reply) error

// Codemap maps reply keys to the handlers of one command.
type Codemap map[ReplyKey]Handler

// lookup finds the handler for code. An exact code entry takes precedence
// over a category entry.
func (m Codemap) lookup(code int) (Handler, bool) {
	if h, ok := m[Code(code)]; ok {
		return h, true
	}
	if h, ok := m[On(CategoryOf(code))]; ok {
		return h, true
	}
	return nil, false
}

// Reject is a Handler that fails the command with a *RemoteError.
func Reject(command string) Handler {
	return func(r *Reply) error {
		return remoteError(command, r)
	}
}

// ExpectOK returns the codemap of a command that succeeds on any 2xx reply.
func ExpectOK(command string) Codemap {
	return Codemap{
		On(CategoryOK):  nil,
		On(CategoryErr): Reject(command),
	}
}

// ExpectCodes returns the codemap of a command that succeeds only on the
// listed codes.
func ExpectCodes(command string, codes ...int) Codemap {
	m := Codemap{On(CategoryErr): Reject(command)}
	for _, c := range codes {
		m[Code(c)] = nil
	}
	return m
}
