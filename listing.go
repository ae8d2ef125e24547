package asyncftp

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// EntryKind is the type of a directory entry.
type EntryKind byte

const (
	KindFile    EntryKind = 'f'
	KindDir     EntryKind = 'd'
	KindLink    EntryKind = 'l'
	KindUnknown EntryKind = '?'
)

func (k EntryKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "dir"
	case KindLink:
		return "link"
	}
	return "unknown"
}

// Entry represents a file or directory entry from a LIST or STAT listing.
type Entry struct {
	Name    string
	Kind    EntryKind
	Size    int64
	ModTime time.Time   // zero if the listing did not carry one
	Mode    os.FileMode // permission bits plus os.ModeDir / os.ModeSymlink
	Target  string      // For symlinks, the target path (empty for files/dirs)
	Raw     string      // The raw line from the listing
}

// ListingParser parses one line of listing output.
type ListingParser interface {
	Parse(line string) (*Entry, bool)
}

// now is the clock used to place "Mon DD HH:MM" listing dates in a year.
var now = time.Now

// UnixParser parses Unix-style directory entries.
//
//	-rw-r--r--   1 owner group   1024 Dec 20 10:30 file.txt
//	-rw-r--r--   1 owner         1024 Dec 20  2023 file.txt
//	644          1 owner group   1024 Dec 20 10:30 file.txt
type UnixParser struct{}

func (p *UnixParser) Parse(line string) (*Entry, bool) {
	fields := strings.Fields(line)
	if len(fields) < 8 {
		return nil, false
	}
	entry := &Entry{Raw: line}
	if parseUnixEntry(entry, fields) {
		return entry, true
	}
	return nil, false
}

// DOSParser parses DOS/Windows-style directory entries.
type DOSParser struct{}

func (p *DOSParser) Parse(line string) (*Entry, bool) {
	fields := strings.Fields(line)
	if len(fields) < 4 || !isDOSDate(fields[0]) {
		return nil, false
	}
	entry := &Entry{Raw: line}
	if parseDOSEntry(entry, fields) {
		return entry, true
	}
	return nil, false
}

// EPLFParser parses EPLF entries.
type EPLFParser struct{}

func (p *EPLFParser) Parse(line string) (*Entry, bool) {
	if !strings.HasPrefix(line, "+") {
		return nil, false
	}
	entry := &Entry{Raw: line}
	if parseEPLFEntry(entry, line) {
		return entry, true
	}
	return nil, false
}

// CompositeParser tries multiple parsers in order.
type CompositeParser struct {
	Parsers []ListingParser
}

// Parse returns nil for blank lines. Lines no parser understands come back
// as KindUnknown entries named after the whole line.
func (p *CompositeParser) Parse(line string) *Entry {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}

	for _, parser := range p.Parsers {
		if entry, ok := parser.Parse(trimmed); ok {
			return entry
		}
	}

	slog.Debug("Unable to parse LIST line, unknown format", "raw", line)
	return &Entry{Raw: line, Name: trimmed, Kind: KindUnknown}
}

func defaultParsers() []ListingParser {
	return []ListingParser{&EPLFParser{}, &DOSParser{}, &UnixParser{}}
}

// parseListLine parses a single line using registered parsers.
func parseListLine(line string, parsers []ListingParser) *Entry {
	if len(parsers) == 0 {
		parsers = defaultParsers()
	}
	return (&CompositeParser{Parsers: parsers}).Parse(line)
}

// parseListing splits listing output on line terminators and parses every
// non-blank line.
func parseListing(data []byte, parsers []ListingParser) []*Entry {
	var entries []*Entry
	for _, line := range splitLines(data) {
		if strings.HasPrefix(line, "total ") {
			continue
		}
		if e := parseListLine(line, parsers); e != nil {
			entries = append(entries, e)
		}
	}
	return entries
}

// splitLines splits on CRLF or LF and drops empty lines.
func splitLines(data []byte) []string {
	var lines []string
	for line := range strings.SplitSeq(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// parseUnixEntry parses a Unix-style directory entry.
// Handles both 9-field and 8-field formats, numeric and symbolic permissions.
func parseUnixEntry(entry *Entry, fields []string) bool {
	perms := fields[0]

	isSymbolic := len(perms) >= 10 && strings.IndexByte("-dlbcps", perms[0]) >= 0

	isNumeric := len(perms) >= 3 && len(perms) <= 4
	for _, ch := range perms {
		if ch < '0' || ch > '7' {
			isNumeric = false
			break
		}
	}

	if !isSymbolic && !isNumeric {
		return false
	}

	if isSymbolic {
		entry.Mode = parseSymbolicMode(perms)
		switch perms[0] {
		case 'd':
			entry.Kind = KindDir
		case 'l':
			entry.Kind = KindLink
		default:
			entry.Kind = KindFile
		}
	} else {
		mode, _ := strconv.ParseUint(perms, 8, 32)
		entry.Mode = os.FileMode(mode) & os.ModePerm
		entry.Kind = KindFile
	}

	// 9-field: perms links owner group size month day time/year name
	// 8-field: perms links owner size month day time/year name
	var sizeIdx, nameStartIdx int
	switch {
	case len(fields) >= 9 && isSize(fields[4]) && isMonth(fields[5]):
		sizeIdx, nameStartIdx = 4, 8
	case isSize(fields[3]) && isMonth(fields[4]):
		sizeIdx, nameStartIdx = 3, 7
	default:
		return false
	}

	size, err := parseSize(fields[sizeIdx])
	if err != nil {
		slog.Debug("Failed to parse size in Unix format", "raw", entry.Raw, "size_field", fields[sizeIdx], "error", err)
		return false
	}
	entry.Size = size
	entry.ModTime = parseUnixTime(fields[sizeIdx+1], fields[sizeIdx+2], fields[sizeIdx+3])

	fullName := strings.Join(fields[nameStartIdx:], " ")
	if entry.Kind == KindLink {
		if before, after, ok := strings.Cut(fullName, " -> "); ok {
			entry.Name = before
			entry.Target = after
			return true
		}
		slog.Debug("Symlink detected but no arrow separator found", "raw", entry.Raw, "fullname", fullName)
	}
	entry.Name = fullName
	return true
}

// parseSymbolicMode converts "drwxr-xr-x" style permissions.
func parseSymbolicMode(perms string) os.FileMode {
	var mode os.FileMode
	switch perms[0] {
	case 'd':
		mode |= os.ModeDir
	case 'l':
		mode |= os.ModeSymlink
	case 'p':
		mode |= os.ModeNamedPipe
	case 's':
		mode |= os.ModeSocket
	case 'b':
		mode |= os.ModeDevice
	case 'c':
		mode |= os.ModeDevice | os.ModeCharDevice
	}

	bits := perms[1:10]
	for i := 0; i < 9; i++ {
		c := bits[i]
		if c != '-' && c != 'S' && c != 'T' {
			mode |= 1 << uint(8-i)
		}
	}
	switch bits[2] {
	case 's', 'S':
		mode |= os.ModeSetuid
	}
	switch bits[5] {
	case 's', 'S':
		mode |= os.ModeSetgid
	}
	switch bits[8] {
	case 't', 'T':
		mode |= os.ModeSticky
	}
	return mode
}

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

func isMonth(s string) bool {
	_, ok := months[strings.ToLower(s)]
	return ok
}

func isSize(s string) bool {
	_, err := parseSize(s)
	return err == nil
}

// parseUnixTime interprets "Feb 2 2005" and "Dec 20 10:30". The second form
// has no year: it is the most recent such date not more than a day ahead of
// the local clock.
func parseUnixTime(month, day, yearOrTime string) time.Time {
	m, ok := months[strings.ToLower(month)]
	if !ok {
		return time.Time{}
	}
	d, err := strconv.Atoi(day)
	if err != nil || d < 1 || d > 31 {
		return time.Time{}
	}

	if hh, mm, ok := strings.Cut(yearOrTime, ":"); ok {
		hour, err1 := strconv.Atoi(hh)
		minute, err2 := strconv.Atoi(mm)
		if err1 != nil || err2 != nil {
			return time.Time{}
		}
		current := now().UTC()
		t := time.Date(current.Year(), m, d, hour, minute, 0, 0, time.UTC)
		if t.After(current.Add(24 * time.Hour)) {
			t = t.AddDate(-1, 0, 0)
		}
		return t
	}

	year, err := strconv.Atoi(yearOrTime)
	if err != nil {
		return time.Time{}
	}
	return time.Date(year, m, d, 0, 0, 0, 0, time.UTC)
}

// parseEPLFEntry parses an EPLF (Easily Parsed LIST Format) entry.
// Format: +facts\tname or +facts name
// Example: "+i8388621.48594,m825718503,r,s280,\tdjb.html"
func parseEPLFEntry(entry *Entry, line string) bool {
	line = line[1:]

	idx := strings.IndexAny(line, "\t ")
	if idx == -1 {
		return false
	}
	facts := line[:idx]
	name := strings.TrimSpace(line[idx+1:])
	if name == "" {
		return false
	}

	entry.Name = name
	entry.Kind = KindFile

	for fact := range strings.SplitSeq(facts, ",") {
		if fact == "" {
			continue
		}
		switch fact[0] {
		case '/':
			entry.Kind = KindDir
			entry.Mode |= os.ModeDir
		case 's':
			if size, err := parseSize(fact[1:]); err == nil {
				entry.Size = size
			}
		case 'm':
			if secs, err := strconv.ParseInt(fact[1:], 10, 64); err == nil {
				entry.ModTime = time.Unix(secs, 0).UTC()
			}
		}
	}
	return true
}

// isDOSDate checks if a string looks like a DOS/Windows date format.
// Common formats: MM-DD-YY, MM-DD-YYYY, MM/DD/YY, MM/DD/YYYY
func isDOSDate(s string) bool {
	var parts []string
	switch {
	case strings.Contains(s, "-"):
		parts = strings.Split(s, "-")
	case strings.Contains(s, "/"):
		parts = strings.Split(s, "/")
	default:
		return false
	}
	if len(parts) != 3 {
		return false
	}

	for i, part := range parts {
		if i == 2 && len(part) != 2 && len(part) != 4 {
			return false
		}
		if i < 2 && (len(part) < 1 || len(part) > 2) {
			return false
		}
		for _, ch := range part {
			if ch < '0' || ch > '9' {
				return false
			}
		}
	}
	return true
}

// parseDOSEntry parses a DOS/Windows-style directory entry.
//
//	12-14-23  12:22PM           1037794 large-document.pdf
//	09-24-24  10:30AM       <DIR>          logger
func parseDOSEntry(entry *Entry, fields []string) bool {
	entry.ModTime = parseDOSTime(fields[0], fields[1])
	entry.Name = strings.Join(fields[3:], " ")

	if fields[2] == "<DIR>" {
		entry.Kind = KindDir
		entry.Mode = os.ModeDir | 0o755
		return true
	}

	size, err := parseSize(fields[2])
	if err != nil {
		slog.Debug("Failed to parse size in DOS format", "raw", entry.Raw, "size_field", fields[2], "error", err)
		return false
	}
	entry.Kind = KindFile
	entry.Size = size
	entry.Mode = 0o644
	return true
}

func parseDOSTime(date, clock string) time.Time {
	date = strings.ReplaceAll(date, "/", "-")
	for _, layout := range []string{"01-02-06 03:04PM", "01-02-2006 03:04PM", "01-02-06 15:04", "01-02-2006 15:04"} {
		if t, err := time.Parse(layout, date+" "+strings.ToUpper(clock)); err == nil {
			return t
		}
	}
	return time.Time{}
}

// parseSize parses a size string from a directory listing.
func parseSize(sizeStr string) (int64, error) {
	return strconv.ParseInt(sizeStr, 10, 64)
}
