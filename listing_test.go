package asyncftp

import (
	"os"
	"testing"
	"time"
)

func TestParseListLine(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name           string
		line           string
		expectedName   string
		expectedKind   EntryKind
		expectedSize   int64
		expectedTarget string
	}{
		// Unix-style tests
		{
			name:         "unix file with year",
			line:         "-rw-r--r-- 1 user user 100 Feb 2 2005 file",
			expectedName: "file",
			expectedKind: KindFile,
			expectedSize: 100,
		},
		{
			name:         "unix directory entry",
			line:         "drw-rw-rw-   1 root  root         0 Sep 24 2024 logger",
			expectedName: "logger",
			expectedKind: KindDir,
		},
		{
			name:         "unix file with size",
			line:         "-rw-rw-rw-   1 root  root   1037794 Dec 14 12:22 large-document.pdf",
			expectedName: "large-document.pdf",
			expectedKind: KindFile,
			expectedSize: 1037794,
		},
		{
			name:           "unix symlink",
			line:           "lrwxrwxrwx   1 root  root        11 Dec 20 10:30 link -> target.txt",
			expectedName:   "link",
			expectedKind:   KindLink,
			expectedSize:   11,
			expectedTarget: "target.txt",
		},
		{
			name:           "unix symlink with spaces in target",
			line:           "lrwxrwxrwx   1 root  root        25 Dec 20 10:30 docs -> /home/user/My Documents",
			expectedName:   "docs",
			expectedKind:   KindLink,
			expectedSize:   25,
			expectedTarget: "/home/user/My Documents",
		},
		{
			name:         "unix 8-field format (no group)",
			line:         "-rw-r--r--   1 user     4096 Dec 20 10:30 config.txt",
			expectedName: "config.txt",
			expectedKind: KindFile,
			expectedSize: 4096,
		},
		{
			name:         "unix numeric permissions",
			line:         "644   1 user  group     4096 Dec 20 10:30 file.txt",
			expectedName: "file.txt",
			expectedKind: KindFile,
			expectedSize: 4096,
		},
		{
			name:         "unix name with spaces",
			line:         "-rw-r--r--   1 user  group     1024 Dec 20 10:30 my file.txt",
			expectedName: "my file.txt",
			expectedKind: KindFile,
			expectedSize: 1024,
		},
		// DOS/Windows-style tests
		{
			name:         "dos directory entry",
			line:         "09-24-24  10:30AM       <DIR>          logger",
			expectedName: "logger",
			expectedKind: KindDir,
		},
		{
			name:         "dos file with size",
			line:         "12-14-23  12:22PM           1037794 large-document.pdf",
			expectedName: "large-document.pdf",
			expectedKind: KindFile,
			expectedSize: 1037794,
		},
		{
			name:         "dos with slash and 4-digit year",
			line:         "12/14/2023  12:22PM           1037794 file.txt",
			expectedName: "file.txt",
			expectedKind: KindFile,
			expectedSize: 1037794,
		},
		{
			name:         "dos directory with spaces",
			line:         "11-15-24  09:00AM       <DIR>          My Folder",
			expectedName: "My Folder",
			expectedKind: KindDir,
		},
		// EPLF format tests
		{
			name:         "eplf file with tab separator",
			line:         "+i8388621.48594,m825718503,r,s280,\tdjb.html",
			expectedName: "djb.html",
			expectedKind: KindFile,
			expectedSize: 280,
		},
		{
			name:         "eplf directory",
			line:         "+i8388621.50690,m824255907,/,\tscgi",
			expectedName: "scgi",
			expectedKind: KindDir,
		},
		// Unknown format
		{
			name:         "unknown format",
			line:         "this is not a listing",
			expectedName: "this is not a listing",
			expectedKind: KindUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			entry := parseListLine(tt.line, nil)
			if entry == nil {
				t.Fatal("parseListLine returned nil")
			}
			if entry.Name != tt.expectedName {
				t.Errorf("Name = %q, want %q", entry.Name, tt.expectedName)
			}
			if entry.Kind != tt.expectedKind {
				t.Errorf("Kind = %v, want %v", entry.Kind, tt.expectedKind)
			}
			if entry.Size != tt.expectedSize {
				t.Errorf("Size = %d, want %d", entry.Size, tt.expectedSize)
			}
			if entry.Target != tt.expectedTarget {
				t.Errorf("Target = %q, want %q", entry.Target, tt.expectedTarget)
			}
			if entry.Raw != tt.line {
				t.Errorf("Raw = %q, want %q", entry.Raw, tt.line)
			}
		})
	}
}

func TestParseListLine_Blank(t *testing.T) {
	t.Parallel()
	for _, line := range []string{"", "   ", "\t"} {
		if e := parseListLine(line, nil); e != nil {
			t.Errorf("parseListLine(%q) = %+v, want nil", line, e)
		}
	}
}

func TestParseListLine_Mode(t *testing.T) {
	t.Parallel()
	tests := []struct {
		line string
		want os.FileMode
	}{
		{"-rw-r--r-- 1 user user 100 Feb 2 2005 file", 0o644},
		{"drwxr-xr-x 2 user user 4096 Feb 2 2005 dir", os.ModeDir | 0o755},
		{"lrwxrwxrwx 1 user user 4 Feb 2 2005 l -> f", os.ModeSymlink | 0o777},
		{"-rwsr-xr-x 1 root root 100 Feb 2 2005 su", os.ModeSetuid | 0o755},
		{"drwxrwxrwt 2 root root 4096 Feb 2 2005 tmp", os.ModeDir | os.ModeSticky | 0o777},
		{"750 1 user user 100 Feb 2 2005 run.sh", 0o750},
	}

	for _, tt := range tests {
		e := parseListLine(tt.line, nil)
		if e == nil {
			t.Fatalf("parseListLine(%q) returned nil", tt.line)
		}
		if e.Mode != tt.want {
			t.Errorf("parseListLine(%q).Mode = %v, want %v", tt.line, e.Mode, tt.want)
		}
	}
}

func TestParseUnixTime(t *testing.T) {
	orig := now
	now = func() time.Time { return time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC) }
	defer func() { now = orig }()

	tests := []struct {
		month, day, yt string
		want           time.Time
	}{
		{"Feb", "2", "2005", time.Date(2005, time.February, 2, 0, 0, 0, 0, time.UTC)},
		{"Mar", "1", "08:15", time.Date(2024, time.March, 1, 8, 15, 0, 0, time.UTC)},
		// A date later in the year than today belongs to last year.
		{"Dec", "20", "10:30", time.Date(2023, time.December, 20, 10, 30, 0, 0, time.UTC)},
		{"Foo", "20", "10:30", time.Time{}},
		{"Dec", "40", "2001", time.Time{}},
	}

	for _, tt := range tests {
		got := parseUnixTime(tt.month, tt.day, tt.yt)
		if !got.Equal(tt.want) {
			t.Errorf("parseUnixTime(%q, %q, %q) = %v, want %v", tt.month, tt.day, tt.yt, got, tt.want)
		}
	}
}

func TestParseListing(t *testing.T) {
	t.Parallel()
	data := []byte("total 8\r\n" +
		"drwxr-xr-x 2 user user 4096 Feb 2 2005 pub\r\n" +
		"\r\n" +
		"-rw-r--r-- 1 user user 100 Feb 2 2005 file\n")

	entries := parseListing(data, nil)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].Name != "pub" || entries[0].Kind != KindDir {
		t.Errorf("entries[0] = %+v, want directory pub", entries[0])
	}
	if entries[1].Name != "file" || entries[1].Kind != KindFile {
		t.Errorf("entries[1] = %+v, want file named file", entries[1])
	}
}

// customParser for testing
type customParser struct{}

func (p *customParser) Parse(line string) (*Entry, bool) {
	if line == "custom-entry" {
		return &Entry{Name: "custom", Kind: KindFile, Size: 999}, true
	}
	return nil, false
}

func TestCustomParser(t *testing.T) {
	t.Parallel()
	parsers := append([]ListingParser{&customParser{}}, defaultParsers()...)

	entry := parseListLine("custom-entry", parsers)
	if entry == nil || entry.Name != "custom" {
		t.Fatalf("custom parser did not match: %+v", entry)
	}

	// Lines the custom parser ignores fall through to the built-in ones.
	entry = parseListLine("-rw-r--r-- 1 user user 100 Feb 2 2005 file", parsers)
	if entry == nil || entry.Name != "file" {
		t.Errorf("fallback parse failed: %+v", entry)
	}
}

func FuzzParseListLine(f *testing.F) {
	f.Add("-rw-r--r--   1 user  group     1024 Dec 20 10:30 file.txt")
	f.Add("drwxr-xr-x   2 user  group     4096 Dec 20 10:30 mydir")
	f.Add("09-24-24  10:30AM       <DIR>          logger")
	f.Add("12-14-23  12:22PM           1037794 large-document.pdf")
	f.Add("+i8388621.48594,m825718503,r,s280,\tdjb.html")
	f.Add("+/,m824255907\tdata")
	f.Add("lrwxrwxrwx 1 u g 1 Jan 1 00:00 a -> ")

	f.Fuzz(func(t *testing.T, line string) {
		// Just ensure it doesn't panic
		_ = parseListLine(line, nil)
	})
}
