package asyncftp

import (
	"context"
	"path"
	"strings"
)

// Delete removes a file from the server.
//
// Example:
//
//	err := client.Delete(ctx, "old.txt")
func (c *Client) Delete(ctx context.Context, remotePath string) error {
	if remotePath == "" {
		return &UsageError{Op: "delete", Param: "path"}
	}
	_, err := c.await(ctx, c.session.Issue("DELE "+remotePath, ExpectOK("DELE")))
	return err
}

// Rename renames a file or directory on the server. RNTO is only written
// after the server answers RNFR with 350, and no other command can be
// written in between.
//
// Example:
//
//	err := client.Rename(ctx, "old.txt", "new.txt")
func (c *Client) Rename(ctx context.Context, from, to string) error {
	if from == "" {
		return &UsageError{Op: "rename", Param: "from"}
	}
	if to == "" {
		return &UsageError{Op: "rename", Param: "to"}
	}
	seq := newSequence(
		[]string{"RNFR " + from, "RNTO " + to},
		[]int{ReplyFileActionPending},
		false,
	)
	_, err := c.await(ctx, seq.enqueue(c.session))
	return err
}

// List returns the raw LIST output for path. An empty path lists the
// current directory.
func (c *Client) List(ctx context.Context, remotePath string) ([]byte, error) {
	return c.receive(ctx, withArg("LIST", remotePath))
}

// NameList returns the file names in path using NLST.
//
// Example:
//
//	names, err := client.NameList(ctx, "/pub")
//	for _, name := range names {
//	    fmt.Println(name)
//	}
func (c *Client) NameList(ctx context.Context, remotePath string) ([]string, error) {
	data, err := c.receive(ctx, withArg("NLST", remotePath))
	if err != nil {
		return nil, err
	}
	return splitLines(data), nil
}

// ListParsed lists path and parses each line with the configured listing
// parsers. "total" summary lines are skipped; lines in an unknown format
// come back with Kind KindUnknown.
//
// Example:
//
//	entries, err := client.ListParsed(ctx, "/pub")
//	for _, entry := range entries {
//	    fmt.Printf("%s %c %d\n", entry.Name, entry.Kind, entry.Size)
//	}
func (c *Client) ListParsed(ctx context.Context, remotePath string) ([]*Entry, error) {
	data, err := c.List(ctx, remotePath)
	if err != nil {
		return nil, err
	}
	return parseListing(data, c.parsers), nil
}

// Status sends STAT over the control channel and returns the body of the
// multi-line reply. With an empty path the server reports its own status.
func (c *Client) Status(ctx context.Context, remotePath string) ([]string, error) {
	codes := ExpectCodes("STAT", ReplySystemStatus, ReplyDirectoryStatus, ReplyFileStatus)
	r, err := c.await(ctx, c.session.Issue(withArg("STAT", remotePath), codes))
	if err != nil {
		return nil, err
	}
	return r.Body(), nil
}

// StatEntry returns the listing entry for path using STAT, without opening
// a data connection. For a directory the server lists its contents and the
// directory itself appears as "."; that entry is returned named after path.
func (c *Client) StatEntry(ctx context.Context, remotePath string) (*Entry, error) {
	if remotePath == "" {
		return nil, &UsageError{Op: "stat", Param: "path"}
	}
	body, err := c.Status(ctx, remotePath)
	if err != nil {
		return nil, err
	}

	base := path.Base(remotePath)
	var known []*Entry
	for _, line := range body {
		e := parseListLine(line, c.parsers)
		if e == nil || e.Kind == KindUnknown {
			continue
		}
		if e.Name == "." {
			e.Name = base
			return e, nil
		}
		known = append(known, e)
	}

	for _, e := range known {
		if e.Name == base || e.Name == remotePath {
			return e, nil
		}
	}
	if len(known) == 1 {
		return known[0], nil
	}
	return nil, &ProtocolError{
		Command:  "STAT " + remotePath,
		Response: strings.Join(body, "\n"),
	}
}

// receive runs a data transfer that reads from the server.
func (c *Client) receive(ctx context.Context, cmd string) ([]byte, error) {
	t := newTransfer(c.session, c.broker, directionReceive, cmd, nil)
	p := t.enqueue()
	if _, err := c.await(ctx, p); err != nil {
		return nil, err
	}
	return p.Data(), nil
}

// withArg joins a command and an optional argument.
func withArg(cmd, arg string) string {
	if arg == "" {
		return cmd
	}
	return cmd + " " + arg
}
