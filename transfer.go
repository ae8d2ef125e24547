package asyncftp

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Retrieve downloads a remote file and returns its contents.
// The transfer is performed in binary mode (TYPE I).
//
// Example:
//
//	data, err := client.Retrieve(ctx, "remote.txt")
func (c *Client) Retrieve(ctx context.Context, remotePath string) ([]byte, error) {
	if remotePath == "" {
		return nil, &UsageError{Op: "retrieve", Param: "path"}
	}
	if err := c.Type(ctx, "I"); err != nil {
		return nil, fmt.Errorf("failed to set binary mode: %w", err)
	}
	return c.receive(ctx, "RETR "+remotePath)
}

// RetrieveTo downloads a remote file into w as the data arrives. w is only
// written from the data connection goroutine and must not be used until
// RetrieveTo returns.
//
// Example:
//
//	file, err := os.Create("local.txt")
//	if err != nil {
//	    return err
//	}
//	defer file.Close()
//
//	err = client.RetrieveTo(ctx, "remote.txt", file)
func (c *Client) RetrieveTo(ctx context.Context, remotePath string, w io.Writer) error {
	if remotePath == "" {
		return &UsageError{Op: "retrieve", Param: "path"}
	}
	if w == nil {
		return &UsageError{Op: "retrieve", Param: "writer"}
	}
	if err := c.Type(ctx, "I"); err != nil {
		return fmt.Errorf("failed to set binary mode: %w", err)
	}

	t := newTransfer(c.session, c.broker, directionReceive, "RETR "+remotePath, nil)
	t.sink = w
	_, err := c.await(ctx, t.enqueue())
	t.settle()
	return err
}

// Store uploads data from an io.Reader to the remote path. The payload is
// written only after the server accepts STOR with 125 or 150, and Store
// returns once the server confirms the transfer.
//
// Example:
//
//	file, err := os.Open("local.txt")
//	if err != nil {
//	    return err
//	}
//	defer file.Close()
//
//	err = client.Store(ctx, "remote.txt", file)
func (c *Client) Store(ctx context.Context, remotePath string, r io.Reader) error {
	if remotePath == "" {
		return &UsageError{Op: "store", Param: "path"}
	}
	if r == nil {
		return &UsageError{Op: "store", Param: "reader"}
	}
	if err := c.Type(ctx, "I"); err != nil {
		return fmt.Errorf("failed to set binary mode: %w", err)
	}

	t := newTransfer(c.session, c.broker, directionSend, "STOR "+remotePath, r)
	_, err := c.await(ctx, t.enqueue())
	return err
}

// UploadFile uploads a local file to the remote path.
func (c *Client) UploadFile(ctx context.Context, localPath, remotePath string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open local file: %w", err)
	}
	defer file.Close()

	return c.Store(ctx, remotePath, file)
}

// DownloadFile downloads a remote file to the local path. The local file is
// removed if the transfer fails.
func (c *Client) DownloadFile(ctx context.Context, remotePath, localPath string) error {
	file, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("failed to create local file: %w", err)
	}

	err = c.RetrieveTo(ctx, remotePath, file)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(localPath)
		return err
	}
	return nil
}
