package asyncftp

import "io"

// counter accumulates the bytes moved on one data channel and passes the
// running total to a callback after each non-empty read or write.
type counter struct {
	total    int64
	callback func(int64)
}

func (c *counter) add(n int) {
	if n <= 0 {
		return
	}
	c.total += int64(n)
	if c.callback != nil {
		c.callback(c.total)
	}
}

// ProgressReader counts the payload of a STOR as the data channel consumes
// it. Callback receives the number of bytes read so far.
type ProgressReader struct {
	Reader   io.Reader
	Callback func(bytesTransferred int64)

	c counter
}

// Read implements io.Reader.
func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.Reader.Read(p)
	pr.c.callback = pr.Callback
	pr.c.add(n)
	return n, err
}

// ProgressWriter counts the bytes a receiving transfer (RETR, LIST, NLST)
// hands to its buffer or sink. Callback receives the number of bytes
// written so far.
type ProgressWriter struct {
	Writer   io.Writer
	Callback func(bytesTransferred int64)

	c counter
}

// Write implements io.Writer.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	pw.c.callback = pw.Callback
	pw.c.add(n)
	return n, err
}
