package asyncftp

import (
	"net"
	"time"
)

// deadlineConn wraps a data connection and sets a read/write deadline before
// every operation.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *deadlineConn) Read(b []byte) (n int, err error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(b)
}

func (c *deadlineConn) Write(b []byte) (n int, err error) {
	if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Write(b)
}

// CloseWrite half-closes the connection if the wrapped connection supports
// it, and closes it completely otherwise.
func (c *deadlineConn) CloseWrite() error {
	return closeWrite(c.Conn)
}
