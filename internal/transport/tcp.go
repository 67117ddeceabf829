package transport

import (
	"fmt"
	"net"
	"time"

	"github.com/emirhncann/portable-thermal-printer/internal/tspl"
)

const defaultWriteTimeout = 10 * time.Second

// TCPTransport speaks to a raw-print socket, conventionally port 9100.
type TCPTransport struct {
	name    string
	address string
	timeout time.Duration
	caps    tspl.Capabilities
	conn    net.Conn
}

func NewTCPTransport(name, address string, timeout time.Duration, caps tspl.Capabilities) *TCPTransport {
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}
	return &TCPTransport{
		name:    name,
		address: address,
		timeout: timeout,
		caps:    caps,
	}
}

func (t *TCPTransport) Open() error {
	if t.conn != nil {
		return nil
	}

	conn, err := net.DialTimeout("tcp", t.address, t.timeout)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	t.conn = conn
	return nil
}

func (t *TCPTransport) Write(data []byte) error {
	if t.conn == nil {
		return ErrNotOpen
	}

	_ = t.conn.SetWriteDeadline(time.Now().Add(t.timeout))
	for len(data) > 0 {
		n, err := t.conn.Write(data)
		if err != nil {
			return fmt.Errorf("write to %s: %w", t.address, err)
		}
		data = data[n:]
	}
	return nil
}

func (t *TCPTransport) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

func (t *TCPTransport) Name() string {
	return t.name
}

func (t *TCPTransport) Capabilities() tspl.Capabilities {
	return t.caps
}
