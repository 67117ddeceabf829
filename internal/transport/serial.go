package transport

import (
	"fmt"
	"os"

	"github.com/emirhncann/portable-thermal-printer/internal/tspl"
)

// SerialTransport writes to a serial device node (e.g. /dev/ttyUSB0 or a
// usblp character device). Line discipline setup is left to the host.
type SerialTransport struct {
	name   string
	device string
	caps   tspl.Capabilities
	file   *os.File
}

func NewSerialTransport(name, device string, caps tspl.Capabilities) *SerialTransport {
	return &SerialTransport{
		name:   name,
		device: device,
		caps:   caps,
	}
}

func (t *SerialTransport) Open() error {
	if t.file != nil {
		return nil
	}

	f, err := os.OpenFile(t.device, os.O_RDWR, 0)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	t.file = f
	return nil
}

func (t *SerialTransport) Write(data []byte) error {
	if t.file == nil {
		return ErrNotOpen
	}

	if _, err := t.file.Write(data); err != nil {
		return fmt.Errorf("write to %s: %w", t.device, err)
	}
	return nil
}

func (t *SerialTransport) Close() error {
	if t.file == nil {
		return nil
	}
	err := t.file.Close()
	t.file = nil
	return err
}

func (t *SerialTransport) Name() string {
	return t.name
}

func (t *SerialTransport) Capabilities() tspl.Capabilities {
	return t.caps
}
