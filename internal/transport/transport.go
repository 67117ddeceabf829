// Package transport carries encoded command streams to the physical
// printer over a TCP raw-print socket or a serial device node.
package transport

import (
	"errors"
	"fmt"

	"github.com/emirhncann/portable-thermal-printer/internal/config"
	"github.com/emirhncann/portable-thermal-printer/internal/tspl"
)

var (
	ErrConnectionFailed = errors.New("connection failed")
	ErrNotOpen          = errors.New("transport is not open")
)

type Transport interface {
	Open() error
	Write(data []byte) error
	Close() error

	// Name identifies the printer in logs and failure reasons.
	Name() string
	Capabilities() tspl.Capabilities
}

func New(cfg config.PrinterConfig) (Transport, error) {
	caps := tspl.Capabilities{
		BlackMark:      cfg.BlackMarkSensing,
		ExtendedBitmap: cfg.ExtendedBitmap,
	}

	switch cfg.Kind {
	case "tcp":
		return NewTCPTransport(cfg.Name, cfg.Address, cfg.ConnectionTimeout, caps), nil
	case "serial":
		return NewSerialTransport(cfg.Name, cfg.Address, caps), nil
	default:
		return nil, fmt.Errorf("unsupported transport kind: %s", cfg.Kind)
	}
}
