// internal/drive/modbus/client.go
package modbus

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/goburrow/modbus"

	"github.com/tamzrod/motor-exerciser/internal/drive"
)

// WordOrder selects which fieldbus word carries the low half of a
// 32-bit drive register.
type WordOrder int

const (
	// LowHigh: low word at the lower address (MAC00 Modbus module).
	LowHigh WordOrder = iota
	// HighLow: high word at the lower address.
	HighLow
)

// ParseWordOrder maps the config string to a WordOrder.
func ParseWordOrder(s string) (WordOrder, error) {
	switch s {
	case "", "low-high":
		return LowHigh, nil
	case "high-low":
		return HighLow, nil
	default:
		return 0, fmt.Errorf("modbus client: unknown word order %q", s)
	}
}

// Config is minimal transport config.
type Config struct {
	Endpoint string
	UnitID   uint8
	Timeout  time.Duration
	Order    WordOrder
}

// Client implements drive.Bus over Modbus TCP holding registers.
// A mutex serializes round trips: the connection is shared between
// motor commands and status polls, and request/response framing does
// not survive interleaving.
type Client struct {
	mu      sync.Mutex
	handler *modbus.TCPClientHandler
	client  modbus.Client
	order   WordOrder
}

// New creates a connected client. Every request carries cfg.Timeout
// as its I/O bound.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("modbus client: endpoint required")
	}

	handler := modbus.NewTCPClientHandler(cfg.Endpoint)
	handler.Timeout = cfg.Timeout
	handler.SlaveId = cfg.UnitID

	if err := handler.Connect(); err != nil {
		return nil, classify(err)
	}

	return &Client{
		handler: handler,
		client:  modbus.NewClient(handler),
		order:   cfg.Order,
	}, nil
}

// Close closes the TCP connection.
func (c *Client) Close() error {
	if c == nil || c.handler == nil {
		return nil
	}
	return c.handler.Close()
}

// ---- drive.Bus ----

// ReadRegister reads one 32-bit drive register, stored as two
// consecutive 16-bit words at fieldbus address 2*num.
func (c *Client) ReadRegister(num uint16) (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, err := c.client.ReadHoldingRegisters(
		drive.FieldbusAddr(num), drive.WordsPerRegister)
	if err != nil {
		return 0, classify(err)
	}
	if len(raw) != 2*drive.WordsPerRegister {
		return 0, fmt.Errorf("%w: short register payload: %d bytes",
			drive.ErrProtocol, len(raw))
	}

	w0 := binary.BigEndian.Uint16(raw[0:2])
	w1 := binary.BigEndian.Uint16(raw[2:4])
	return compose(c.order, w0, w1), nil
}

// WriteRegister writes one 32-bit drive register as two words.
func (c *Client) WriteRegister(num uint16, value uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	w0, w1 := split(c.order, value)
	buf := make([]byte, 2*drive.WordsPerRegister)
	binary.BigEndian.PutUint16(buf[0:2], w0)
	binary.BigEndian.PutUint16(buf[2:4], w1)

	_, err := c.client.WriteMultipleRegisters(
		drive.FieldbusAddr(num), drive.WordsPerRegister, buf)
	if err != nil {
		return classify(err)
	}
	return nil
}

// ---- helpers ----

func compose(order WordOrder, w0, w1 uint16) uint32 {
	if order == HighLow {
		return uint32(w0)<<16 | uint32(w1)
	}
	return uint32(w1)<<16 | uint32(w0)
}

func split(order WordOrder, v uint32) (w0, w1 uint16) {
	lo := uint16(v)
	hi := uint16(v >> 16)
	if order == HighLow {
		return hi, lo
	}
	return lo, hi
}

// classify maps raw transport errors onto the drive taxonomy.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %v", drive.ErrTimeout, err)
	}

	// Device exception or framing mismatch reported by the library.
	var me *modbus.ModbusError
	if errors.As(err, &me) {
		return fmt.Errorf("%w: %v", drive.ErrProtocol, err)
	}

	// Dead link shows up as EOF, reset, or a plain dial failure.
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %v", drive.ErrConnection, err)
	}
	var oe *net.OpError
	if errors.As(err, &oe) {
		return fmt.Errorf("%w: %v", drive.ErrConnection, err)
	}

	return fmt.Errorf("%w: %v", drive.ErrProtocol, err)
}
