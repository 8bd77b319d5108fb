package adapter

import (
	"fmt"
	"time"

	"github.com/dborio/gohas/pkg/has"
	"go.bug.st/serial"
)

// Serial opens a go.bug.st/serial port and frames live navigation words the
// same way the file-based binary adapters do, so receiver_kind=serial can
// drive the decoder directly off hardware without an intermediate capture
// file, grounded on pkg/gnssgo/stream.OpenSerial's mode-construction idiom.
type Serial struct {
	port   serial.Port
	reader binaryFrameReader
}

// NewSerial opens portName at baud with 8N1 framing and a 500ms read
// timeout, matching the donor stream package's default timeout order of
// magnitude scaled up for a live HAS capture's lower duty cycle.
func NewSerial(portName string, baud int) (*Serial, error) {
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		StopBits: serial.OneStopBit,
		Parity:   serial.NoParity,
	}
	p, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("adapter: opening serial port %s: %w", portName, err)
	}
	if err := p.SetReadTimeout(500 * time.Millisecond); err != nil {
		p.Close()
		return nil, fmt.Errorf("adapter: setting read timeout on %s: %w", portName, err)
	}
	return &Serial{port: p, reader: binaryFrameReader{r: p}}, nil
}

func (s *Serial) Next() (has.Epoch, error) { return s.reader.nextEpoch() }

// Close releases the underlying serial port.
func (s *Serial) Close() error { return s.port.Close() }
