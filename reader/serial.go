package reader

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/tarm/serial"
)

// Serial implements TagReader for serial RFID readers using a framed protocol.
// Frame: [0x02][0x09][4 reserved+data bytes...][checksum][0x03]
type Serial struct {
	port   *serial.Port
	device string
	digits int
}

// NewSerial opens a serial RFID reader.
func NewSerial(device string, baud, digits int) (*Serial, error) {
	if baud == 0 {
		baud = 115200
	}
	c := &serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: time.Second,
	}
	port, err := serial.OpenPort(c)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", device, err)
	}

	return &Serial{port: port, device: device, digits: digits}, nil
}

// Read implements TagReader.Read for serial readers.
func (s *Serial) Read(ctx context.Context) (string, error) {
	buf := make([]byte, 9)
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		n, err := s.port.Read(buf)
		if err != nil || n != len(buf) {
			// timeout or partial frame
			time.Sleep(100 * time.Millisecond)
			continue
		}
		if tag, ok := decodeFrame(buf); ok {
			return formatTag(tag, s.digits), nil
		}
	}
}

// decodeFrame validates a 9 byte frame and returns the 32-bit card number.
func decodeFrame(buf []byte) (uint64, bool) {
	if len(buf) != 9 {
		return 0, false
	}
	if !bytes.Equal(buf[0:2], []byte{0x02, 0x09}) || buf[8] != 0x03 {
		return 0, false
	}

	data := buf[1:7]
	xor := data[0]
	for i := 1; i < len(data); i++ {
		xor ^= data[i]
	}
	if xor != buf[7] {
		return 0, false
	}

	tag := (uint64(data[2]) << 24) | (uint64(data[3]) << 16) | (uint64(data[4]) << 8) | uint64(data[5])
	if tag == 0 {
		return 0, false
	}
	return tag, true
}

// formatTag renders a card number the way keyboard readers type it.
func formatTag(tag uint64, digits int) string {
	return fmt.Sprintf("%0*d", digits, tag)
}

// Close implements TagReader.Close.
func (s *Serial) Close() error {
	if s.port == nil {
		return nil
	}
	return s.port.Close()
}
