package reader

import (
	"context"
	"fmt"

	"github.com/kenshaw/evdev"
	"go.uber.org/zap"
)

var digitKeys = map[evdev.KeyType]rune{
	evdev.Key0: '0',
	evdev.Key1: '1',
	evdev.Key2: '2',
	evdev.Key3: '3',
	evdev.Key4: '4',
	evdev.Key5: '5',
	evdev.Key6: '6',
	evdev.Key7: '7',
	evdev.Key8: '8',
	evdev.Key9: '9',
}

// Keyboard implements TagReader for USB keyboard-style RFID readers
// that type the badge number followed by Enter.
type Keyboard struct {
	device  *evdev.Evdev
	events  <-chan *evdev.EventEnvelope
	cancel  context.CancelFunc
	scanner *Scanner
	log     *zap.SugaredLogger
}

// NewKeyboard opens the input device and starts polling it. The device is
// grabbed so scans do not leak into a console.
func NewKeyboard(device string, digits int) (*Keyboard, error) {
	dev, err := evdev.OpenFile(device)
	if err != nil {
		return nil, fmt.Errorf("open evdev %s: %w", device, err)
	}

	log := zap.S().Named("reader")
	log.Infof("Opened keyboard device: %s", dev.Name())
	log.Infof("Vendor: 0x%04x, Product: 0x%04x", dev.ID().Vendor, dev.ID().Product)

	if err := dev.Lock(); err != nil {
		log.Warnf("Could not grab %s: %v", device, err)
	}

	// One poller for the life of the reader; Read only receives from it.
	ctx, cancel := context.WithCancel(context.Background())
	k := newKeyboard(dev.Poll(ctx), cancel, digits, log)
	k.device = dev
	return k, nil
}

func newKeyboard(events <-chan *evdev.EventEnvelope, cancel context.CancelFunc, digits int, log *zap.SugaredLogger) *Keyboard {
	return &Keyboard{
		events:  events,
		cancel:  cancel,
		scanner: NewScanner(digits),
		log:     log,
	}
}

// Read implements TagReader.Read for keyboard readers.
func (k *Keyboard) Read(ctx context.Context) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case event, ok := <-k.events:
			if !ok {
				return "", fmt.Errorf("keyboard device closed")
			}

			switch event.Type.(type) {
			case evdev.KeyType:
				// key down only
				if event.Value != 1 {
					continue
				}

				key := evdev.KeyType(event.Code)
				if key == evdev.KeyEnter {
					tag, ok := k.scanner.Terminate()
					if !ok {
						k.log.Debugf("Discarding partial scan")
						continue
					}
					return tag, nil
				}
				if c, ok := digitKeys[key]; ok {
					k.scanner.Digit(c)
					k.log.Debugf("Buffer: %s", k.scanner)
				}
			}
		}
	}
}

// Close stops the poller and closes the device.
func (k *Keyboard) Close() error {
	k.cancel()
	var err error
	if k.device != nil {
		err = k.device.Close()
	}
	// the poller may be parked on a send; drain until it sees the cancel
	go func() {
		for range k.events {
		}
	}()
	return err
}
