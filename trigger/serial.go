package trigger

import (
	"fmt"
	"sync"

	"go.bug.st/serial"

	"pitchdial/log"
)

const DefaultBaud = 115200

// Serial writes one marker per line to a serial port.
type Serial struct {
	Codebook

	mu   sync.Mutex
	port serial.Port
	name string
}

// OpenSerial opens the named port at baud.
func OpenSerial(name string, baud int) (*Serial, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	p, err := serial.Open(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", name, err)
	}
	log.Info(fmt.Sprintf("trigger port opened: %s @ %d", name, baud))
	return &Serial{port: p, name: name}, nil
}

func (s *Serial) SendMessage(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return fmt.Errorf("serial %s: closed", s.name)
	}
	if _, err := s.port.Write([]byte(text + "\n")); err != nil {
		return fmt.Errorf("serial %s write: %w", s.name, err)
	}
	return nil
}

func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

// Ports lists serial devices visible to the OS.
func Ports() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	return ports, nil
}
