package trigger

import "sync"

// Fake records every message. Set Err to make SendMessage fail.
type Fake struct {
	Codebook

	mu       sync.Mutex
	Err      error
	messages []string
}

func (f *Fake) SendMessage(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.messages = append(f.messages, text)
	return nil
}

func (f *Fake) Messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.messages...)
}
