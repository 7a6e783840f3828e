package hardware

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/xid"

	"pipelined.dev/hwstream"
)

// Session is an open connection to a device with logical channel names
// resolved to hardware channels.
type Session struct {
	id       string
	device   Device
	tags     map[string]string
	names    []string
	m        sync.Mutex
	channels map[string]Channel
	closed   bool
}

// Option configures a session.
type Option func(*Session) error

// WithChannel maps logical name to hardware tag.
func WithChannel(name, tag string) Option {
	return func(s *Session) error {
		if name == "" || tag == "" {
			return fmt.Errorf("%w: empty channel mapping %q -> %q", hwstream.ErrConfig, name, tag)
		}
		if _, ok := s.tags[name]; ok {
			return fmt.Errorf("%w: duplicate channel %q", hwstream.ErrConfig, name)
		}
		s.tags[name] = tag
		s.names = append(s.names, name)
		return nil
	}
}

// Open connects to the device and resolves every mapped tag. Session is
// not returned if any tag is missing.
func Open(device Device, options ...Option) (*Session, error) {
	s := &Session{
		id:       xid.New().String(),
		device:   device,
		tags:     make(map[string]string),
		channels: make(map[string]Channel),
	}
	for _, option := range options {
		if err := option(s); err != nil {
			return nil, err
		}
	}
	if err := device.Connect(); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	for _, name := range s.names {
		tag := s.tags[name]
		ch, err := device.Channel(tag)
		if err == nil && ch == nil {
			err = errors.New("no channel")
		}
		if err != nil {
			_ = device.Close()
			return nil, fmt.Errorf("%w: channel %q tag %q: %v", hwstream.ErrConfig, name, tag, err)
		}
		s.channels[name] = ch
	}
	return s, nil
}

// ID returns unique session id.
func (s *Session) ID() string {
	return s.id
}

// Names returns logical channel names in mapping order.
func (s *Session) Names() []string {
	return append([]string(nil), s.names...)
}

// Channel returns channel by logical name.
func (s *Session) Channel(name string) (Channel, error) {
	s.m.Lock()
	defer s.m.Unlock()
	if s.closed {
		return nil, hwstream.ErrInvalidState
	}
	ch, ok := s.channels[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown channel %q", hwstream.ErrConfig, name)
	}
	return ch, nil
}

// Close disconnects from the device. Session cannot be used after
// close.
func (s *Session) Close() error {
	s.m.Lock()
	defer s.m.Unlock()
	if s.closed {
		return hwstream.ErrInvalidState
	}
	s.closed = true
	return s.device.Close()
}
