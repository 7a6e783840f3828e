package mock

import (
	"fmt"

	"pipelined.dev/hwstream/hardware"
)

// Device mocks up a hardware.Device with a fixed set of tagged channels.
type Device struct {
	Channels  map[string]hardware.Channel
	Connected bool
	Closed    bool

	ErrorOnConnect error
	ErrorOnClose   error
}

// Connect implements hardware.Device.
func (d *Device) Connect() error {
	if d.ErrorOnConnect != nil {
		return d.ErrorOnConnect
	}
	d.Connected = true
	return nil
}

// Channel implements hardware.Device.
func (d *Device) Channel(tag string) (hardware.Channel, error) {
	ch, ok := d.Channels[tag]
	if !ok {
		return nil, fmt.Errorf("tag %q not found", tag)
	}
	return ch, nil
}

// Close implements hardware.Device.
func (d *Device) Close() error {
	d.Closed = true
	return d.ErrorOnClose
}
