// Package hostgpio adapts periph.io GPIO pins to the hal interfaces.
// Pins are addressed by registry name (e.g. "GPIO17").
package hostgpio

import (
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"sigfoxbridge-go/errcode"
	"sigfoxbridge-go/types"
)

var (
	initOnce sync.Once
	initErr  error
)

func ensureHost() error {
	initOnce.Do(func() {
		_, initErr = host.Init()
	})
	return initErr
}

func byName(op, name string) (gpio.PinIO, error) {
	if err := ensureHost(); err != nil {
		return nil, errcode.Wrap(errcode.InitFailed, op, err)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, errcode.Wrap(errcode.InitFailed, op, errcode.Code("unknown_pin"))
	}
	return p, nil
}

// ---- Input ----

type In struct {
	pin gpio.PinIO
}

// OpenIn claims an input pin with the internal pull-up enabled, matching
// the button wiring (idle high, pressed low).
func OpenIn(name string) (*In, error) {
	p, err := byName("hostgpio.open_in", name)
	if err != nil {
		return nil, err
	}
	if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, errcode.Wrap(errcode.InitFailed, "hostgpio.open_in", err)
	}
	return &In{pin: p}, nil
}

// Get samples the electrical level.
func (i *In) Get() (types.Level, error) {
	if i.pin.Read() == gpio.High {
		return types.High, nil
	}
	return types.Low, nil
}

func (i *In) Close() error { return i.pin.Halt() }

// ---- Output ----

type Out struct {
	pin       gpio.PinIO
	activeLow bool
}

// OpenOut claims an output pin and drives it to the inactive level.
func OpenOut(name string, activeLow bool) (*Out, error) {
	p, err := byName("hostgpio.open_out", name)
	if err != nil {
		return nil, err
	}
	o := &Out{pin: p, activeLow: activeLow}
	if err := o.Set(false); err != nil {
		return nil, errcode.Wrap(errcode.InitFailed, "hostgpio.open_out", err)
	}
	return o, nil
}

// Set drives the logical state; activeLow inverts the electrical level.
func (o *Out) Set(active bool) error {
	lvl := gpio.Level(active != o.activeLow)
	if err := o.pin.Out(lvl); err != nil {
		return errcode.Wrap(errcode.PeripheralWrite, "hostgpio.set", err)
	}
	return nil
}

func (o *Out) Close() error { return o.pin.Halt() }
