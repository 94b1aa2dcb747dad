package bridge

import (
	"time"

	"sigfoxbridge-go/dispatch"
	"sigfoxbridge-go/hal"
	"sigfoxbridge-go/hal/hostgpio"
	"sigfoxbridge-go/hal/hostserial"
	"sigfoxbridge-go/types"
)

// Opener acquires the board peripherals. Host builds use HostOpener;
// tests inject fakes.
type Opener interface {
	OpenSerial(cfg types.SerialConfig) (hal.SerialPort, error)
	OpenButton(pin string) (hal.DigitalIn, error)
	OpenLED(pin string, activeLow bool) (hal.DigitalOut, error)
}

// HostOpener opens real host peripherals.
type HostOpener struct{}

func (HostOpener) OpenSerial(cfg types.SerialConfig) (hal.SerialPort, error) {
	return hostserial.Open(cfg)
}

func (HostOpener) OpenButton(pin string) (hal.DigitalIn, error) {
	return hostgpio.OpenIn(pin)
}

func (HostOpener) OpenLED(pin string, activeLow bool) (hal.DigitalOut, error) {
	return hostgpio.OpenOut(pin, activeLow)
}

// peripherals tracks acquired resources in order, so a failed acquisition
// or a shutdown releases them in reverse.
type peripherals struct {
	serial hal.SerialPort
	button hal.DigitalIn
	ticker *dispatch.TickerSource
	led    hal.DigitalOut

	release []func() // reverse-ordered on call
}

// acquire opens everything in the fixed order: serial, button, timer, LED.
// On any failure, already-acquired peripherals are released in reverse and
// the error is returned.
func (p *peripherals) acquire(open Opener, cfg types.BridgeConfig) error {
	sp, err := open.OpenSerial(cfg.Serial)
	if err != nil {
		p.releaseAll()
		return err
	}
	p.serial = sp
	p.release = append(p.release, func() { _ = sp.Close() })

	btn, err := open.OpenButton(cfg.ButtonPin)
	if err != nil {
		p.releaseAll()
		return err
	}
	p.button = btn
	p.release = append(p.release, func() { _ = btn.Close() })

	tick := dispatch.NewTicker(time.Duration(cfg.PollIntervalMs) * time.Millisecond)
	p.ticker = tick
	p.release = append(p.release, tick.Stop)

	led, err := open.OpenLED(cfg.LEDPin, cfg.ActiveLow)
	if err != nil {
		p.releaseAll()
		return err
	}
	p.led = led
	p.release = append(p.release, func() { _ = led.Close() })

	return nil
}

func (p *peripherals) releaseAll() {
	for i := len(p.release) - 1; i >= 0; i-- {
		p.release[i]()
	}
	p.release = nil
	p.serial, p.button, p.ticker, p.led = nil, nil, nil, nil
}
