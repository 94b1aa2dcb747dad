package bridge

import (
	"sync"

	"sigfoxbridge-go/hal"
	"sigfoxbridge-go/types"
)

// --- close-order recorder ---

type closeRec struct {
	mu    sync.Mutex
	order []string
}

func (r *closeRec) add(name string) {
	r.mu.Lock()
	r.order = append(r.order, name)
	r.mu.Unlock()
}

func (r *closeRec) closed() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

// --- fake serial port ---

type fakeSerial struct {
	mu       sync.Mutex
	rx       []byte
	tx       []byte
	readable chan struct{}

	writeLimit int // max bytes accepted per Write; 0 = unlimited
	werr       error
	rerr       error

	rec *closeRec
}

func newFakeSerial(rec *closeRec) *fakeSerial {
	return &fakeSerial{readable: make(chan struct{}, 1), rec: rec}
}

func (f *fakeSerial) inject(b []byte) {
	f.mu.Lock()
	f.rx = append(f.rx, b...)
	f.mu.Unlock()
	f.signal()
}

func (f *fakeSerial) setReadErr(err error) {
	f.mu.Lock()
	f.rerr = err
	f.mu.Unlock()
}

func (f *fakeSerial) signal() {
	select {
	case f.readable <- struct{}{}:
	default:
	}
}

func (f *fakeSerial) Read(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rerr != nil {
		return 0, f.rerr
	}
	n := copy(p, f.rx)
	f.rx = f.rx[n:]
	if len(f.rx) > 0 {
		f.signal()
	}
	return n, nil
}

func (f *fakeSerial) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.werr != nil {
		return 0, f.werr
	}
	if f.writeLimit > 0 && len(p) > f.writeLimit {
		p = p[:f.writeLimit]
	}
	f.tx = append(f.tx, p...)
	return len(p), nil
}

func (f *fakeSerial) sent() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]byte(nil), f.tx...)
}

func (f *fakeSerial) Buffered() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rx)
}

func (f *fakeSerial) Readable() <-chan struct{} { return f.readable }

func (f *fakeSerial) Close() error {
	if f.rec != nil {
		f.rec.add("serial")
	}
	return nil
}

// --- fake button ---

type fakeButton struct {
	mu    sync.Mutex
	level types.Level
	err   error
	rec   *closeRec
}

func newFakeButton(initial types.Level, rec *closeRec) *fakeButton {
	return &fakeButton{level: initial, rec: rec}
}

func (f *fakeButton) set(l types.Level) {
	f.mu.Lock()
	f.level = l
	f.mu.Unlock()
}

func (f *fakeButton) Get() (types.Level, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.level, f.err
}

func (f *fakeButton) Close() error {
	if f.rec != nil {
		f.rec.add("button")
	}
	return nil
}

// --- fake LED ---

type fakeLED struct {
	mu     sync.Mutex
	states []bool
	err    error
	rec    *closeRec
}

func (f *fakeLED) Set(active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.states = append(f.states, active)
	return nil
}

func (f *fakeLED) last() (bool, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.states) == 0 {
		return false, false
	}
	return f.states[len(f.states)-1], true
}

func (f *fakeLED) Close() error {
	if f.rec != nil {
		f.rec.add("led")
	}
	return nil
}

// --- fake opener ---

type fakeOpener struct {
	serial *fakeSerial
	button *fakeButton
	led    *fakeLED

	failAt string // "serial" | "button" | "led" | ""
}

func (o *fakeOpener) OpenSerial(types.SerialConfig) (hal.SerialPort, error) {
	if o.failAt == "serial" {
		return nil, errFake
	}
	return o.serial, nil
}

func (o *fakeOpener) OpenButton(string) (hal.DigitalIn, error) {
	if o.failAt == "button" {
		return nil, errFake
	}
	return o.button, nil
}

func (o *fakeOpener) OpenLED(string, bool) (hal.DigitalOut, error) {
	if o.failAt == "led" {
		return nil, errFake
	}
	return o.led, nil
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }

var errFake = fakeErr("fake open failure")
