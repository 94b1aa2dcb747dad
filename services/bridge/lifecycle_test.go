package bridge

import (
	"bytes"
	"context"
	"testing"
	"time"

	"sigfoxbridge-go/bus"
	"sigfoxbridge-go/term"
	"sigfoxbridge-go/types"
)

func waitPhase(t *testing.T, sub *bus.Subscription, want types.Phase) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case m := <-sub.Channel():
			if st, ok := m.Payload.(types.BridgeState); ok && st.Phase == want {
				return
			}
		case <-deadline:
			t.Fatalf("timeout waiting for phase %q", want)
		}
	}
}

func testConfig() types.BridgeConfig {
	return types.BridgeConfig{
		Serial:    types.SerialConfig{Device: "fake"},
		ButtonPin: "GPIO17",
		LEDPin:    "GPIO27",
		ActiveLow: true,
	}
}

func TestRunCleanLifecycle(t *testing.T) {
	b := bus.NewBus(32, "+", "#")
	rec := &closeRec{}
	fs := newFakeSerial(rec)
	fb := newFakeButton(types.High, rec)
	fl := &fakeLED{rec: rec}
	open := &fakeOpener{serial: fs, button: fb, led: fl}
	flag := term.NewFlag()

	cli := b.NewConnection("cli")
	stateSub := cli.Subscribe(topicState())
	rxSub := cli.Subscribe(topicSerialRx())
	cli.Publish(cli.NewMessage(topicConfig(), testConfig(), true))

	done := make(chan error, 1)
	go func() {
		done <- Run(context.Background(), b.NewConnection("bridge"), flag, open, quietLogger())
	}()

	waitPhase(t, stateSub, types.PhaseRunning)

	// Inbound path: 5 bytes, odd cumulative count, LED active.
	fs.inject([]byte("hello"))
	select {
	case m := <-rxSub.Channel():
		chunk, ok := m.Payload.(types.RxChunk)
		if !ok || chunk.N != 5 || chunk.Total != 5 {
			t.Errorf("rx chunk = %#v", m.Payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no rx event")
	}
	if active, ok := fl.last(); !ok || !active {
		t.Errorf("LED after 5 bytes = (%v, %v), want active", active, ok)
	}

	// Outbound path: pressed edge sends the fixed message.
	fb.set(types.Low)
	waitFor(t, func() bool { return bytes.Equal(fs.sent(), pressLiteral) }, "press message on the wire")

	flag.Request()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v on signal shutdown, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after termination request")
	}

	// LED forced inactive as the first shutdown action.
	if active, _ := fl.last(); active {
		t.Error("LED left active after shutdown")
	}
	// Reverse acquisition order: led, button, serial.
	if got := rec.closed(); len(got) != 3 || got[0] != "led" || got[1] != "button" || got[2] != "serial" {
		t.Errorf("close order = %v, want [led button serial]", got)
	}

	waitPhase(t, stateSub, types.PhaseTerminated)
}

// Initialization failure at the LED step must still release the serial
// port, the button, and the timer.
func TestInitFailureRollsBackAcquired(t *testing.T) {
	b := bus.NewBus(32, "+", "#")
	rec := &closeRec{}
	open := &fakeOpener{
		serial: newFakeSerial(rec),
		button: newFakeButton(types.High, rec),
		led:    &fakeLED{rec: rec},
		failAt: "led",
	}
	flag := term.NewFlag()

	cli := b.NewConnection("cli")
	stateSub := cli.Subscribe(topicState())
	cli.Publish(cli.NewMessage(topicConfig(), testConfig(), true))

	done := make(chan error, 1)
	go func() {
		done <- Run(context.Background(), b.NewConnection("bridge"), flag, open, quietLogger())
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Error("Run returned nil after failed initialization")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after failed initialization")
	}

	// Rollback in reverse order; the LED was never acquired.
	if got := rec.closed(); len(got) != 2 || got[0] != "button" || got[1] != "serial" {
		t.Errorf("close order = %v, want [button serial]", got)
	}
	if !flag.Requested() {
		t.Error("termination flag not set after failed initialization")
	}
	waitPhase(t, stateSub, types.PhaseTerminated)
}

// A fatal handler error routes through the shutdown path and is returned.
func TestFatalHandlerErrorShutsDown(t *testing.T) {
	b := bus.NewBus(32, "+", "#")
	rec := &closeRec{}
	fs := newFakeSerial(rec)
	open := &fakeOpener{serial: fs, button: newFakeButton(types.High, rec), led: &fakeLED{rec: rec}}
	flag := term.NewFlag()

	cli := b.NewConnection("cli")
	stateSub := cli.Subscribe(topicState())
	cli.Publish(cli.NewMessage(topicConfig(), testConfig(), true))

	done := make(chan error, 1)
	go func() {
		done <- Run(context.Background(), b.NewConnection("bridge"), flag, open, quietLogger())
	}()

	waitPhase(t, stateSub, types.PhaseRunning)

	fs.setReadErr(errFake)
	fs.signal()

	select {
	case err := <-done:
		if err == nil {
			t.Error("Run returned nil after fatal read error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after fatal read error")
	}
	waitPhase(t, stateSub, types.PhaseTerminated)
}

func waitFor(t *testing.T, cond func() bool, what string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timeout waiting for %s", what)
}
