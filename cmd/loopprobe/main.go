// loopprobe verifies a serial path end to end. Wire the adapter's TX pin
// to its RX pin (or point -device at a loopback pty) and run it; the probe
// sends a smoke string and then a deterministic stream, comparing FNV-1a
// hashes on both sides.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"sigfoxbridge-go/hal"
	"sigfoxbridge-go/hal/hostserial"
	"sigfoxbridge-go/types"
)

func main() {
	var (
		device  = flag.String("device", "/dev/ttyUSB0", "serial device to probe")
		baud    = flag.Int("baud", 9600, "baud rate")
		total   = flag.Int("bytes", 4096, "integrity stream length")
		chunk   = flag.Int("chunk", 64, "integrity write chunk")
		timeout = flag.Duration("timeout", 10*time.Second, "per-test deadline")
	)
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))

	port, err := hostserial.Open(types.SerialConfig{Device: *device, Baud: *baud})
	if err != nil {
		log.Error("open failed", slog.String("device", *device), slog.Any("err", err))
		os.Exit(1)
	}
	defer port.Close()

	ok := true
	fmt.Println("smoke: send 'hello-loop' and wait for echo")
	if smokeTest(port, []byte("hello-loop"), *timeout) {
		fmt.Println("smoke: PASS")
	} else {
		fmt.Println("smoke: FAIL")
		ok = false
	}

	fmt.Printf("integrity: %d bytes, chunk %d\n", *total, *chunk)
	if integrityTest(port, *total, *chunk, *timeout) {
		fmt.Println("integrity: PASS")
	} else {
		fmt.Println("integrity: FAIL")
		ok = false
	}

	if !ok {
		os.Exit(1)
	}
}

// smokeTest writes msg and scans the inbound stream for an exact match.
func smokeTest(port hal.SerialPort, msg []byte, timeout time.Duration) bool {
	if _, err := port.Write(msg); err != nil {
		fmt.Println("smoke: write error:", err)
		return false
	}

	deadline := time.Now().Add(timeout)
	buf := make([]byte, 0, 4*len(msg))
	tmp := make([]byte, 128)

	for time.Now().Before(deadline) {
		if bytes.Contains(buf, msg) {
			return true
		}
		select {
		case <-port.Readable():
			for port.Buffered() > 0 {
				n, err := port.Read(tmp)
				if err != nil {
					fmt.Println("smoke: read error:", err)
					return false
				}
				buf = append(buf, tmp[:n]...)
				if len(buf) > cap(buf) {
					copy(buf, buf[len(buf)-cap(buf):])
					buf = buf[:cap(buf)]
				}
			}
		case <-time.After(25 * time.Millisecond):
		}
	}
	fmt.Println("smoke: echo not seen; got bytes =", len(buf))
	return false
}

// integrityTest streams a deterministic pattern and compares FNV-1a hashes
// of what went out against what came back.
func integrityTest(port hal.SerialPort, totalBytes, chunk int, timeout time.Duration) bool {
	const off = uint32(2166136261)
	const prime = uint32(16777619)
	txHash, rxHash := off, off

	gen := byte(0xA5)
	out := make([]byte, chunk)
	tmp := make([]byte, 256)
	written, received := 0, 0
	deadline := time.Now().Add(timeout)

	for (written < totalBytes || received < totalBytes) && time.Now().Before(deadline) {
		if written < totalBytes {
			toWrite := chunk
			if toWrite > totalBytes-written {
				toWrite = totalBytes - written
			}
			for i := range out[:toWrite] {
				out[i] = gen
				gen = gen*31 + 7
			}
			n, err := port.Write(out[:toWrite])
			if err != nil {
				fmt.Println("integrity: write error:", err)
				return false
			}
			for i := 0; i < n; i++ {
				txHash ^= uint32(out[i])
				txHash *= prime
			}
			written += n
		}

		for received < totalBytes && port.Buffered() > 0 {
			n, err := port.Read(tmp)
			if err != nil {
				fmt.Println("integrity: read error:", err)
				return false
			}
			for i := 0; i < n; i++ {
				rxHash ^= uint32(tmp[i])
				rxHash *= prime
			}
			received += n
		}

		select {
		case <-port.Readable():
		case <-time.After(time.Millisecond):
		}
	}

	fmt.Printf("integrity: written=%d received=%d txHash=%08x rxHash=%08x\n",
		written, received, txHash, rxHash)
	return written == totalBytes && received == totalBytes && txHash == rxHash
}
