package hostproto_test

import (
	"testing"

	"github.com/keelhaul-systems/uartboot/internal/btl"
	"github.com/keelhaul-systems/uartboot/internal/sim"
	"github.com/keelhaul-systems/uartboot/pkg/hostproto"
)

// simLink adapts a running simulated device to hostproto.Link by
// driving its byte channels synchronously, the same shape a real
// blocking serial port presents to the client.
type simLink struct {
	dev *sim.Device
}

func (l *simLink) Write(data []byte) (int, error) {
	l.dev.SendHost(data)
	return len(data), nil
}

func (l *simLink) Read(n int) ([]byte, error) {
	out := make([]byte, 0, n)
	for len(out) < n {
		out = append(out, <-l.dev.StreamOut())
	}
	return out, nil
}

func newTestClient(t *testing.T) (*hostproto.Client, *sim.Device) {
	t.Helper()
	dev := sim.NewDevice()
	go btl.Run(dev.HAL())
	return hostproto.New(&simLink{dev: dev}), dev
}

func TestUnlockDataVerifyRoundTrip(t *testing.T) {
	client, dev := newTestClient(t)

	addr := uint32(0x4000)
	block := make([]byte, btl.EraseBlock)
	for i := range block {
		block[i] = 0x5A
	}

	resp, err := client.Unlock(addr, btl.EraseBlock)
	if err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if resp != hostproto.RespOK {
		t.Fatalf("Unlock response = 0x%02X, want RespOK", resp)
	}

	resp, err = client.Data(addr, block)
	if err != nil {
		t.Fatalf("Data: %v", err)
	}
	if resp != hostproto.RespOK {
		t.Fatalf("Data response = 0x%02X, want RespOK", resp)
	}

	for i, b := range dev.Flash[addr : addr+btl.EraseBlock] {
		if b != 0x5A {
			t.Fatalf("flash[%d] = 0x%02X, want 0x5A", i, b)
		}
	}

	crc := btl.SoftwareCRC32(block)
	resp, err = client.Verify(crc)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if resp != hostproto.RespCRCOK {
		t.Fatalf("Verify response = 0x%02X, want RespCRCOK", resp)
	}

	// DATA's OK is sent before the block is programmed; VERIFY is only
	// processed once the programmer has finished, so flash is committed
	// by the time its response is back.
	for i, b := range dev.Flash[addr : addr+btl.EraseBlock] {
		if b != 0x5A {
			t.Fatalf("flash[%d] = 0x%02X, want 0x5A", i, b)
		}
	}
}

func TestVerifyDetectsMismatch(t *testing.T) {
	client, _ := newTestClient(t)

	addr := uint32(0x6000)
	block := make([]byte, btl.EraseBlock)

	if resp, err := client.Unlock(addr, btl.EraseBlock); err != nil || resp != hostproto.RespOK {
		t.Fatalf("Unlock: resp=0x%02X err=%v", resp, err)
	}
	if resp, err := client.Data(addr, block); err != nil || resp != hostproto.RespOK {
		t.Fatalf("Data: resp=0x%02X err=%v", resp, err)
	}

	resp, err := client.Verify(btl.SoftwareCRC32(block) ^ 0xFF)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if resp != hostproto.RespCRCFail {
		t.Fatalf("Verify response = 0x%02X, want RespCRCFail", resp)
	}
}

func TestResetAndBankSwapReset(t *testing.T) {
	client, dev := newTestClient(t)

	if resp, err := client.Reset(); err != nil || resp != hostproto.RespOK {
		t.Fatalf("Reset: resp=0x%02X err=%v", resp, err)
	}
	if dev.ResetCount() != 1 {
		t.Fatalf("ResetCount = %d, want 1", dev.ResetCount())
	}

	if resp, err := client.BankSwapReset(); err != nil || resp != hostproto.RespOK {
		t.Fatalf("BankSwapReset: resp=0x%02X err=%v", resp, err)
	}
	if dev.BankSwaps() != 1 {
		t.Fatalf("BankSwaps = %d, want 1", dev.BankSwaps())
	}
}
