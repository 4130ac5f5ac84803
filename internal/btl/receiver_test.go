package btl_test

import (
	"encoding/binary"
	"testing"

	"github.com/keelhaul-systems/uartboot/internal/btl"
	"github.com/keelhaul-systems/uartboot/internal/sim"
)

func packetHeader(size uint32, cmd byte) []byte {
	h := make([]byte, btl.HeaderSize)
	binary.LittleEndian.PutUint32(h[0:4], btl.Guard)
	binary.LittleEndian.PutUint32(h[4:8], size)
	h[8] = cmd
	return h
}

func pumpUntilIdle(t *testing.T, s *btl.State, h btl.HAL, max int) {
	t.Helper()
	for i := 0; i < max; i++ {
		s.Poll(h)
	}
}

func TestReceiverRejectsBadGuard(t *testing.T) {
	dev := sim.NewDevice()
	h := dev.HAL()
	s := btl.NewState()

	dev.SendHost([]byte{0, 0, 0, 0, 0, 0, 0, 0, 0})
	pumpUntilIdle(t, s, h, 9)

	resp := dev.RecvHost()
	if len(resp) != 1 || resp[0] != btl.RespError {
		t.Fatalf("response = %v, want [RespError]", resp)
	}
	if s.PendingPacket() {
		t.Fatal("bad guard must not leave a pending packet")
	}
}

func TestReceiverCollectsDataPacket(t *testing.T) {
	dev := sim.NewDevice()
	h := dev.HAL()
	s := btl.NewState()

	payload := make([]byte, 4+btl.EraseBlock)
	binary.LittleEndian.PutUint32(payload[0:4], 0x2000)
	for i := range payload[4:] {
		payload[4+i] = byte(i)
	}

	pkt := append(packetHeader(uint32(len(payload)), btl.CmdData), payload...)
	// Use an UNLOCK first so the window contains the DATA address.
	unlockPayload := make([]byte, 8)
	binary.LittleEndian.PutUint32(unlockPayload[0:4], 0x2000)
	binary.LittleEndian.PutUint32(unlockPayload[4:8], 0x2000)
	unlockPkt := append(packetHeader(8, btl.CmdUnlock), unlockPayload...)

	dev.SendHost(unlockPkt)
	pumpUntilIdle(t, s, h, len(unlockPkt))
	if s.PendingPacket() {
		s.Process(h)
	}
	resp := dev.RecvHost()
	if len(resp) != 1 || resp[0] != btl.RespOK {
		t.Fatalf("unlock response = %v, want [RespOK]", resp)
	}

	dev.SendHost(pkt)
	pumpUntilIdle(t, s, h, len(pkt))

	if !s.PendingPacket() {
		t.Fatal("expected a pending packet after a full DATA frame")
	}
}

func TestReceiverIgnoresNewBytesWhilePending(t *testing.T) {
	dev := sim.NewDevice()
	h := dev.HAL()
	s := btl.NewState()

	pkt := packetHeader(0, btl.CmdReset)
	dev.SendHost(pkt)
	pumpUntilIdle(t, s, h, len(pkt))
	if !s.PendingPacket() {
		t.Fatal("zero-length payload command should complete with the header")
	}

	// Extra bytes must not be consumed into the buffered packet.
	dev.SendHost([]byte{0xAA, 0xBB})
	s.Poll(h)
	if !s.PendingPacket() {
		t.Fatal("pending packet must survive extra incoming bytes")
	}
}

func TestReceiverInterByteTimeoutResynchronizes(t *testing.T) {
	dev := sim.NewDevice()
	h := dev.HAL()
	s := btl.NewState()

	// Send half a header, then force the tick to expire before the rest
	// arrives — this must restart header collection on the next byte
	// rather than treating it as a continuation.
	dev.SendHost([]byte{0x4D, 0x43})
	s.Poll(h)
	s.Poll(h)

	dev.ExpireTick()
	dev.SendHost(packetHeader(0, btl.CmdReset))
	for i := 0; i < btl.HeaderSize; i++ {
		s.Poll(h)
	}

	if !s.PendingPacket() {
		t.Fatal("expected the timeout-resynchronized header to complete normally")
	}
}

func TestReceiverClampsOverlongDeclaredSize(t *testing.T) {
	dev := sim.NewDevice()
	h := dev.HAL()
	s := btl.NewState()

	pkt := packetHeader(0xFFFFFFFF, btl.CmdData)
	dev.SendHost(pkt)
	pumpUntilIdle(t, s, h, len(pkt))

	resp := dev.RecvHost()
	if len(resp) != 1 || resp[0] != btl.RespError {
		t.Fatalf("response = %v, want [RespError] for an oversize declared payload", resp)
	}
	if s.PendingPacket() {
		t.Fatal("an oversize declared payload must not leave a pending packet")
	}
}
