package btl

import "encoding/binary"

// State is the bootloader's process-wide aggregate: the frame receiver's
// buffer and cursor, the command handshake flags, the unlock window, and
// the staging buffer the flash programmer consumes. It is owned
// exclusively by the main loop (see loop.go) and borrowed by each
// component's method — there is no package-level singleton.
type State struct {
	// inputBuffer is the word-aligned overlay the receiver fills one
	// byte at a time. Its first HeaderSize bytes are reinterpreted as
	// the guard/size/cmd header; its payload region is reinterpreted as
	// 32-bit little-endian words indexed from the start of the payload.
	inputBuffer [BufferWords * 4]byte
	ptr         uint32
	size        uint32
	cmd         uint8

	headerReceived bool
	pendingPacket  bool
	dataReady      bool

	unlockBegin uint32
	unlockEnd   uint32

	// flashData is the staging buffer: the most recent validated DATA
	// payload, copied out of inputBuffer so the programmer can consume
	// it while the receiver keeps filling inputBuffer with the next
	// packet.
	flashData [EraseBlock]byte
	flashAddr uint32
}

// NewState returns a freshly reset aggregate, as at power-on reset.
func NewState() *State {
	return &State{}
}

// PendingPacket reports whether a whole packet is waiting for the
// command processor.
func (s *State) PendingPacket() bool { return s.pendingPacket }

// DataReady reports whether a validated DATA payload is waiting for the
// flash programmer.
func (s *State) DataReady() bool { return s.dataReady }

// UnlockWindow returns the current half-open unlock window.
func (s *State) UnlockWindow() (begin, end uint32) { return s.unlockBegin, s.unlockEnd }

// word reads 32-bit little-endian word i of inputBuffer. The receiver
// resets ptr to 0 at the header/payload boundary (see receiver.go), so
// the payload reuses the buffer from byte 0: word 0 of the payload is
// the same storage as word 0 of the header (the guard), word 1 of the
// payload is the same storage as the header's size field, and so on.
// This mirrors the original firmware's single static buffer exactly.
func (s *State) word(i int) uint32 {
	return binary.LittleEndian.Uint32(s.inputBuffer[i*4 : i*4+4])
}
