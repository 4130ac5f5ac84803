package btl

// Poll is the frame receiver. It is non-blocking and consumes at most
// one byte per call, so it can be driven both from the main loop and,
// cooperatively, from inside the flash programmer's busy-wait loops.
func (s *State) Poll(h HAL) {
	if s.pendingPacket {
		return
	}

	b, ok := h.Serial.ReadByte()
	if !ok {
		return
	}

	// The tick is read and restarted on every call that reaches this
	// point, even when the state machine does not otherwise advance.
	if h.Tick.PeriodExpired() {
		// A desynchronized host cannot stick the receiver mid-frame:
		// the just-received byte becomes the first byte of a new
		// header.
		s.headerReceived = false
		s.ptr = 0
	}

	if !s.headerReceived {
		s.inputBuffer[s.ptr] = b
		s.ptr++

		if s.ptr == HeaderSize {
			if s.word(0) != Guard {
				h.Serial.WriteByte(RespError)
				s.ptr = 0
				h.Tick.Restart()
				return
			}

			declared := s.word(1)
			if declared > uint32(len(s.flashData)+4) {
				// Clamp rather than silently overflow the staging buffer.
				h.Serial.WriteByte(RespError)
				s.ptr = 0
				h.Tick.Restart()
				return
			}

			s.cmd = uint8(s.word(2))
			s.ptr = 0

			if declared == 0 {
				// A zero-length payload completes the packet as soon
				// as the header does; there is nothing left to collect.
				s.size = 0
				s.pendingPacket = true
			} else {
				s.size = declared
				s.headerReceived = true
			}
		}
		h.Tick.Restart()
		return
	}

	// Collecting payload.
	if s.ptr < s.size {
		s.inputBuffer[s.ptr] = b
		s.ptr++
	}

	if s.ptr == s.size {
		s.pendingPacket = true
		s.ptr = 0
		s.size = 0
		s.headerReceived = false
	}

	h.Tick.Restart()
}
