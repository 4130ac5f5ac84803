package btl

// Process is the command processor. It runs exactly when a whole packet
// is pending, interprets the buffer per the latched command byte, emits
// exactly one response byte, and clears the pending-packet flag.
func (s *State) Process(h HAL) {
	switch s.cmd {
	case CmdUnlock:
		s.processUnlock(h)
	case CmdData:
		s.processData(h)
	case CmdVerify:
		s.processVerify(h)
	case CmdBkswapReset:
		h.Serial.WriteByte(RespOK)
		for !h.Serial.TxIdle() {
		}
		h.NVM.BankSwap()
	case CmdReset:
		h.Serial.WriteByte(RespOK)
		for !h.Serial.TxIdle() {
		}
		h.System.Reset()
	default:
		h.Serial.WriteByte(RespInvalid)
	}

	s.pendingPacket = false
}

// processUnlock opens (or clears) the unlock window. Payload words:
// [addr, size]. After alignment, addr+size must satisfy
// begin<end<=FlashEnd, else the window is cleared to empty.
func (s *State) processUnlock(h HAL) {
	begin := s.word(0) & OffsetAlignMask
	end := begin + (s.word(1) & SizeAlignMask)

	if end > begin && end <= FlashEnd {
		s.unlockBegin = begin
		s.unlockEnd = end
		h.Serial.WriteByte(RespOK)
	} else {
		s.unlockBegin = 0
		s.unlockEnd = 0
		h.Serial.WriteByte(RespError)
	}
}

// processData stages one erase block. Payload: [addr, EraseBlock bytes
// of data]. addr, after alignment, must lie strictly within the current
// unlock window.
func (s *State) processData(h HAL) {
	addr := s.word(0) & OffsetAlignMask

	if s.unlockBegin <= addr && addr < s.unlockEnd {
		for i := 0; i < EraseBlock/4; i++ {
			w := s.word(i + 1)
			copy(s.flashData[i*4:i*4+4], u32le(w))
		}
		s.flashAddr = addr
		s.dataReady = true
		h.Serial.WriteByte(RespOK)
	} else {
		h.Serial.WriteByte(RespError)
	}
}

// processVerify computes the hardware CRC32 over the unlock window and
// compares it against the host-supplied expected value (payload word 0).
func (s *State) processVerify(h HAL) {
	expected := s.word(0)
	got := s.CRCWindow(h)

	if expected == got {
		h.Serial.WriteByte(RespCRCOK)
	} else {
		h.Serial.WriteByte(RespCRCFail)
	}
}

func u32le(w uint32) []byte {
	return []byte{byte(w), byte(w >> 8), byte(w >> 16), byte(w >> 24)}
}
