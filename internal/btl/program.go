package btl

// Program is the flash programmer. It runs when a staged DATA payload
// is waiting, erases then programs the one erase block it targets, and
// cooperates with the frame receiver during every NVM busy-wait so the
// link keeps accepting bytes for multi-millisecond flash operations.
//
// Data-ready is cleared only after the final page write completes; this
// never returns having written a partial block.
func (s *State) Program(h HAL) {
	addr := s.flashAddr

	h.NVM.RegionUnlock(addr)
	s.waitBusy(h)

	h.NVM.BlockErase(addr)
	s.waitBusy(h)

	for page := 0; page < PagesPerEB; page++ {
		offset := page * PageSize
		h.NVM.PageWrite(addr+uint32(offset), s.flashData[offset:offset+PageSize])
		s.waitBusy(h)
	}

	s.dataReady = false
}

func (s *State) waitBusy(h HAL) {
	for h.NVM.IsBusy() {
		s.Poll(h)
	}
}
