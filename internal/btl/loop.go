package btl

// Run is the bootloader's entire control flow: the boot decider runs
// once, and if it chooses to launch the application it never returns
// (real hardware branches away entirely). Otherwise Run falls into the
// main loop: poll for a byte, then either program a staged flash block
// or process a completed command packet, forever.
func Run(h HAL) {
	if Decide(h) {
		return
	}

	s := NewState()
	for {
		s.Poll(h)

		if s.DataReady() {
			s.Program(h)
		} else if s.PendingPacket() {
			s.Process(h)
		}
	}
}
