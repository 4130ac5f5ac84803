package btl

// Decide runs once at reset, before the main loop. It returns true if
// control should transfer to the application image (in which case it
// has already called hal.System.Launch and, on real hardware, never
// returns) and false if the bootloader should enter its main loop.
func Decide(h HAL) bool {
	if h.Flash.ReadWord(AppStart) == 0xFFFFFFFF {
		// No application installed.
		return false
	}

	if h.Trigger.Requested() {
		return false
	}

	desc, found := FindDescriptor(h.Flash)
	if !found {
		// Firmware is considered corrupted without a descriptor.
		return false
	}

	if imageCRCMatches(h, desc) {
		msp := h.Flash.ReadWord(AppStart)
		resetVector := h.Flash.ReadWord(AppStart + 4)
		h.System.Launch(msp, resetVector)
		return true
	}

	if h.NVM.BankStatus().OnPrimary {
		// Give the alternate bank a chance: this resets the device and
		// re-enters the decider against it.
		h.NVM.BankSwap()
		return false
	}

	// Both copies are corrupt.
	return false
}

// imageCRCMatches computes the CRC32 over [AppStart, AppStart+BinSize)
// with the descriptor's own 16 bytes excluded from the accumulation, and
// compares it against the value the descriptor itself carries.
func imageCRCMatches(h HAL, desc Descriptor) bool {
	before := h.Flash.ReadBytes(AppStart, int(desc.Addr-AppStart))
	afterStart := desc.Addr + DescriptorSize
	afterLen := int(AppStart+desc.BinSize) - int(afterStart)
	if afterLen < 0 {
		afterLen = 0
	}
	after := h.Flash.ReadBytes(afterStart, afterLen)

	return SoftwareCRC32(before, after) == desc.CRC32
}
