package btl

// Descriptor is the 16-byte marker embedded in the application image:
// two signature words, the image's byte length, and a CRC32 computed
// over the image with the descriptor itself treated as absent.
type Descriptor struct {
	Addr    uint32
	BinSize uint32
	CRC32   uint32
}

// FindDescriptor scans 32-bit-aligned words within the first erase
// block of the application region for the descriptor's two signature
// words, using the strict bound w+2<=endWord so both signature words
// always stay within the scanned erase block.
func FindDescriptor(fr FlashReader) (Descriptor, bool) {
	startWord := AppStart / 4
	endWord := (AppStart + EraseBlock) / 4

	for w := startWord; w+2 <= endWord; w++ {
		addr := uint32(w * 4)
		if fr.ReadWord(addr) == DescriptorSig1 && fr.ReadWord(addr+4) == DescriptorSig2 {
			return Descriptor{
				Addr:    addr,
				BinSize: fr.ReadWord(addr + 8),
				CRC32:   fr.ReadWord(addr + 12),
			}, true
		}
	}

	return Descriptor{}, false
}
