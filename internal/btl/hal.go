package btl

// HAL collects every hardware collaborator the bootloader core borrows
// but does not own: the serial peripheral, the NVM controller, the
// hardware CRC unit (gated by its own write-protect), the inter-byte
// tick, the boot-trigger predicate, and the CPU's reset/launch
// sequence. Production firmware wires these to real peripheral access;
// internal/sim wires them to an in-memory device for tests and local
// development.
type HAL struct {
	Serial  SerialPort
	NVM     NVM
	CRC     CRCUnit
	Tick    Ticker
	Trigger TriggerSource
	System  SystemControl
	Flash   FlashReader
}

// SerialPort is the byte-oriented serial driver: non-blocking byte read,
// blocking-free byte write, and a way to tell when the last write has
// physically left the shift register (needed before RESET/BKSWAP_RESET,
// which tear down the link).
type SerialPort interface {
	// ReadByte returns the next received byte and true if one was
	// available, or ok=false if the RX path is empty.
	ReadByte() (b byte, ok bool)
	// WriteByte queues one byte for transmission.
	WriteByte(b byte)
	// TxIdle reports whether the last queued byte has finished
	// transmitting.
	TxIdle() bool
}

// BankStatus reports which of the two A/B application copies the device
// is currently configured to boot from.
type BankStatus struct {
	OnPrimary bool
}

// NVM is the non-volatile memory controller: erase, page write, the
// busy predicate used for cooperative waiting, the hardware region lock,
// and the dual-bank failover primitives.
type NVM interface {
	// RegionUnlock unlocks the hardware lock region containing addr so
	// it can be erased/programmed.
	RegionUnlock(addr uint32)
	// IsBusy reports whether a previously issued erase/program/bank-swap
	// operation is still in flight.
	IsBusy() bool
	// BlockErase issues an erase of the erase-block containing addr.
	BlockErase(addr uint32)
	// PageWrite programs one page-sized slice at addr.
	PageWrite(addr uint32, data []byte)
	// BankStatus reports the active A/B bank.
	BankStatus() BankStatus
	// BankSwap switches the active bank and resets the device. Never
	// returns on real hardware.
	BankSwap()
}

// CRCUnit is the hardware-assisted CRC32 peripheral. Implementations
// are responsible for clearing and restoring their own PAC write
// protection around the computation, since the PAC is itself an
// out-of-scope collaborator from the core's point of view.
type CRCUnit interface {
	// Compute returns the CRC32 of flash[begin:end) using the given
	// seed.
	Compute(begin, end uint32, seed uint32) uint32
}

// Ticker is the free-running system tick used for the receiver's
// inter-byte timeout. The receiver calls PeriodExpired and then Restart
// once on every invocation that reads a byte; an invocation that finds
// no byte waiting, or a packet still pending, calls neither.
type Ticker interface {
	PeriodExpired() bool
	Restart()
}

// TriggerSource is the boot decider's overridable predicate: by
// default it inspects a RAM trigger region for the magic word pair a
// running application writes before a soft reset.
type TriggerSource interface {
	Requested() bool
}

// SystemControl performs the CPU-level operations the core cannot do
// itself: a warm reset, and the main-stack-pointer-set-then-branch
// sequence that hands control to the application image. Both are
// documented as never returning on real hardware; test/simulation
// implementations may return so call sites remain observable.
type SystemControl interface {
	Reset()
	Launch(msp, resetVector uint32)
}

// FlashReader is the read-only view of flash the image header scanner
// and boot decider need: word-aligned reads over the application
// region, used both to locate the descriptor and to compute its CRC.
type FlashReader interface {
	ReadWord(addr uint32) uint32
	ReadBytes(addr uint32, n int) []byte
}
