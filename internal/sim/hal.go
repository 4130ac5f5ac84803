package sim

import (
	"encoding/binary"

	"github.com/keelhaul-systems/uartboot/internal/btl"
)

type serialSide Device

func (s *serialSide) ReadByte() (byte, bool) {
	select {
	case b := <-s.toDevice:
		return b, true
	default:
		return 0, false
	}
}

func (s *serialSide) WriteByte(b byte) {
	s.txBusy = true
	s.fromDevice <- b
	s.txBusy = false
}

func (s *serialSide) TxIdle() bool { return !s.txBusy }

type tickSide Device

func (t *tickSide) PeriodExpired() bool { return t.tickExpired }

func (t *tickSide) Restart() { t.tickExpired = false }

type triggerSide Device

func (tr *triggerSide) Requested() bool { return tr.triggerRequested }

type systemSide Device

func (sy *systemSide) Reset() { sy.resetCount++ }

func (sy *systemSide) Launch(msp, resetVector uint32) {
	sy.launched = true
	sy.launchedMSP = msp
	sy.launchedVec = resetVector
}

type flashSide Device

func (f *flashSide) ReadWord(addr uint32) uint32 {
	return binary.LittleEndian.Uint32(f.Flash[addr : addr+4])
}

func (f *flashSide) ReadBytes(addr uint32, n int) []byte {
	out := make([]byte, n)
	copy(out, f.Flash[addr:addr+uint32(n)])
	return out
}

type crcSide Device

func (c *crcSide) Compute(begin, end uint32, seed uint32) uint32 {
	return btl.SoftwareCRC32(c.Flash[begin:end])
}

type nvmSide Device

func (n *nvmSide) RegionUnlock(addr uint32) {}

func (n *nvmSide) IsBusy() bool {
	if n.busyCycles <= 0 {
		return false
	}
	n.busyCycles--
	return true
}

func (n *nvmSide) BlockErase(addr uint32) {
	base := addr &^ (btl.EraseBlock - 1)
	for i := uint32(0); i < btl.EraseBlock; i++ {
		n.Flash[base+i] = 0xFF
	}
	n.busyCycles = n.busyCyclesPerOp
}

func (n *nvmSide) PageWrite(addr uint32, data []byte) {
	copy(n.Flash[addr:addr+uint32(len(data))], data)
	n.busyCycles = n.busyCyclesPerOp
}

func (n *nvmSide) BankStatus() btl.BankStatus {
	return btl.BankStatus{OnPrimary: n.onPrimary}
}

func (n *nvmSide) BankSwap() {
	n.bankSwaps++
	n.onPrimary = !n.onPrimary
	n.resetCount++
}
