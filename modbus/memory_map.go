package modbus

import (
	"errors"
	"fmt"
)

// ErrIllegalDataAddress is returned by a strict MemoryMap for unmapped registers.
var ErrIllegalDataAddress = errors.New("illegal data address")

// MemoryMap is an in-memory register bank that can stand in for a device.
type MemoryMap struct {
	inputRegs   map[uint16]uint16
	holdingRegs map[uint16]uint16
	holding     bool

	// Strict makes reads of unmapped registers fail instead of returning zero.
	Strict bool
	// ReadErr and WriteErr, if set, are returned by every read or write.
	ReadErr, WriteErr error
	// OnRead is called after every successful read.
	OnRead func(addr, quantity uint16)

	// Reads and Writes count the attempted requests.
	Reads, Writes int
}

// NewMemoryMap creates a new MemoryMap instance serving reads from the input registers.
func NewMemoryMap() *MemoryMap {
	return &MemoryMap{
		inputRegs:   make(map[uint16]uint16),
		holdingRegs: make(map[uint16]uint16),
	}
}

// ReadHolding switches reads to the holding registers.
func (mm *MemoryMap) ReadHolding(holding bool) {
	mm.holding = holding
}

// PutInputReg sets the value of an input register in the memory map.
func (mm *MemoryMap) PutInputReg(address uint16, value uint16) {
	mm.inputRegs[address] = value
}

// PutInputRegs sets consecutive input registers starting at address.
func (mm *MemoryMap) PutInputRegs(address uint16, values ...uint16) {
	for i, v := range values {
		mm.inputRegs[address+uint16(i)] = v
	}
}

func (mm *MemoryMap) GetInputReg(address uint16) (uint16, bool) {
	value, ok := mm.inputRegs[address]
	return value, ok
}

// PutHoldingReg sets the value of a holding register in the memory map.
func (mm *MemoryMap) PutHoldingReg(address uint16, value uint16) {
	mm.holdingRegs[address] = value
}

func (mm *MemoryMap) GetHoldingReg(address uint16) (uint16, bool) {
	value, ok := mm.holdingRegs[address]
	return value, ok
}

func (mm *MemoryMap) ReadRegisters(addr uint16, quantity uint16) ([]uint16, error) {
	mm.Reads++
	if mm.ReadErr != nil {
		return nil, mm.ReadErr
	}
	regs := mm.inputRegs
	if mm.holding {
		regs = mm.holdingRegs
	}

	values := make([]uint16, quantity)
	for i := range values {
		a := addr + uint16(i)
		v, ok := regs[a]
		if !ok && mm.Strict {
			return nil, fmt.Errorf("0x%04x: %w", a, ErrIllegalDataAddress)
		}
		values[i] = v
	}
	if mm.OnRead != nil {
		mm.OnRead(addr, quantity)
	}
	return values, nil
}

// WriteRegisters stores values in the holding registers. While reads are served from the input
// registers the values are stored there as well, so a write is visible to the next read.
func (mm *MemoryMap) WriteRegisters(addr uint16, values []uint16) error {
	mm.Writes++
	if mm.WriteErr != nil {
		return mm.WriteErr
	}
	for i, v := range values {
		mm.holdingRegs[addr+uint16(i)] = v
		if !mm.holding {
			mm.inputRegs[addr+uint16(i)] = v
		}
	}
	return nil
}

func (mm *MemoryMap) Close() error {
	return nil
}
