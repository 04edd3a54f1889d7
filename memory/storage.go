// Package memory models the physical RAM of a board together with its ECC
// protection and the hardware scrubbing engine that walks it.
package memory

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Capacity units.
const (
	KB uint64 = 1 << 10
	MB uint64 = 1 << 20
	GB uint64 = 1 << 30
)

// DefaultPageSize is the page size used when none is given.
const DefaultPageSize = 4 * KB

// ErrOutOfRange is returned for accesses beyond the storage capacity.
var ErrOutOfRange = errors.New("accessing physical address beyond the storage capacity")

// FaultKind is the kind of an ECC upset.
type FaultKind int

// The upsets the ECC logic can report.
const (
	FaultSingleBit FaultKind = iota
	FaultMultiBit
	FaultTagParity
)

func (k FaultKind) String() string {
	switch k {
	case FaultSingleBit:
		return "single-bit"
	case FaultMultiBit:
		return "multi-bit"
	case FaultTagParity:
		return "tag-parity"
	default:
		return fmt.Sprintf("FaultKind(%d)", int(k))
	}
}

// Correctable tells if the scrubber can repair this kind of upset.
func (k FaultKind) Correctable() bool {
	return k != FaultMultiBit
}

// A Storage keeps the data of the physical RAM.
//
// The storage is managed in page units. For the units that are not touched by
// Read and Write, no memory is allocated. Besides the data, a storage records
// the ECC upsets present at each address.
type Storage struct {
	lock     sync.Mutex
	unitSize uint64
	capacity uint64
	data     map[uint64][]byte
	faults   map[uint64]FaultKind
}

// NewStorage creates a storage object with the specified capacity.
func NewStorage(capacity uint64) *Storage {
	return NewStorageWithPageSize(capacity, DefaultPageSize)
}

// NewStorageWithPageSize creates a storage with a custom page size.
func NewStorageWithPageSize(capacity, pageSize uint64) *Storage {
	if pageSize == 0 {
		panic("page size must not be zero")
	}

	return &Storage{
		unitSize: pageSize,
		capacity: capacity,
		data:     make(map[uint64][]byte),
		faults:   make(map[uint64]FaultKind),
	}
}

// Capacity returns the number of bytes the storage holds.
func (s *Storage) Capacity() uint64 {
	return s.capacity
}

// PageSize returns the size of a storage unit.
func (s *Storage) PageSize() uint64 {
	return s.unitSize
}

// createOrGetStorageUnit retrieves a storage unit if the unit has been created
// before. Otherwise it initializes a storage unit in the storage object.
func (s *Storage) createOrGetStorageUnit(address uint64) ([]byte, error) {
	if address >= s.capacity {
		return nil, ErrOutOfRange
	}

	baseAddr, _ := s.parseAddress(address)

	unit, ok := s.data[baseAddr]
	if !ok {
		unit = make([]byte, s.unitSize)
		s.data[baseAddr] = unit
	}

	return unit, nil
}

func (s *Storage) parseAddress(addr uint64) (baseAddr, inUnitAddr uint64) {
	inUnitAddr = addr % s.unitSize
	baseAddr = addr - inUnitAddr

	return
}

// Read returns length bytes starting at address.
func (s *Storage) Read(address uint64, length uint64) ([]byte, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	currAddr := address
	dataOffset := uint64(0)
	res := make([]byte, length)

	for currAddr < address+length {
		unit, err := s.createOrGetStorageUnit(currAddr)
		if err != nil {
			return nil, err
		}

		baseAddr, inUnitAddr := s.parseAddress(currAddr)
		lenToRead := min(address+length-currAddr, baseAddr+s.unitSize-currAddr)

		copy(res[dataOffset:dataOffset+lenToRead],
			unit[inUnitAddr:inUnitAddr+lenToRead])
		dataOffset += lenToRead
		currAddr += lenToRead
	}

	return res, nil
}

// Write stores data at address. Writing recomputes the ECC check bits, so any
// upset recorded inside the written range is cleared.
func (s *Storage) Write(address uint64, data []byte) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	currAddr := address
	dataOffset := uint64(0)

	for dataOffset < uint64(len(data)) {
		unit, err := s.createOrGetStorageUnit(currAddr)
		if err != nil {
			return err
		}

		baseAddr, inUnitAddr := s.parseAddress(currAddr)
		lenToWrite := min(uint64(len(data))-dataOffset, baseAddr+s.unitSize-currAddr)

		copy(unit[inUnitAddr:inUnitAddr+lenToWrite],
			data[dataOffset:dataOffset+lenToWrite])
		dataOffset += lenToWrite
		currAddr += lenToWrite
	}

	for addr := range s.faults {
		if addr >= address && addr < address+uint64(len(data)) {
			delete(s.faults, addr)
		}
	}

	return nil
}

// InjectFault records an upset at address. A later upset at the same address
// replaces the earlier one unless the earlier one is uncorrectable.
func (s *Storage) InjectFault(address uint64, kind FaultKind) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if address >= s.capacity {
		return ErrOutOfRange
	}

	if existing, ok := s.faults[address]; ok && !existing.Correctable() {
		return nil
	}

	s.faults[address] = kind

	return nil
}

// Fault describes an upset present at an address.
type Fault struct {
	Address uint64
	Kind    FaultKind
}

// Faults lists the upsets within [start, end), sorted by address.
func (s *Storage) Faults(start, end uint64) []Fault {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.faultsInRange(start, end)
}

func (s *Storage) faultsInRange(start, end uint64) []Fault {
	faults := make([]Fault, 0)

	for addr, kind := range s.faults {
		if addr >= start && addr < end {
			faults = append(faults, Fault{Address: addr, Kind: kind})
		}
	}

	sort.Slice(faults, func(i, j int) bool {
		return faults[i].Address < faults[j].Address
	})

	return faults
}

// repair removes the correctable upsets within [start, end) and returns every
// upset that was found, corrected or not.
func (s *Storage) repair(start, end uint64) []Fault {
	s.lock.Lock()
	defer s.lock.Unlock()

	found := s.faultsInRange(start, end)

	for _, f := range found {
		if f.Kind.Correctable() {
			delete(s.faults, f.Address)
		}
	}

	return found
}
