package flash

import "strconv"

// Mem is an in-memory Provider, useful in tests that want to inject
// failures or inspect raw block contents without touching a filesystem.
type Mem struct {
	blockSize      int
	eraseGroupSize uint32
	blocks         [][]byte

	// FailRead, FailWrite, and FailErase, when set, are consulted before
	// each operation and let tests simulate transient flash failures.
	FailRead  func(n uint32) bool
	FailWrite func(n uint32) bool
	FailErase func(index, n uint32) bool
}

// NewMem returns a Mem provider with blockCount blocks of blockSize bytes,
// erasable in groups of eraseGroupSize blocks, all initially erased.
func NewMem(blockCount uint32, blockSize int, eraseGroupSize uint32) *Mem {
	m := &Mem{
		blockSize:      blockSize,
		eraseGroupSize: eraseGroupSize,
		blocks:         make([][]byte, blockCount),
	}
	for i := range m.blocks {
		b := make([]byte, blockSize)
		for j := range b {
			b[j] = 0xff
		}
		m.blocks[i] = b
	}
	return m
}

// BlockCount implements Provider.
func (m *Mem) BlockCount() uint32 { return uint32(len(m.blocks)) }

// BlockSize implements Provider.
func (m *Mem) BlockSize() int { return m.blockSize }

// EraseGroupSize implements Provider.
func (m *Mem) EraseGroupSize() uint32 { return m.eraseGroupSize }

// Read implements Provider.
func (m *Mem) Read(n uint32, buf []byte) error {
	if err := checkBounds(n, m.BlockCount()); err != nil {
		return err
	}
	if m.FailRead != nil && m.FailRead(n) {
		return &ioError{op: "read", n: n}
	}
	copy(buf, m.blocks[n])
	return nil
}

// Write implements Provider.
func (m *Mem) Write(n uint32, buf []byte) error {
	if err := checkBounds(n, m.BlockCount()); err != nil {
		return err
	}
	if m.FailWrite != nil && m.FailWrite(n) {
		return &ioError{op: "write", n: n}
	}
	copy(m.blocks[n], buf)
	return nil
}

// Erase implements Provider.
func (m *Mem) Erase(index, n uint32) error {
	if err := checkErase(index, n, m.eraseGroupSize); err != nil {
		return err
	}
	if index+n > m.BlockCount() {
		return &BoundsError{Index: index + n - 1, Count: m.BlockCount()}
	}
	if m.FailErase != nil && m.FailErase(index, n) {
		return &ioError{op: "erase", n: index}
	}
	for i := index; i < index+n; i++ {
		for j := range m.blocks[i] {
			m.blocks[i][j] = 0xff
		}
	}
	return nil
}

// RawBlock returns a copy of block n's raw bytes, for test assertions.
func (m *Mem) RawBlock(n uint32) []byte {
	out := make([]byte, m.blockSize)
	copy(out, m.blocks[n])
	return out
}

type ioError struct {
	op string
	n  uint32
}

func (e *ioError) Error() string {
	return "flash: simulated " + e.op + " failure at block " + strconv.FormatUint(uint64(e.n), 10)
}
