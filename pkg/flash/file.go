package flash

import (
	"fmt"
	"os"
)

// File backs a Provider with a single on-disk file, one that simulates a
// raw NOR flash chip: reads and writes are at fixed offsets, and "erase"
// sets the affected region back to the flash value 0xFF instead of
// truncating or removing anything.
type File struct {
	f              *os.File
	blockSize      int
	blockCount     uint32
	eraseGroupSize uint32
}

// CreateFile creates (or truncates and reinitializes) a file-backed
// Provider with blockCount blocks of blockSize bytes, erasable in groups
// of eraseGroupSize blocks, and leaves every block in the erased state.
func CreateFile(path string, blockCount uint32, blockSize int, eraseGroupSize uint32) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return nil, fmt.Errorf("flash: create %s: %w", path, err)
	}

	size := int64(blockCount) * int64(blockSize)
	if err := f.Truncate(size); err != nil {
		f.Close()
		return nil, fmt.Errorf("flash: truncate %s: %w", path, err)
	}

	ff := &File{f: f, blockSize: blockSize, blockCount: blockCount, eraseGroupSize: eraseGroupSize}
	if err := ff.Erase(0, blockCount); err != nil {
		f.Close()
		return nil, err
	}
	return ff, nil
}

// OpenFile opens an existing file-backed Provider. blockSize and
// eraseGroupSize must match the parameters the file was created with; the
// block count is derived from the file's length.
func OpenFile(path string, blockSize int, eraseGroupSize uint32) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("flash: open %s: %w", path, err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("flash: stat %s: %w", path, err)
	}

	return &File{
		f:              f,
		blockSize:      blockSize,
		blockCount:     uint32(fi.Size() / int64(blockSize)),
		eraseGroupSize: eraseGroupSize,
	}, nil
}

// Close closes the underlying file.
func (ff *File) Close() error {
	return ff.f.Close()
}

// BlockCount implements Provider.
func (ff *File) BlockCount() uint32 { return ff.blockCount }

// BlockSize implements Provider.
func (ff *File) BlockSize() int { return ff.blockSize }

// EraseGroupSize implements Provider.
func (ff *File) EraseGroupSize() uint32 { return ff.eraseGroupSize }

// Read implements Provider.
func (ff *File) Read(n uint32, buf []byte) error {
	if err := checkBounds(n, ff.blockCount); err != nil {
		return err
	}
	_, err := ff.f.ReadAt(buf[:ff.blockSize], int64(n)*int64(ff.blockSize))
	if err != nil {
		return fmt.Errorf("flash: read block %d: %w", n, err)
	}
	return nil
}

// Write implements Provider.
func (ff *File) Write(n uint32, buf []byte) error {
	if err := checkBounds(n, ff.blockCount); err != nil {
		return err
	}
	_, err := ff.f.WriteAt(buf[:ff.blockSize], int64(n)*int64(ff.blockSize))
	if err != nil {
		return fmt.Errorf("flash: write block %d: %w", n, err)
	}
	return ff.f.Sync()
}

// Erase implements Provider.
func (ff *File) Erase(index, n uint32) error {
	if err := checkErase(index, n, ff.eraseGroupSize); err != nil {
		return err
	}
	if index+n > ff.blockCount {
		return &BoundsError{Index: index + n - 1, Count: ff.blockCount}
	}

	ones := make([]byte, int(n)*ff.blockSize)
	for i := range ones {
		ones[i] = 0xff
	}
	_, err := ff.f.WriteAt(ones, int64(index)*int64(ff.blockSize))
	if err != nil {
		return fmt.Errorf("flash: erase blocks %d..%d: %w", index, index+n, err)
	}
	return ff.f.Sync()
}
