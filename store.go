package aoe

import (
	"errors"
	"io"
	"os"

	"github.com/mdlayher/block"
)

// sectorSize is the required AoE sector size.
const sectorSize = 512

// ErrReadOnly is returned by Store.WriteAt when a Store was opened
// read-only and a write is attempted against it.
var ErrReadOnly = errors.New("aoe: backing store is read-only")

// A Store is the backing file behind a Volume. Implementations may
// block; Store methods are only ever invoked on a Volume's worker
// goroutine, never on the Receive Path.
type Store interface {
	io.ReaderAt
	io.WriterAt
	io.Closer

	// SizeSectors reports the backing file's length in whole 512-byte
	// sectors, truncated.
	SizeSectors() uint64

	// ReadOnly reports whether WriteAt always fails with ErrReadOnly.
	ReadOnly() bool
}

// fileStore is a Store backed by a block.Device, which itself wraps
// an os.File with block-alignment aware reads and writes.
type fileStore struct {
	dev      *block.Device
	size     uint64
	readOnly bool
}

// OpenStore opens path as a Store. When readOnly is false, the file is
// opened read-write; WIN_WRITE requests against a read-only Store are
// refused with an ATA ABORT reply rather than silently failing against
// an O_RDONLY descriptor.
func OpenStore(path string, readOnly bool) (Store, error) {
	flags := os.O_RDWR
	if readOnly {
		flags = os.O_RDONLY
	}

	dev, err := block.New(path, flags)
	if err != nil {
		return nil, err
	}

	size, err := dev.Size()
	if err != nil {
		dev.Close()
		return nil, err
	}

	return &fileStore{
		dev:      dev,
		size:     uint64(size) / sectorSize,
		readOnly: readOnly,
	}, nil
}

func (f *fileStore) ReadAt(p []byte, off int64) (int, error) {
	return f.dev.ReadAt(p, off)
}

func (f *fileStore) WriteAt(p []byte, off int64) (int, error) {
	if f.readOnly {
		return 0, ErrReadOnly
	}
	return f.dev.WriteAt(p, off)
}

func (f *fileStore) Close() error {
	return f.dev.Close()
}

func (f *fileStore) SizeSectors() uint64 {
	return f.size
}

func (f *fileStore) ReadOnly() bool {
	return f.readOnly
}
