package pager

import (
	"errors"
	"io"
	"os"
	"sync"
)

// BackingStore persists page-sized blocks keyed by a stable slot index
// and reloads them on demand. With the default identity codec it is a
// flat binary file: slot k occupies bytes [k*pageBytes, (k+1)*pageBytes),
// no header, no metadata. Enabling compression or encryption (see
// compressor.go, crypto.go) widens each
// slot's on-disk stride by the codec's fixed framing overhead — slot
// addressing and the BackingStore API are unaffected either way.
//
// A BackingStore is exclusively owned by one PagingEngine for the
// lifetime of a run; the core does no locking of its own beyond what's
// needed to make a single engine's sequential calls safe to retry.
type BackingStore struct {
	file      *os.File
	pageSize  int
	blockSize int
	mu        sync.Mutex

	codec blockCodec // optional compression/encryption, identity by default
}

// blockCodec transforms a page buffer on its way to/from disk. The
// identity codec is used unless compression or encryption is enabled.
type blockCodec interface {
	encode(plain []byte) ([]byte, error)
	decode(onDisk []byte, out []byte) error
	overhead() int // extra bytes an encoded block may need beyond pageSize
}

type identityCodec struct{}

func (identityCodec) encode(plain []byte) ([]byte, error) { return plain, nil }
func (identityCodec) decode(onDisk []byte, out []byte) error {
	copy(out, onDisk)
	return nil
}
func (identityCodec) overhead() int { return 0 }

// OpenBackingStore creates (or truncates) the backing file at path,
// sized for page-granularity I/O of pageSize bytes per slot.
func OpenBackingStore(path string, pageSize int) (*BackingStore, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_TRUNC, 0644)
	if err != nil {
		return nil, &IoError{Op: "open", Err: err}
	}
	return &BackingStore{
		file:      f,
		pageSize:  pageSize,
		blockSize: pageSize,
		codec:     identityCodec{},
	}, nil
}

// SetCodec installs a non-identity codec (compression or encryption)
// and widens the on-disk stride to fit it. Must be called
// before any Write/Read against slots, never mid-run, since changing
// the stride would misalign already-written slots.
func (bs *BackingStore) SetCodec(c blockCodec) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.codec = c
	bs.blockSize = bs.pageSize + c.overhead()
}

// Write persists exactly pageSize bytes of buf at the given slot,
// flushing before return.
func (bs *BackingStore) Write(slot SlotID, buf []byte) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	encoded, err := bs.codec.encode(buf)
	if err != nil {
		return &IoError{Op: "encode", Err: err}
	}

	block := make([]byte, bs.blockSize)
	copy(block, encoded)

	offset := int64(slot) * int64(bs.blockSize)
	if _, err := bs.file.WriteAt(block, offset); err != nil {
		return &IoError{Op: "write", Err: err}
	}
	if err := bs.file.Sync(); err != nil {
		return &IoError{Op: "sync", Err: err}
	}
	return nil
}

// Read loads the slot's contents into buf, which must be pageSize
// bytes. A slot past the end of the file yields zeroes. A never-written
// slot inside the file (below a later written one) also yields zeroes
// under the identity and compression codecs; the encryption codec fails
// to authenticate it, and Read returns an *IoError.
func (bs *BackingStore) Read(slot SlotID, buf []byte) error {
	bs.mu.Lock()
	defer bs.mu.Unlock()

	block := make([]byte, bs.blockSize)
	offset := int64(slot) * int64(bs.blockSize)
	n, err := bs.file.ReadAt(block, offset)
	if err != nil {
		if (errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF)) && n < bs.blockSize {
			// Slot past end-of-file: never written, stable zero value.
			for i := range buf {
				buf[i] = 0
			}
			return nil
		}
		return &IoError{Op: "read", Err: err}
	}

	if err := bs.codec.decode(block, buf); err != nil {
		return &IoError{Op: "decode", Err: err}
	}
	return nil
}

// closer is implemented by codecs that hold resources beyond the
// lifetime of a single encode/decode call (e.g. compressionCodec's
// zstd encoder/decoder goroutines).
type closer interface {
	close() error
}

// Close flushes and releases the backing file, along with any
// resources the installed codec holds.
func (bs *BackingStore) Close() error {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	if c, ok := bs.codec.(closer); ok {
		if err := c.close(); err != nil {
			return &IoError{Op: "codec close", Err: err}
		}
	}
	if err := bs.file.Sync(); err != nil {
		return &IoError{Op: "sync", Err: err}
	}
	return bs.file.Close()
}
