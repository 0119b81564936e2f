package pager

import (
	"encoding/binary"
	"fmt"

	"github.com/klauspost/compress/zstd"
)

// compressionCodec compresses page buffers with zstd before they reach
// the backing store, and decompresses them on the way back in. It is
// opt-in (see RunConfig.Compress in internal/config): the default, uncompressed BackingStore
// path is what the round-trip invariant is tested against, so
// compression only wraps it rather than replacing it.
//
// On-disk framing: [4-byte little-endian length][zstd frame][zero pad].
// A compressed frame that wouldn't fit in one page-sized slot falls
// back to storing the plaintext verbatim with a zero length prefix,
// since the slot size is fixed by the simulation's page size and pages
// are small (typically 4-64KB) — zstd practically never expands them,
// but the fallback keeps Write total rather than erroring on adversarial
// input.
type compressionCodec struct {
	enc      *zstd.Encoder
	dec      *zstd.Decoder
	pageSize int
}

// NewCompressionCodec builds the zstd codec for a config-driven opt-in
// (see RunConfig.Compress in the config package). Exported so callers
// outside this package can construct one to pass to
// PagingEngine.SetCodec without reaching into unexported compression
// internals.
func NewCompressionCodec(pageSize, level int) (blockCodec, error) {
	return newCompressionCodec(pageSize, level)
}

func newCompressionCodec(pageSize, level int) (*compressionCodec, error) {
	if level < 1 || level > 19 {
		level = 3
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(level)))
	if err != nil {
		return nil, fmt.Errorf("paging: create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("paging: create zstd decoder: %w", err)
	}
	return &compressionCodec{enc: enc, dec: dec, pageSize: pageSize}, nil
}

func (c *compressionCodec) overhead() int {
	return 4
}

// close releases the zstd encoder/decoder's background goroutines and
// buffers. Called from BackingStore.Close via the optional closer
// interface so a codec that holds resources doesn't leak them across
// repeated NewEngine/Close cycles (cmd/pagingsim-compare runs one per
// policy in the same process).
func (c *compressionCodec) close() error {
	c.enc.Close()
	c.dec.Close()
	return nil
}

func (c *compressionCodec) encode(plain []byte) ([]byte, error) {
	compressed := c.enc.EncodeAll(plain, nil)

	out := make([]byte, 4, 4+len(compressed))
	if 4+len(compressed) > c.pageSize {
		// Doesn't fit — fall back to a verbatim block (length 0 means
		// "not compressed, rest of the slot is the plain page").
		binary.LittleEndian.PutUint32(out, 0)
		out = append(out, plain...)
		return out, nil
	}

	binary.LittleEndian.PutUint32(out, uint32(len(compressed)))
	out = append(out, compressed...)
	return out, nil
}

func (c *compressionCodec) decode(onDisk []byte, dst []byte) error {
	if len(onDisk) < 4 {
		for i := range dst {
			dst[i] = 0
		}
		return nil
	}
	n := binary.LittleEndian.Uint32(onDisk[:4])
	if n == 0 {
		copy(dst, onDisk[4:])
		return nil
	}
	// Compare in int, not uint32: n+4 overflows uint32 for a corrupted or
	// adversarial length prefix near 2^32, which would otherwise wrap
	// past this check and panic on the slice below instead of returning
	// a clean error.
	length := int(n)
	if length < 0 || length > len(onDisk)-4 {
		return fmt.Errorf("paging: corrupt compressed block: length %d exceeds slot", n)
	}
	plain, err := c.dec.DecodeAll(onDisk[4:4+length], nil)
	if err != nil {
		return fmt.Errorf("paging: zstd decode: %w", err)
	}
	copy(dst, plain)
	return nil
}
