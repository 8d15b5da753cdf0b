// Package compression decodes the compressed native library bundles shipped
// alongside the binding.
//
// A bundled engine binary may be stored compressed to keep the embedding
// module small. The file suffix selects the codec:
//
//	.sz   Snappy framing format
//	.zz   zlib
//	.lz4  LZ4 frame format
//	.zst  Zstandard
//
// Any other suffix is treated as an uncompressed binary.
package compression

import (
	"fmt"
	"io"
	"strings"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Type represents a bundle compression codec.
type Type uint8

const (
	// NoCompression marks an uncompressed bundle.
	NoCompression Type = iota

	// SnappyCompression uses the Snappy framing format.
	SnappyCompression

	// ZlibCompression uses zlib (RFC 1950).
	ZlibCompression

	// LZ4Compression uses the LZ4 frame format.
	LZ4Compression

	// ZstdCompression uses Zstandard.
	ZstdCompression
)

// suffixes maps file suffixes to codecs. Order matters for Suffix.
var suffixes = []struct {
	suffix string
	typ    Type
}{
	{".sz", SnappyCompression},
	{".zz", ZlibCompression},
	{".lz4", LZ4Compression},
	{".zst", ZstdCompression},
}

// String returns the human-readable name of the compression type.
func (t Type) String() string {
	switch t {
	case NoCompression:
		return "NoCompression"
	case SnappyCompression:
		return "Snappy"
	case ZlibCompression:
		return "Zlib"
	case LZ4Compression:
		return "LZ4"
	case ZstdCompression:
		return "ZSTD"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// Suffix returns the file suffix for t, or "" for NoCompression.
func (t Type) Suffix() string {
	for _, s := range suffixes {
		if s.typ == t {
			return s.suffix
		}
	}
	return ""
}

// Suffixes returns every recognised compressed suffix.
func Suffixes() []string {
	out := make([]string, len(suffixes))
	for i, s := range suffixes {
		out[i] = s.suffix
	}
	return out
}

// FromName returns the codec implied by name's suffix.
func FromName(name string) Type {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s.suffix) {
			return s.typ
		}
	}
	return NoCompression
}

// NewReader returns a reader that decodes r with codec t.
func NewReader(t Type, r io.Reader) (io.ReadCloser, error) {
	switch t {
	case NoCompression:
		return io.NopCloser(r), nil

	case SnappyCompression:
		return io.NopCloser(snappy.NewReader(r)), nil

	case ZlibCompression:
		zr, err := zlib.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zlib reader: %w", err)
		}
		return zr, nil

	case LZ4Compression:
		return io.NopCloser(lz4.NewReader(r)), nil

	case ZstdCompression:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("zstd decoder: %w", err)
		}
		return dec.IOReadCloser(), nil

	default:
		return nil, fmt.Errorf("unsupported compression type: %s", t)
	}
}

// Decompress decodes all of r with codec t.
func Decompress(t Type, r io.Reader) ([]byte, error) {
	rc, err := NewReader(t, r)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%s decode: %w", t, err)
	}
	return data, nil
}

// NewWriter returns a writer that encodes into w with codec t. Close must be
// called to flush the final frame.
func NewWriter(t Type, w io.Writer) (io.WriteCloser, error) {
	switch t {
	case NoCompression:
		return nopWriteCloser{w}, nil

	case SnappyCompression:
		return snappy.NewBufferedWriter(w), nil

	case ZlibCompression:
		return zlib.NewWriter(w), nil

	case LZ4Compression:
		return lz4.NewWriter(w), nil

	case ZstdCompression:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("zstd encoder: %w", err)
		}
		return enc, nil

	default:
		return nil, fmt.Errorf("unsupported compression type: %s", t)
	}
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
