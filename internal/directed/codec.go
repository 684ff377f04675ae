package directed

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrCorruptMask is returned when a mask artifact cannot be decoded.
var ErrCorruptMask = errors.New("corrupt directed mask")

// Artifact layout, all integers little-endian:
//
//	magic      [4]byte "DMSK"
//	version    uint16
//	height     uint32
//	width      uint32
//	components uint16 (always 2)
//	data       height*width*components float64
const (
	codecVersion    = 1
	codecComponents = 2
	headerSize      = 4 + 2 + 4 + 4 + 2

	// maxDimension bounds each side so that height*width*components fits
	// in an int on every platform.
	maxDimension = 1 << 14
	decodeChunk  = 1 << 13
)

var codecMagic = [4]byte{'D', 'M', 'S', 'K'}

// Encode writes m in the directed mask artifact format. Values round-trip
// bit for bit.
func Encode(w io.Writer, m *Mask) error {
	if m.Width > maxDimension || m.Height > maxDimension {
		return fmt.Errorf("mask %dx%d exceeds %d per side", m.Width, m.Height, maxDimension)
	}
	bw := bufio.NewWriter(w)
	var header [headerSize]byte
	copy(header[:4], codecMagic[:])
	binary.LittleEndian.PutUint16(header[4:], codecVersion)
	binary.LittleEndian.PutUint32(header[6:], uint32(m.Height))
	binary.LittleEndian.PutUint32(header[10:], uint32(m.Width))
	binary.LittleEndian.PutUint16(header[14:], codecComponents)
	if _, err := bw.Write(header[:]); err != nil {
		return fmt.Errorf("failed to write mask header: %w", err)
	}

	var buf [8]byte
	for _, v := range m.Data {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		if _, err := bw.Write(buf[:]); err != nil {
			return fmt.Errorf("failed to write mask data: %w", err)
		}
	}
	return bw.Flush()
}

// Marshal returns the artifact bytes for m.
func Marshal(m *Mask) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(headerSize + len(m.Data)*8)
	if err := Encode(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode reads a mask written by Encode. Memory grows with the data actually
// read, so a header claiming a huge mask fails as truncated.
func Decode(r io.Reader) (*Mask, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("%w: short header: %v", ErrCorruptMask, err)
	}
	width, height, n, err := parseHeader(header[:])
	if err != nil {
		return nil, err
	}

	m := &Mask{Width: width, Height: height, Data: make([]float64, 0, min(n, decodeChunk))}
	raw := make([]byte, min(n, decodeChunk)*8)
	for remaining := n; remaining > 0; {
		k := min(remaining, decodeChunk)
		if _, err := io.ReadFull(r, raw[:k*8]); err != nil {
			return nil, fmt.Errorf("%w: truncated data: %v", ErrCorruptMask, err)
		}
		for i := 0; i < k; i++ {
			m.Data = append(m.Data, math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:])))
		}
		remaining -= k
	}
	return m, nil
}

// Unmarshal decodes artifact bytes. The length must match the header exactly.
func Unmarshal(data []byte) (*Mask, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: short header: %d bytes", ErrCorruptMask, len(data))
	}
	_, _, n, err := parseHeader(data[:headerSize])
	if err != nil {
		return nil, err
	}
	if want := uint64(headerSize) + uint64(n)*8; uint64(len(data)) != want {
		return nil, fmt.Errorf("%w: %d bytes, header needs %d", ErrCorruptMask, len(data), want)
	}
	return Decode(bytes.NewReader(data))
}

// parseHeader validates an artifact header and returns the mask shape and its
// number of float64 values.
func parseHeader(header []byte) (width, height, n int, err error) {
	if !bytes.Equal(header[:4], codecMagic[:]) {
		return 0, 0, 0, fmt.Errorf("%w: bad magic %q", ErrCorruptMask, header[:4])
	}
	if v := binary.LittleEndian.Uint16(header[4:]); v != codecVersion {
		return 0, 0, 0, fmt.Errorf("%w: unsupported version %d", ErrCorruptMask, v)
	}
	h := uint64(binary.LittleEndian.Uint32(header[6:]))
	w := uint64(binary.LittleEndian.Uint32(header[10:]))
	if c := binary.LittleEndian.Uint16(header[14:]); c != codecComponents {
		return 0, 0, 0, fmt.Errorf("%w: %d components, want %d", ErrCorruptMask, c, codecComponents)
	}
	if h > maxDimension || w > maxDimension {
		return 0, 0, 0, fmt.Errorf("%w: %dx%d exceeds %d per side", ErrCorruptMask, w, h, maxDimension)
	}
	return int(w), int(h), int(h * w * codecComponents), nil
}
