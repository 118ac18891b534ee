package delay

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-reverb/dsp/interp"
)

// Line is a circular delay line with a fixed-capacity buffer and an
// adjustable active delay length. The capacity is allocated once at
// construction; the active length can be rescaled at audio rate without
// reallocation.
type Line struct {
	buffer   []float64
	writePos int
	length   int
}

// New returns a delay line whose capacity and active length are both size.
func New(size int) (*Line, error) {
	if size <= 0 {
		return nil, fmt.Errorf("delay: size must be > 0: %d", size)
	}
	return &Line{buffer: make([]float64, size), length: size}, nil
}

// Len returns the active delay length in samples.
func (d *Line) Len() int {
	return d.length
}

// Cap returns the fixed buffer capacity in samples.
func (d *Line) Cap() int {
	return len(d.buffer)
}

// WriteAndAdvance stores one sample at the write cursor and advances it,
// wrapping at the buffer capacity.
func (d *Line) WriteAndAdvance(sample float64) {
	d.buffer[d.writePos] = sample
	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}
}

// Read returns the sample written Len() advances ago.
func (d *Line) Read() float64 {
	size := len(d.buffer)
	readPos := d.writePos - d.length
	if readPos < 0 {
		readPos += size
	}
	return d.buffer[readPos]
}

// ReadAt linearly interpolates between the two samples bracketing a
// fractional offset from the write cursor. It is intended for modulated
// taps; offset is clamped to the buffer bounds.
func (d *Line) ReadAt(offset float64) float64 {
	size := len(d.buffer)
	if offset < 0 {
		offset = 0
	}
	maxOffset := float64(size - 1)
	if offset > maxOffset {
		offset = maxOffset
	}

	p := int(math.Floor(offset))
	t := offset - float64(p)

	i0 := d.writePos + p
	if i0 >= size {
		i0 -= size
	}
	i1 := i0 + 1
	if i1 >= size {
		i1 -= size
	}
	return interp.Linear(t, d.buffer[i0], d.buffer[i1])
}

// ReadBlock fills dst with the next len(dst) delayed samples, splitting
// into two copies when the read straddles the wraparound point. The block
// must not be longer than the active delay length; pairing ReadBlock with
// WriteBlockAndAdvance of the same size keeps FIFO semantics.
func (d *Line) ReadBlock(dst []float64) {
	n := len(dst)
	if n > d.length {
		panic(fmt.Sprintf("delay: block length %d exceeds delay length %d", n, d.length))
	}

	size := len(d.buffer)
	start := d.writePos - d.length
	if start < 0 {
		start += size
	}

	first := size - start
	if first >= n {
		copy(dst, d.buffer[start:start+n])
		return
	}
	copy(dst[:first], d.buffer[start:])
	copy(dst[first:], d.buffer[:n-first])
}

// WriteBlockAndAdvance stores src at the write cursor and advances it by
// len(src), splitting into two copies across the wraparound point.
func (d *Line) WriteBlockAndAdvance(src []float64) {
	n := len(src)
	if n > len(d.buffer) {
		panic(fmt.Sprintf("delay: block length %d exceeds capacity %d", n, len(d.buffer)))
	}

	size := len(d.buffer)
	first := size - d.writePos
	if first >= n {
		copy(d.buffer[d.writePos:], src)
		d.writePos += n
		if d.writePos >= size {
			d.writePos = 0
		}
		return
	}
	copy(d.buffer[d.writePos:], src[:first])
	copy(d.buffer, src[first:])
	d.writePos = n - first
}

// SetLength sets the active delay length in samples.
func (d *Line) SetLength(length int) error {
	if length < 1 || length > len(d.buffer) {
		return fmt.Errorf("delay: length must be in [1, %d]: %d", len(d.buffer), length)
	}
	d.length = length
	return nil
}

// SetLengthFraction rescales the active delay length to fraction times the
// buffer capacity, clamped to at least one sample. Safe to call at audio
// rate; never reallocates.
func (d *Line) SetLengthFraction(fraction float64) {
	length := int(math.Round(fraction * float64(len(d.buffer))))
	if length < 1 {
		length = 1
	}
	if length > len(d.buffer) {
		length = len(d.buffer)
	}
	d.length = length
}

// Reset clears line state.
func (d *Line) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}
	d.writePos = 0
}
