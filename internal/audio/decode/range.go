package decode

import (
	"fmt"
	"io"
)

// blockSource yields de-interleaved blocks of normalised samples
type blockSource interface {
	// seek positions the source at or before start and returns the sample
	// index of the next block
	seek(start int64) (int64, error)

	// next returns the next block, or io.EOF at the end of the stream
	next() ([][]float32, error)
}

// rangeReader turns a sequential blockSource into ReadRange. pending holds the
// unconsumed tail of the last block and pos is the sample index of its first
// entry.
type rangeReader struct {
	src      blockSource
	channels int
	pos      int64
	pending  [][]float32
}

func newRangeReader(src blockSource, channels int) *rangeReader {
	return &rangeReader{src: src, channels: channels}
}

func (r *rangeReader) pendingLen() int64 {
	if len(r.pending) == 0 {
		return 0
	}
	return int64(len(r.pending[0]))
}

func (r *rangeReader) readRange(start, count int64) ([][]float32, error) {
	if start < 0 || count < 0 {
		return nil, fmt.Errorf("invalid sample range: start=%d count=%d", start, count)
	}

	out := make([][]float32, r.channels)
	for ch := range out {
		out[ch] = make([]float32, count)
	}
	if count == 0 {
		return out, nil
	}

	if start < r.pos || start > r.pos+r.pendingLen() {
		pos, err := r.src.seek(start)
		if err != nil {
			return nil, fmt.Errorf("seek to sample %d: %w", start, err)
		}
		r.pos, r.pending = pos, nil
	}

	var filled int64
	for filled < count {
		n := r.pendingLen()
		if n == 0 {
			block, err := r.src.next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, err
			}
			if len(block) != r.channels {
				return nil, fmt.Errorf("block has %d channels, expected %d", len(block), r.channels)
			}
			r.pending = block
			continue
		}

		skip := start + filled - r.pos
		if skip >= n {
			r.pos += n
			r.pending = nil
			continue
		}

		take := min(n-skip, count-filled)
		for ch := range out {
			copy(out[ch][filled:filled+take], r.pending[ch][skip:skip+take])
		}
		filled += take

		consumed := skip + take
		for ch := range r.pending {
			r.pending[ch] = r.pending[ch][consumed:]
		}
		r.pos += consumed
	}

	return out, nil
}
