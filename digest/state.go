package digest

import (
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
)

// ChunkSize is the buffer size used by Stream. It bounds the working
// memory of a hashing operation regardless of input size.
const ChunkSize = 8 * 1024

// State is a running hash bound to one Algorithm. Input is folded in
// order; Finalize closes the state and every later call fails with
// ErrFinalized. A State must not be shared between goroutines.
type State struct {
	alg     Algorithm
	h       hash.Hash
	buf     []byte
	written int64
}

// New returns a fresh State for alg.
func New(alg Algorithm) (*State, error) {
	const errCtx = "creating digest state"

	h, err := alg.newHash()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return &State{alg: alg, h: h}, nil
}

// Algorithm returns the algorithm the state is bound to.
func (s *State) Algorithm() Algorithm {
	return s.alg
}

// Written returns the number of bytes folded into the state so far.
func (s *State) Written() int64 {
	return s.written
}

// Update folds p into the running hash.
func (s *State) Update(p []byte) error {
	if s.h == nil {
		return ErrFinalized
	}

	// hash.Hash.Write never returns an error.
	_, _ = s.h.Write(p)
	s.written += int64(len(p))

	return nil
}

// Stream reads r to EOF in ChunkSize pieces and folds every piece into
// the running hash. When observe is not nil it is called with the size
// of each piece after it has been folded in. Read errors are returned
// unwrapped together with the number of bytes consumed before them.
func (s *State) Stream(
	r io.Reader,
	observe func(n int),
) (int64, error) {
	if s.h == nil {
		return 0, ErrFinalized
	}

	if s.buf == nil {
		s.buf = make([]byte, ChunkSize)
	}

	var total int64

	for {
		n, err := r.Read(s.buf)
		if n > 0 {
			_, _ = s.h.Write(s.buf[:n])
			s.written += int64(n)
			total += int64(n)

			if observe != nil {
				observe(n)
			}
		}

		if errors.Is(err, io.EOF) {
			return total, nil
		}

		if err != nil {
			return total, err
		}
	}
}

// ReadFrom implements io.ReaderFrom on top of Stream.
func (s *State) ReadFrom(r io.Reader) (int64, error) {
	return s.Stream(r, nil)
}

// Finalize closes the state and returns the lower-case hexadecimal
// digest. It can be called only once.
func (s *State) Finalize() (string, error) {
	if s.h == nil {
		return "", ErrFinalized
	}

	sum := s.h.Sum(nil)
	s.h = nil
	s.buf = nil

	return hex.EncodeToString(sum), nil
}

// Sum hashes data in a single update and returns the hexadecimal digest.
func Sum(alg Algorithm, data []byte) (string, error) {
	const errCtx = "summing bytes"

	st, err := New(alg)
	if err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := st.Update(data); err != nil {
		return "", fmt.Errorf("%s: %w", errCtx, err)
	}

	return st.Finalize()
}
