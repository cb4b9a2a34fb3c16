package dump

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
)

// ReadHeader reads and validates the container header.
func ReadHeader(r io.Reader) (Header, error) {
	var buf [headerSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Header{}, fmt.Errorf("%w: need %d bytes", ErrInvalidHeader, headerSize)
		}
		return Header{}, fmt.Errorf("failed to read dump header: %w", err)
	}

	var h Header
	if err := unpack(buf[:], &h); err != nil {
		return Header{}, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	if err := h.Validate(); err != nil {
		return Header{}, err
	}
	return h, nil
}

// Reader yields the blocks of a dump in file order. The stream is read
// forward only and no block is retained after it is returned.
type Reader struct {
	r      io.Reader
	header Header
	logger *log.Logger
	done   bool
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger routes per-block debug records to logger.
func WithLogger(logger *log.Logger) Option {
	return func(r *Reader) {
		r.logger = logger
	}
}

// NewReader reads the header from r and returns a Reader positioned at the
// first block.
func NewReader(r io.Reader, opts ...Option) (*Reader, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	dr := &Reader{
		r:      r,
		header: h,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(dr)
	}
	return dr, nil
}

// Header returns the validated container header.
func (r *Reader) Header() Header {
	return r.header
}

// Next returns the next block. It returns io.EOF at the end of the stream,
// including when fewer than 16 bytes of a block header remain. A short
// payload yields a *TruncatedBlockError, after which Next returns io.EOF.
func (r *Reader) Next() (Block, error) {
	if r.done {
		return Block{}, io.EOF
	}

	var buf [blockHeaderSize]byte
	if _, err := io.ReadFull(r.r, buf[:]); err != nil {
		r.done = true
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return Block{}, io.EOF
		}
		return Block{}, fmt.Errorf("failed to read block header: %w", err)
	}

	var bh BlockHeader
	if err := unpack(buf[:], &bh); err != nil {
		r.done = true
		return Block{}, fmt.Errorf("failed to decode block header: %w", err)
	}

	// never allocate more than the stream actually holds
	code, err := io.ReadAll(io.LimitReader(r.r, int64(min(bh.Size, 1<<62))))
	if err != nil {
		r.done = true
		return Block{}, fmt.Errorf("failed to read block %x: %w", bh.PC, err)
	}
	if uint64(len(code)) != bh.Size {
		r.done = true
		r.logger.Warn("block truncated", "pc", fmt.Sprintf("%#x", bh.PC), "size", bh.Size, "available", len(code))
		return Block{}, &TruncatedBlockError{PC: bh.PC, Size: bh.Size, Available: uint64(len(code))}
	}

	r.logger.Debug("block", "pc", fmt.Sprintf("%#x", bh.PC), "size", bh.Size)
	return Block{PC: bh.PC, Code: code}, nil
}
