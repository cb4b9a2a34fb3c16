package dump

import (
	"fmt"
	"io"
)

// Writer produces a dump in the format Reader consumes.
type Writer struct {
	w io.Writer
}

// NewWriter writes the container header for arch and returns a Writer ready
// for blocks.
func NewWriter(w io.Writer, arch Arch) (*Writer, error) {
	if !arch.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedArchitecture, uint32(arch))
	}

	data, err := pack(&Header{Magic: Magic, Arch: uint32(arch)})
	if err != nil {
		return nil, fmt.Errorf("failed to encode dump header: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("writing dump header failed: %w", err)
	}
	return &Writer{w: w}, nil
}

// WriteBlock appends one code block.
func (w *Writer) WriteBlock(pc uint64, code []byte) error {
	data, err := pack(&BlockHeader{PC: pc, Size: uint64(len(code))})
	if err != nil {
		return fmt.Errorf("failed to encode block header: %w", err)
	}
	if _, err := w.w.Write(data); err != nil {
		return fmt.Errorf("writing block header failed: %w", err)
	}
	if _, err := w.w.Write(code); err != nil {
		return fmt.Errorf("writing block contents failed: %w", err)
	}
	return nil
}
