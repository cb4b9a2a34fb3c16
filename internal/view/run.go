package view

import (
	"errors"
	"io"

	"github.com/charmbracelet/log"

	"jitview/internal/dump"
)

// Run reads a dump from src and feeds every block to the handler for its
// architecture. A truncated block is reported to the renderer and ends the
// run without an error; header errors are returned before anything is
// rendered.
func Run(src io.Reader, r Renderer, logger *log.Logger) error {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	dr, err := dump.NewReader(src, dump.WithLogger(logger))
	if err != nil {
		return err
	}

	arch := dr.Header().Architecture()
	h, err := NewHandler(arch, r)
	if err != nil {
		return err
	}
	logger.Debug("dump header", "arch", arch)

	if err := r.Begin(h.Name()); err != nil {
		return err
	}

	for {
		block, err := dr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var te *dump.TruncatedBlockError
		if errors.As(err, &te) {
			if err := r.Truncated(te); err != nil {
				return err
			}
			break
		}
		if err != nil {
			return err
		}

		if err := h.HandleBlock(block.PC, block.Code); err != nil {
			return err
		}
	}

	return r.End()
}
