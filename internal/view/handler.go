// Package view turns code blocks into annotated listings and renders them.
package view

import (
	"fmt"

	"jitview/internal/disasm"
	"jitview/internal/dump"
)

// Line is one decoded instruction with its label annotations.
type Line struct {
	disasm.Inst
	Label  string // label emitted on its own line before the instruction
	Target string // label this instruction branches to
}

// Listing is the rendered form of one block.
type Listing struct {
	PC    uint64
	Lines []Line
}

// Handler renders the blocks of one architecture.
type Handler interface {
	// Name is the architecture name announced before the first block.
	Name() string
	HandleBlock(pc uint64, code []byte) error
}

// NewHandler picks the handler for arch. It is called once per dump.
func NewHandler(arch dump.Arch, r Renderer) (Handler, error) {
	switch arch {
	case dump.ArchAArch64:
		return NewLabelingHandler(disasm.NewARM64(), r), nil
	case dump.ArchX64:
		return NewPlainHandler(disasm.NewX64(), r), nil
	}
	return nil, fmt.Errorf("%w: %d", dump.ErrUnsupportedArchitecture, uint32(arch))
}

// PlainHandler lists instructions without synthesizing labels.
type PlainHandler struct {
	decoder  disasm.Decoder
	renderer Renderer
}

func NewPlainHandler(d disasm.Decoder, r Renderer) *PlainHandler {
	return &PlainHandler{decoder: d, renderer: r}
}

func (h *PlainHandler) Name() string { return h.decoder.Name() }

func (h *PlainHandler) HandleBlock(pc uint64, code []byte) error {
	listing := Listing{PC: pc}
	for inst := range h.decoder.Decode(code, 0) {
		listing.Lines = append(listing.Lines, Line{Inst: inst})
	}
	return h.renderer.RenderBlock(listing)
}

// LabelingHandler places labels at relative branch targets inside a block.
type LabelingHandler struct {
	decoder  disasm.Decoder
	renderer Renderer
}

func NewLabelingHandler(d disasm.Decoder, r Renderer) *LabelingHandler {
	return &LabelingHandler{decoder: d, renderer: r}
}

func (h *LabelingHandler) Name() string { return h.decoder.Name() }

func (h *LabelingHandler) HandleBlock(pc uint64, code []byte) error {
	insts := h.decoder.Decode(code, 0)

	// First pass: collect branch sources and targets
	labels := ResolveLabels(insts)

	// Second pass: annotate
	listing := Listing{PC: pc}
	for inst := range insts {
		listing.Lines = append(listing.Lines, Line{
			Inst:   inst,
			Label:  labels.Targets[inst.Addr],
			Target: labels.Sources[inst.Addr],
		})
	}
	return h.renderer.RenderBlock(listing)
}
