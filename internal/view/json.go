package view

import (
	"encoding/json"
	"fmt"
	"io"

	"jitview/internal/dump"
)

// JSONOutput is the machine-readable form of a whole dump.
type JSONOutput struct {
	Architecture string      `json:"architecture"`
	Blocks       []JSONBlock `json:"blocks"`
	Truncated    *JSONTrunc  `json:"truncated,omitempty"`
}

type JSONBlock struct {
	PC           string     `json:"pc"`
	Instructions []JSONInst `json:"instructions"`
}

type JSONInst struct {
	Address  string `json:"address"`
	Mnemonic string `json:"mnemonic"`
	Operands string `json:"operands"`
	Label    string `json:"label,omitempty"`
	Target   string `json:"target_label,omitempty"`
}

type JSONTrunc struct {
	PC        string `json:"pc"`
	Size      uint64 `json:"size"`
	Available uint64 `json:"available"`
}

// JSONRenderer buffers the dump and writes one JSON document on End.
type JSONRenderer struct {
	w   io.Writer
	out JSONOutput
}

func NewJSONRenderer(w io.Writer) *JSONRenderer {
	return &JSONRenderer{w: w, out: JSONOutput{Blocks: []JSONBlock{}}}
}

func (r *JSONRenderer) Begin(arch string) error {
	r.out.Architecture = arch
	return nil
}

func (r *JSONRenderer) RenderBlock(l Listing) error {
	block := JSONBlock{
		PC:           fmt.Sprintf("0x%x", l.PC),
		Instructions: make([]JSONInst, 0, len(l.Lines)),
	}
	for _, ln := range l.Lines {
		block.Instructions = append(block.Instructions, JSONInst{
			Address:  fmt.Sprintf("0x%x", ln.Addr),
			Mnemonic: ln.Mnemonic,
			Operands: ln.Operands,
			Label:    ln.Label,
			Target:   ln.Target,
		})
	}
	r.out.Blocks = append(r.out.Blocks, block)
	return nil
}

func (r *JSONRenderer) Truncated(err *dump.TruncatedBlockError) error {
	r.out.Truncated = &JSONTrunc{
		PC:        fmt.Sprintf("0x%x", err.PC),
		Size:      err.Size,
		Available: err.Available,
	}
	return nil
}

func (r *JSONRenderer) End() error {
	data, err := json.MarshalIndent(r.out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	data = append(data, '\n')
	_, err = r.w.Write(data)
	return err
}
