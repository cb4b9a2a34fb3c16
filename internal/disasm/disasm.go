// Package disasm defines a common instruction representation used
// across architecture-specific disassemblers.
package disasm

import (
	"fmt"
	"iter"
	"strings"
)

// Group is a set of classification tags attached to a decoded instruction.
type Group uint8

const (
	GroupJump           Group = 1 << iota // transfers control without linking
	GroupCall                             // transfers control and links
	GroupReturn                           // returns from a call
	GroupInterrupt                        // traps into a handler (svc, int, ...)
	GroupBranchRelative                   // target is encoded as an immediate displacement
)

// Has reports whether every tag in want is present in g.
func (g Group) Has(want Group) bool {
	return g&want == want
}

func (g Group) String() string {
	var names []string
	for _, t := range []struct {
		group Group
		name  string
	}{
		{GroupJump, "jump"},
		{GroupCall, "call"},
		{GroupReturn, "return"},
		{GroupInterrupt, "interrupt"},
		{GroupBranchRelative, "branch_relative"},
	} {
		if g.Has(t.group) {
			names = append(names, t.name)
		}
	}
	return strings.Join(names, "|")
}

// Inst is a simplified decoded instruction.
type Inst struct {
	Addr     uint64 // address of the instruction (base + offset)
	Len      int    // encoded length in bytes
	Mnemonic string // mnemonic in lowercase
	Operands string // formatted operand text, may be empty
	Groups   Group  // classification tags
	Raw      []byte // raw encoding
}

// Text returns the mnemonic and operands joined by a single space.
func (i Inst) Text() string {
	if i.Operands == "" {
		return i.Mnemonic
	}
	return i.Mnemonic + " " + i.Operands
}

// Stream is a linear sequence of instructions.
type Stream []Inst

// Decoder turns raw machine code into instructions. The returned sequence is
// lazy and finite, and ranging over it twice yields the same instructions.
type Decoder interface {
	// Name is the architecture name announced to the user.
	Name() string
	Decode(code []byte, base uint64) iter.Seq[Inst]
}

// Collect materializes every instruction of code decoded at base.
func Collect(d Decoder, code []byte, base uint64) Stream {
	var out Stream
	for inst := range d.Decode(code, base) {
		out = append(out, inst)
	}
	return out
}

// byteData renders undecodable bytes the way a skip-data disassembler does.
func byteData(addr uint64, raw []byte) Inst {
	var b strings.Builder
	for i, c := range raw {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "0x%02x", c)
	}
	return Inst{
		Addr:     addr,
		Len:      len(raw),
		Mnemonic: ".byte",
		Operands: b.String(),
		Raw:      raw,
	}
}
