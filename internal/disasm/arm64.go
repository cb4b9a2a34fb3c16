package disasm

import (
	"fmt"
	"iter"
	"strings"

	"golang.org/x/arch/arm64/arm64asm"
)

// ARM64 decodes fixed-width AArch64 instructions.
type ARM64 struct{}

// NewARM64 returns an AArch64 decoder.
func NewARM64() *ARM64 {
	return &ARM64{}
}

func (*ARM64) Name() string { return "aarch64" }

// Decode walks code one 4-byte word at a time. Words that do not decode, and
// a trailing partial word, are emitted as .byte data.
func (*ARM64) Decode(code []byte, base uint64) iter.Seq[Inst] {
	return func(yield func(Inst) bool) {
		for off := 0; off < len(code); off += 4 {
			addr := base + uint64(off)
			raw := code[off:min(off+4, len(code))]
			if len(raw) < 4 {
				yield(byteData(addr, raw))
				return
			}

			inst, err := arm64asm.Decode(raw)
			if err != nil {
				if !yield(byteData(addr, raw)) {
					return
				}
				continue
			}
			if !yield(arm64Inst(addr, raw, inst)) {
				return
			}
		}
	}
}

func arm64Inst(addr uint64, raw []byte, inst arm64asm.Inst) Inst {
	mnemonic := strings.ToLower(inst.Op.String())

	var args []string
	for i, arg := range inst.Args {
		if arg == nil {
			break
		}
		switch a := arg.(type) {
		case arm64asm.Cond:
			// b.cond carries its condition as the first argument
			if inst.Op == arm64asm.B && i == 0 {
				mnemonic = "b." + strings.ToLower(a.String())
				continue
			}
		case arm64asm.PCRel:
			args = append(args, fmt.Sprintf("#0x%x", arm64Target(addr, inst.Op, a)))
			continue
		case arm64asm.Reg:
			if inst.Op == arm64asm.RET && a == arm64asm.X30 {
				continue
			}
		}
		args = append(args, strings.ToLower(arg.String()))
	}

	return Inst{
		Addr:     addr,
		Len:      4,
		Mnemonic: mnemonic,
		Operands: strings.Join(args, ", "),
		Groups:   arm64Groups(inst.Op),
		Raw:      raw,
	}
}

// arm64Target resolves a pc-relative operand to an absolute address.
func arm64Target(addr uint64, op arm64asm.Op, rel arm64asm.PCRel) uint64 {
	if op == arm64asm.ADRP {
		return addr&^0xfff + uint64(int64(rel))
	}
	return addr + uint64(int64(rel))
}

func arm64Groups(op arm64asm.Op) Group {
	switch op {
	case arm64asm.B, arm64asm.CBZ, arm64asm.CBNZ, arm64asm.TBZ, arm64asm.TBNZ:
		return GroupJump | GroupBranchRelative
	case arm64asm.BR:
		return GroupJump
	case arm64asm.BL:
		return GroupCall | GroupBranchRelative
	case arm64asm.BLR:
		return GroupCall
	case arm64asm.RET, arm64asm.ERET:
		return GroupReturn
	case arm64asm.SVC, arm64asm.HVC, arm64asm.SMC, arm64asm.BRK:
		return GroupInterrupt
	}
	return 0
}
