package disasm

import (
	"fmt"
	"iter"
	"strings"

	"golang.org/x/arch/x86/x86asm"
)

// X64 decodes variable-length x86-64 instructions in Intel syntax.
type X64 struct{}

// NewX64 returns an x86-64 decoder.
func NewX64() *X64 {
	return &X64{}
}

func (*X64) Name() string { return "x64" }

// Decode walks code instruction by instruction. A byte that does not start a
// valid instruction is emitted as .byte data and decoding resumes after it.
func (*X64) Decode(code []byte, base uint64) iter.Seq[Inst] {
	return func(yield func(Inst) bool) {
		for off := 0; off < len(code); {
			addr := base + uint64(off)
			inst, err := x86asm.Decode(code[off:], 64)
			if err != nil || inst.Len == 0 {
				if !yield(byteData(addr, code[off:off+1])) {
					return
				}
				off++
				continue
			}
			if !yield(x64Inst(addr, code[off:off+inst.Len], inst)) {
				return
			}
			off += inst.Len
		}
	}
}

// x86 prefixes that IntelSyntax prints ahead of the opcode.
var x64Prefixes = map[string]bool{
	"lock": true, "rep": true, "repe": true, "repz": true, "repne": true, "repnz": true,
	"bnd": true, "notrack": true, "xacquire": true, "xrelease": true,
	"data16": true, "data32": true, "addr16": true, "addr32": true,
	"cs": true, "ds": true, "es": true, "fs": true, "gs": true, "ss": true,
}

func x64Inst(addr uint64, raw []byte, inst x86asm.Inst) Inst {
	fields := strings.Fields(x86asm.IntelSyntax(inst, addr, nil))
	if len(fields) == 0 {
		return byteData(addr, raw)
	}

	n := 0
	for n < len(fields)-1 && x64Prefixes[fields[n]] {
		n++
	}
	mnemonic := strings.Join(fields[:n+1], " ")
	operands := strings.Join(fields[n+1:], " ")

	var groups Group
	for _, arg := range inst.Args {
		if arg == nil {
			break
		}
		if rel, ok := arg.(x86asm.Rel); ok {
			groups |= GroupBranchRelative
			operands = fmt.Sprintf("0x%x", addr+uint64(inst.Len)+uint64(int64(rel)))
		}
	}
	groups |= x64Groups(inst.Op)
	if groups == GroupBranchRelative {
		// rip-relative forms outside control flow are not branches
		groups = 0
	}

	return Inst{
		Addr:     addr,
		Len:      inst.Len,
		Mnemonic: mnemonic,
		Operands: operands,
		Groups:   groups,
		Raw:      raw,
	}
}

func x64Groups(op x86asm.Op) Group {
	switch op {
	case x86asm.JMP, x86asm.LJMP,
		x86asm.JA, x86asm.JAE, x86asm.JB, x86asm.JBE, x86asm.JE, x86asm.JNE,
		x86asm.JG, x86asm.JGE, x86asm.JL, x86asm.JLE,
		x86asm.JO, x86asm.JNO, x86asm.JP, x86asm.JNP, x86asm.JS, x86asm.JNS,
		x86asm.JCXZ, x86asm.JECXZ, x86asm.JRCXZ,
		x86asm.LOOP, x86asm.LOOPE, x86asm.LOOPNE:
		return GroupJump
	case x86asm.CALL, x86asm.LCALL:
		return GroupCall
	case x86asm.RET, x86asm.LRET, x86asm.IRET, x86asm.IRETD, x86asm.IRETQ:
		return GroupReturn
	case x86asm.INT, x86asm.INTO, x86asm.ICEBP, x86asm.SYSCALL, x86asm.SYSENTER:
		return GroupInterrupt
	}
	return 0
}
