package disasm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestARM64Decode(t *testing.T) {
	code := []byte{
		0xe0, 0x03, 0x01, 0xaa, // mov x0, x1
		0x08, 0x00, 0x00, 0x14, // b +0x20
		0x40, 0x00, 0x00, 0x54, // b.eq +0x8
		0x40, 0x00, 0x00, 0xb4, // cbz x0, +0x8
		0x00, 0x00, 0x1f, 0xd6, // br x0
		0x04, 0x00, 0x00, 0x94, // bl +0x10
		0xc0, 0x03, 0x5f, 0xd6, // ret
	}

	insts := Collect(NewARM64(), code, 0)
	require.Len(t, insts, 7)

	tests := []struct {
		name     string
		addr     uint64
		mnemonic string
		operands string
		groups   Group
	}{
		{"mov", 0x0, "mov", "x0, x1", 0},
		{"b", 0x4, "b", "#0x24", GroupJump | GroupBranchRelative},
		{"b.eq", 0x8, "b.eq", "#0x10", GroupJump | GroupBranchRelative},
		{"cbz", 0xc, "cbz", "x0, #0x14", GroupJump | GroupBranchRelative},
		{"br", 0x10, "br", "x0", GroupJump},
		{"bl", 0x14, "bl", "#0x24", GroupCall | GroupBranchRelative},
		{"ret", 0x18, "ret", "", GroupReturn},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := insts[i]
			assert.Equal(t, tt.addr, inst.Addr)
			assert.Equal(t, 4, inst.Len)
			assert.Equal(t, tt.mnemonic, inst.Mnemonic)
			assert.Equal(t, tt.operands, inst.Operands)
			assert.Equal(t, tt.groups, inst.Groups)
		})
	}
}

func TestARM64TrailingBytes(t *testing.T) {
	code := []byte{0xc0, 0x03, 0x5f, 0xd6, 0x01, 0x02}

	insts := Collect(NewARM64(), code, 0x100)
	require.Len(t, insts, 2)

	assert.Equal(t, uint64(0x100), insts[0].Addr)
	assert.Equal(t, ".byte", insts[1].Mnemonic)
	assert.Equal(t, "0x01, 0x02", insts[1].Operands)
	assert.Equal(t, uint64(0x104), insts[1].Addr)
	assert.Equal(t, 2, insts[1].Len)
}

func TestX64Decode(t *testing.T) {
	code := []byte{
		0x55,             // push rbp
		0x48, 0x89, 0xe5, // mov rbp, rsp
		0xeb, 0x02, // jmp +2
		0xff, 0xe0, // jmp rax
		0xe8, 0x00, 0x00, 0x00, 0x00, // call +0
		0xc3, // ret
	}

	insts := Collect(NewX64(), code, 0)
	require.Len(t, insts, 6)

	tests := []struct {
		addr     uint64
		length   int
		mnemonic string
		operands string
		groups   Group
	}{
		{0x0, 1, "push", "rbp", 0},
		{0x1, 3, "mov", "rbp, rsp", 0},
		{0x4, 2, "jmp", "0x8", GroupJump | GroupBranchRelative},
		{0x6, 2, "jmp", "rax", GroupJump},
		{0x8, 5, "call", "0xd", GroupCall | GroupBranchRelative},
		{0xd, 1, "ret", "", GroupReturn},
	}

	for i, tt := range tests {
		inst := insts[i]
		assert.Equal(t, tt.addr, inst.Addr, "inst %d", i)
		assert.Equal(t, tt.length, inst.Len, "inst %d", i)
		assert.Equal(t, tt.mnemonic, inst.Mnemonic, "inst %d", i)
		assert.Equal(t, tt.operands, inst.Operands, "inst %d", i)
		assert.Equal(t, tt.groups, inst.Groups, "inst %d", i)
	}
}

func TestDecodeIsRestartable(t *testing.T) {
	code := []byte{0x55, 0x48, 0x89, 0xe5, 0xc3}
	seq := NewX64().Decode(code, 0)

	var first, second []Inst
	for inst := range seq {
		first = append(first, inst)
	}
	for inst := range seq {
		second = append(second, inst)
	}
	assert.Equal(t, first, second)
}

func TestDecodeStopsEarly(t *testing.T) {
	code := []byte{0x55, 0x48, 0x89, 0xe5, 0xc3}

	count := 0
	for range NewX64().Decode(code, 0) {
		count++
		if count == 2 {
			break
		}
	}
	assert.Equal(t, 2, count)
}

func TestGroupString(t *testing.T) {
	assert.Equal(t, "", Group(0).String())
	assert.Equal(t, "jump|branch_relative", (GroupJump | GroupBranchRelative).String())
	assert.True(t, (GroupCall | GroupBranchRelative).Has(GroupBranchRelative))
	assert.False(t, GroupJump.Has(GroupJump|GroupBranchRelative))
}

func TestInstText(t *testing.T) {
	assert.Equal(t, "ret", Inst{Mnemonic: "ret"}.Text())
	assert.Equal(t, "mov x0, x1", Inst{Mnemonic: "mov", Operands: "x0, x1"}.Text())
}
