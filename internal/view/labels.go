package view

import (
	"fmt"
	"iter"
	"strconv"
	"strings"

	"jitview/internal/disasm"
)

// Labels maps branch sites and branch targets of one block to label names.
type Labels struct {
	Sources map[uint64]string // branch instruction address -> label it jumps to
	Targets map[uint64]string // target address -> label emitted there
}

// LabelName returns the label for a target address. The same address always
// yields the same name.
func LabelName(target uint64) string {
	return fmt.Sprintf("lbl_%06x", target)
}

// ParseBranchTarget reads the target of a relative branch from its operand
// text, e.g. "#0x20". Anything other than a single hex literal is rejected.
func ParseBranchTarget(operands string) (uint64, bool) {
	s := strings.TrimSpace(operands)
	s = strings.TrimPrefix(s, "#")
	if len(s) > 1 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ResolveLabels scans a block once and collects a label for every relative
// branch whose operand is a plain target address. Register-indirect jumps and
// branches with extra operands (cbz, tbz) are left unlabeled.
//
// The parsed operand is used as the target address as-is.
func ResolveLabels(insts iter.Seq[disasm.Inst]) Labels {
	labels := Labels{
		Sources: make(map[uint64]string),
		Targets: make(map[uint64]string),
	}

	for inst := range insts {
		if !inst.Groups.Has(disasm.GroupBranchRelative) {
			continue
		}
		target, ok := ParseBranchTarget(inst.Operands)
		if !ok {
			continue
		}
		name := LabelName(target)
		labels.Sources[inst.Addr] = name
		labels.Targets[target] = name
	}
	return labels
}
