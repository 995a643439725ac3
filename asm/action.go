// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

// An Action is the parsed, not-yet-evaluated form of a single source line:
// an instruction, a pseudo-op, or a macro invocation. A bare label or
// comment line has no Action. The driver walks a retained list of parsed
// lines twice, once per pass, calling each line's Action if it has one.
type Action interface {
	// Pass1 runs during the first pass. It returns the number of bytes
	// the action will emit, which the driver uses to advance the program
	// counter. label, if non-nil, is the label on this line; except on an
	// '='/'.equ' line, which defines the label itself, it has already
	// been pointed at the pre-action program counter.
	Pass1(a *Assembler, label *LineSlice) (uint16, error)

	// Pass2 runs during the second pass, after every symbol has its
	// final value, and returns the bytes to emit. It must emit exactly
	// as many bytes as Pass1 reported.
	Pass2(a *Assembler) ([]byte, error)

	// Slice returns the line slice the action was parsed from, for
	// error reporting and listing.
	Slice() *LineSlice
}

// ifAffiliated actions participate in conditional-assembly gating: an
// '.if'/'.else'/'.endif' line must run during pass 1 even while the
// current if-stack top is false, so the stack itself stays consistent.
type ifAffiliated interface {
	isIfAffiliated() bool
}

func isIfAffiliated(act Action) bool {
	if ia, ok := act.(ifAffiliated); ok {
		return ia.isIfAffiliated()
	}
	return false
}
