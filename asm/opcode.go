// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import "strings"

// An AMode identifies a 6502 addressing mode. Parsing first guesses a
// "surface" mode from the operand's punctuation (parentheses, a trailing
// ",X"/",Y", a leading '#'); opcode resolution then narrows that guess
// to the "real" mode the opcode table actually supports, which may
// require demoting an absolute guess to zero page or a branch's
// absolute guess to relative.
type AMode int

const (
	Imp AMode = iota
	Imm
	Zp
	ZpX
	ZpY
	Abs
	AbsX
	AbsY
	Ind
	IndX
	IndY
	Rel
)

// operandSize returns the number of operand bytes an instruction in mode
// m carries, not counting the opcode byte itself.
func (m AMode) operandSize() int {
	switch m {
	case Imp:
		return 0
	case Imm, Zp, ZpX, ZpY, Rel, IndX, IndY:
		return 1
	case Abs, AbsX, AbsY, Ind:
		return 2
	}
	panic("unknown addressing mode")
}

var branchMnemonics = map[string]bool{
	"BCC": true, "BCS": true, "BEQ": true, "BNE": true,
	"BMI": true, "BPL": true, "BVC": true, "BVS": true,
}

// opTable is the canonical NMOS 6502 instruction encoding: mnemonic to
// addressing mode to opcode byte. Only legal, documented opcodes are
// present; undocumented/illegal opcodes and 65C02 extensions are not
// part of this table.
var opTable = map[string]map[AMode]byte{
	"ADC": {Imm: 0x69, Zp: 0x65, ZpX: 0x75, Abs: 0x6D, AbsX: 0x7D, AbsY: 0x79, IndX: 0x61, IndY: 0x71},
	"AND": {Imm: 0x29, Zp: 0x25, ZpX: 0x35, Abs: 0x2D, AbsX: 0x3D, AbsY: 0x39, IndX: 0x21, IndY: 0x31},
	"ASL": {Imp: 0x0A, Zp: 0x06, ZpX: 0x16, Abs: 0x0E, AbsX: 0x1E},
	"BCC": {Rel: 0x90},
	"BCS": {Rel: 0xB0},
	"BEQ": {Rel: 0xF0},
	"BIT": {Zp: 0x24, Abs: 0x2C},
	"BMI": {Rel: 0x30},
	"BNE": {Rel: 0xD0},
	"BPL": {Rel: 0x10},
	"BRK": {Imp: 0x00},
	"BVC": {Rel: 0x50},
	"BVS": {Rel: 0x70},
	"CLC": {Imp: 0x18},
	"CLD": {Imp: 0xD8},
	"CLI": {Imp: 0x58},
	"CLV": {Imp: 0xB8},
	"CMP": {Imm: 0xC9, Zp: 0xC5, ZpX: 0xD5, Abs: 0xCD, AbsX: 0xDD, AbsY: 0xD9, IndX: 0xC1, IndY: 0xD1},
	"CPX": {Imm: 0xE0, Zp: 0xE4, Abs: 0xEC},
	"CPY": {Imm: 0xC0, Zp: 0xC4, Abs: 0xCC},
	"DEC": {Zp: 0xC6, ZpX: 0xD6, Abs: 0xCE, AbsX: 0xDE},
	"DEX": {Imp: 0xCA},
	"DEY": {Imp: 0x88},
	"EOR": {Imm: 0x49, Zp: 0x45, ZpX: 0x55, Abs: 0x4D, AbsX: 0x5D, AbsY: 0x59, IndX: 0x41, IndY: 0x51},
	"INC": {Zp: 0xE6, ZpX: 0xF6, Abs: 0xEE, AbsX: 0xFE},
	"INX": {Imp: 0xE8},
	"INY": {Imp: 0xC8},
	"JMP": {Abs: 0x4C, Ind: 0x6C},
	"JSR": {Abs: 0x20},
	"LDA": {Imm: 0xA9, Zp: 0xA5, ZpX: 0xB5, Abs: 0xAD, AbsX: 0xBD, AbsY: 0xB9, IndX: 0xA1, IndY: 0xB1},
	"LDX": {Imm: 0xA2, Zp: 0xA6, ZpY: 0xB6, Abs: 0xAE, AbsY: 0xBE},
	"LDY": {Imm: 0xA0, Zp: 0xA4, ZpX: 0xB4, Abs: 0xAC, AbsX: 0xBC},
	"LSR": {Imp: 0x4A, Zp: 0x46, ZpX: 0x56, Abs: 0x4E, AbsX: 0x5E},
	"NOP": {Imp: 0xEA},
	"ORA": {Imm: 0x09, Zp: 0x05, ZpX: 0x15, Abs: 0x0D, AbsX: 0x1D, AbsY: 0x19, IndX: 0x01, IndY: 0x11},
	"PHA": {Imp: 0x48},
	"PHP": {Imp: 0x08},
	"PLA": {Imp: 0x68},
	"PLP": {Imp: 0x28},
	"ROL": {Imp: 0x2A, Zp: 0x26, ZpX: 0x36, Abs: 0x2E, AbsX: 0x3E},
	"ROR": {Imp: 0x6A, Zp: 0x66, ZpX: 0x76, Abs: 0x6E, AbsX: 0x7E},
	"RTI": {Imp: 0x40},
	"RTS": {Imp: 0x60},
	"SBC": {Imm: 0xE9, Zp: 0xE5, ZpX: 0xF5, Abs: 0xED, AbsX: 0xFD, AbsY: 0xF9, IndX: 0xE1, IndY: 0xF1},
	"SEC": {Imp: 0x38},
	"SED": {Imp: 0xF8},
	"SEI": {Imp: 0x78},
	"STA": {Zp: 0x85, ZpX: 0x95, Abs: 0x8D, AbsX: 0x9D, AbsY: 0x99, IndX: 0x81, IndY: 0x91},
	"STX": {Zp: 0x86, ZpY: 0x96, Abs: 0x8E},
	"STY": {Zp: 0x84, ZpX: 0x94, Abs: 0x8C},
	"TAX": {Imp: 0xAA},
	"TAY": {Imp: 0xA8},
	"TSX": {Imp: 0xBA},
	"TXA": {Imp: 0x8A},
	"TXS": {Imp: 0x9A},
	"TYA": {Imp: 0x98},
}

// isMnemonic reports whether name is a known 6502 mnemonic.
func isMnemonic(name string) bool {
	_, ok := opTable[strings.ToUpper(name)]
	return ok
}

// OpCode is the Action for a single 6502 instruction line: a mnemonic
// plus a surface addressing mode guessed by the parser, and (for every
// mode but Imp) an operand expression.
type OpCode struct {
	ls       *LineSlice
	mnem     string
	surface  AMode
	operand  exprNode
	forceAbs bool  // set by an explicit "A:"/"ABS:" operand prefix
	real     AMode // resolved during Pass1, used by Pass2
}

func (o *OpCode) Slice() *LineSlice { return o.ls }

// realAMode narrows the surface guess to a mode the opcode table
// actually has an entry for, given value (the operand's pass-1
// evaluated value, used only to decide whether it fits in a byte).
func (o *OpCode) realAMode(value uint16, valueKnown bool) (AMode, error) {
	modes := opTable[o.mnem]

	if branchMnemonics[o.mnem] {
		if o.surface == Abs {
			return Rel, nil
		}
		return 0, o.ls.Err("'%s' requires an address operand", o.mnem)
	}

	m := o.surface
	if !o.forceAbs && (m == Abs || m == AbsX || m == AbsY) && valueKnown && value <= 0xFF {
		var zp AMode
		switch m {
		case Abs:
			zp = Zp
		case AbsX:
			zp = ZpX
		case AbsY:
			zp = ZpY
		}
		if _, ok := modes[zp]; ok {
			m = zp
		}
	}

	if _, ok := modes[m]; !ok {
		return 0, o.ls.Err("addressing mode not supported by '%s'", o.mnem)
	}
	return m, nil
}

func (o *OpCode) Pass1(a *Assembler, label *LineSlice) (uint16, error) {
	var value uint16
	known := true
	if o.operand != nil {
		v, err := o.operand.eval(a)
		if err != nil {
			return 0, err
		}
		value = v
		// A value built from a forward reference evaluates to a
		// placeholder during pass 1. Only trust it for the zero-page
		// shrink decision once every symbol it depends on is already
		// defined, or the guessed size could change by pass 2.
		known = o.operand.knownAt1(a)
	}
	real, err := o.realAMode(value, known)
	if err != nil {
		return 0, err
	}
	o.real = real
	return uint16(1 + real.operandSize()), nil
}

func (o *OpCode) Pass2(a *Assembler) ([]byte, error) {
	opcodeByte := opTable[o.mnem][o.real]

	if o.real == Imp {
		return []byte{opcodeByte}, nil
	}

	var value uint16
	if o.operand != nil {
		v, err := o.operand.eval(a)
		if err != nil {
			return nil, err
		}
		value = v
	}

	if o.real == Rel {
		target := value
		offset := int(target) - int(a.pc+2)
		if offset < -128 || offset > 127 {
			return nil, o.ls.Err("branch target out of range")
		}
		return []byte{opcodeByte, byte(int8(offset))}, nil
	}

	switch o.real.operandSize() {
	case 1:
		if value > 0xFF {
			return nil, o.ls.Err("value %04X out of range", value)
		}
		return []byte{opcodeByte, byte(value)}, nil
	case 2:
		return []byte{opcodeByte, byte(value), byte(value >> 8)}, nil
	}
	return []byte{opcodeByte}, nil
}
