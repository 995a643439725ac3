// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import "strings"

// A ParsedLine is the result of parsing one source Line: an optional
// label, an optional action (instruction, pseudo-op, or macro
// invocation), and an optional
// trailing comment. A '.mac' line parses to a *macroMarker action; the
// driver recognizes it and diverts into macro-body capture rather than
// ever calling Pass1/Pass2 on it.
type ParsedLine struct {
	Line    *Line
	Label   *LineSlice
	Action  Action
	Comment *string
}

func isPseudoOpWord(word string) bool {
	_, ok := pseudoOps[strings.ToUpper(word)]
	return ok
}

// parseLine parses a single line of source into label/action/comment
// parts. a is needed because expression parsing inside pseudo-ops and
// opcodes resolves symbol references as it goes, and because macro
// invocations are recognized against the assembler's current macro set.
func parseLine(a *Assembler, line *Line) (*ParsedLine, error) {
	lc := newLineChars(line)
	pl := &ParsedLine{Line: line}

	if !whitespace(lc.peek()) && !lc.atEOL() && lc.peek() != ';' {
		start := lc.mark()
		if labelStartChar(lc.peek()) {
			for labelChar(lc.peek()) {
				lc.next()
			}
			word := lc.textFrom(start)
			upper := strings.ToUpper(word)
			if !isPseudoOpWord(upper) && !isMnemonic(upper) && !a.isMacro(upper) {
				pl.Label = lc.sliceFrom(start)
			} else {
				lc.pos = start
			}
		}
	}

	lc.skipSpace()

	if !lc.atEOL() && lc.peek() != ';' {
		act, err := parseAction(a, lc)
		if err != nil {
			return nil, err
		}
		if po, ok := act.(*PseudoOp); ok && po.name == "EQU" {
			po.label = pl.Label
		}
		pl.Action = act
	}

	lc.skipSpace()
	if lc.peek() == ';' {
		lc.next()
		start := lc.mark()
		for !lc.atEOL() {
			lc.next()
		}
		text := strings.TrimSpace(lc.textFrom(start))
		pl.Comment = &text
	}

	return pl, nil
}

func parseAction(a *Assembler, lc *lineChars) (Action, error) {
	start := lc.mark()
	if lc.peek() == '=' {
		lc.next()
		return parsePseudoOp(a, lc, "=", lc.sliceFrom(start))
	}

	wordStart := lc.mark()
	for wordChar(lc.peek()) || lc.peek() == '.' {
		lc.next()
	}
	word := lc.textFrom(wordStart)
	if word == "" {
		return nil, lc.errHere("expected instruction or directive")
	}
	upper := strings.ToUpper(word)

	switch {
	case isPseudoOpWord(upper):
		return parsePseudoOp(a, lc, upper, lc.sliceFrom(wordStart))
	case isMnemonic(upper):
		return parseOpcode(a, lc, upper, lc.sliceFrom(wordStart))
	case a.isMacro(upper):
		return parseMacroUsage(a, lc, upper, lc.sliceFrom(wordStart))
	}
	return nil, lc.errFrom(wordStart, "unknown mnemonic '%s'", word)
}

// parseOpcode parses the operand following a recognized mnemonic and
// guesses its surface addressing mode from the operand's punctuation.
// The real mode (and therefore whether the guess was even legal for
// this mnemonic) isn't known until Pass1 runs.
func parseOpcode(a *Assembler, lc *lineChars, mnem string, mnemSlice *LineSlice) (Action, error) {
	lc.skipSpace()

	if lc.atEOL() || lc.peek() == ';' {
		return &OpCode{ls: mnemSlice, mnem: mnem, surface: Imp}, nil
	}

	// A bare "A"/"a" operand (ASL A, LSR A, ROL A, ROR A) names the
	// accumulator rather than a memory address; it's distinct from the
	// "A:"/"ABS:" forced-absolute prefix handled below, which is always
	// followed by a colon rather than whitespace/comment/EOL.
	if accumulatorOperand(lc) {
		aStart := lc.mark()
		lc.next()
		return &OpCode{ls: mnemSlice.Join(lc.sliceFrom(aStart)), mnem: mnem, surface: Imp}, nil
	}

	start := lc.mark()

	if lc.peek() == '#' {
		lc.next()
		expr, err := parseExpr(a, lc)
		if err != nil {
			return nil, err
		}
		return &OpCode{ls: mnemSlice.Join(lc.sliceFrom(start)), mnem: mnem, surface: Imm, operand: expr}, nil
	}

	if lc.peek() == '(' {
		lc.next()
		expr, err := parseExpr(a, lc)
		if err != nil {
			return nil, err
		}
		lc.skipSpace()
		if lc.peek() == ',' {
			lc.next()
			lc.skipSpace()
			if lc.peek() != 'X' && lc.peek() != 'x' {
				return nil, lc.errHere("expected 'X'")
			}
			lc.next()
			lc.skipSpace()
			if lc.peek() != ')' {
				return nil, lc.errHere("expected ')'")
			}
			lc.next()
			return &OpCode{ls: mnemSlice.Join(lc.sliceFrom(start)), mnem: mnem, surface: IndX, operand: expr}, nil
		}
		if lc.peek() != ')' {
			return nil, lc.errHere("expected ')'")
		}
		lc.next()
		lc.skipSpace()
		if lc.peek() == ',' {
			lc.next()
			lc.skipSpace()
			if lc.peek() != 'Y' && lc.peek() != 'y' {
				return nil, lc.errHere("expected 'Y'")
			}
			lc.next()
			return &OpCode{ls: mnemSlice.Join(lc.sliceFrom(start)), mnem: mnem, surface: IndY, operand: expr}, nil
		}
		return &OpCode{ls: mnemSlice.Join(lc.sliceFrom(start)), mnem: mnem, surface: Ind, operand: expr}, nil
	}

	// Skip an optional "A:"/"ABS:" forced-absolute prefix, as in
	// "LDA A:$20" or "LDA ABS:$20": forces an absolute encoding even
	// when the value would otherwise fit in zero page.
	forceAbs := false
	if consumeForcedAbsPrefix(lc) {
		forceAbs = true
	}

	expr, err := parseExpr(a, lc)
	if err != nil {
		return nil, err
	}
	mode := Abs
	lc.skipSpace()
	if lc.peek() == ',' {
		lc.next()
		lc.skipSpace()
		switch lc.peek() {
		case 'X', 'x':
			lc.next()
			mode = AbsX
		case 'Y', 'y':
			lc.next()
			mode = AbsY
		default:
			return nil, lc.errHere("expected 'X' or 'Y'")
		}
	}
	op := &OpCode{ls: mnemSlice.Join(lc.sliceFrom(start)), mnem: mnem, surface: mode, operand: expr}
	if forceAbs {
		op.forceAbs = true
	}
	return op, nil
}

// accumulatorOperand reports whether the scanner sits on a standalone
// "A"/"a" operand token: the letter followed by whitespace, a comment, or
// end of line.
func accumulatorOperand(lc *lineChars) bool {
	if lc.peek() != 'A' && lc.peek() != 'a' {
		return false
	}
	next := lc.peekAt(1)
	return next == 0 || whitespace(next) || next == ';'
}

func consumeForcedAbsPrefix(lc *lineChars) bool {
	save := lc.pos
	if lc.startsWith("A:") {
		lc.skip(2)
		return true
	}
	if lc.startsWith("a:") {
		lc.skip(2)
		return true
	}
	upper := strings.ToUpper(lc.line.Text[lc.pos:min(lc.pos+4, len(lc.line.Text))])
	if strings.HasPrefix(upper, "ABS:") {
		lc.skip(4)
		return true
	}
	lc.pos = save
	return false
}
