// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"os"
	"strings"
)

// readBinaryFile reads path's full contents. Pass 1 calls it to learn
// the '.bin' block's size; pass 2 calls it again to get the bytes
// themselves, trading a second read for not having to hold every
// included file's contents in memory between passes.
func (a *Assembler) readBinaryFile(path string, ls *LineSlice) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ls.Err("%s: %v", path, err)
	}
	return data, nil
}

// pseudoOps is the set of recognized pseudo-op spellings, including
// every accepted synonym. The value is the canonical name used
// internally once a spelling is recognized.
var pseudoOps = map[string]string{
	"=":       "EQU",
	".EQU":    "EQU",
	".EQ":     "EQU",
	".ORG":    "ORG",
	".OR":     "ORG",
	".BYTE":   "BYTE",
	".DB":     "BYTE",
	".WORD":   "WORD",
	".DW":     "WORD",
	".DS":     "DS",
	".BIN":    "BIN",
	".INCBIN": "BIN",
	".INC":    "INC",
	".LIB":    "INC",
	".FIL":    "INC",
	".IF":     "IF",
	".ELSE":   "ELSE",
	".ENDIF":  "ENDIF",
	".ASSERT": "ASSERT",
	".DBG":    "DBG",
	".ON":     "ON",
	".OFF":    "OFF",
	".MAC":    "MAC",
	".ENDM":   "ENDM",
}

// PseudoOp is the Action for every directive except '.mac', which the
// driver captures specially since its body is raw, unparsed text.
type PseudoOp struct {
	ls   *LineSlice
	name string

	exprs    []exprNode // EQU, ORG, ASSERT, DS count
	items    []pseudoItem
	path     string // INC, BIN
	fillExpr exprNode
	format   string // DBG
	label    *LineSlice // EQU only: the label being defined

	size uint16 // computed during Pass1
}

// pseudoItem is one comma-separated item of a .byte/.word list: either a
// literal string (each character becomes its own unit) or an expression.
type pseudoItem struct {
	str  string
	expr exprNode
}

func (p *PseudoOp) Slice() *LineSlice { return p.ls }

func (p *PseudoOp) isIfAffiliated() bool {
	return p.name == "IF" || p.name == "ELSE" || p.name == "ENDIF"
}

// parsePseudoOp parses the argument list following a recognized
// directive spelling.
func parsePseudoOp(a *Assembler, lc *lineChars, word string, nameSlice *LineSlice) (Action, error) {
	name, ok := pseudoOps[word]
	if !ok {
		name, ok = pseudoOps[strings.ToUpper(word)]
	}
	if !ok {
		return nil, nameSlice.Err("unknown directive '%s'", word)
	}

	p := &PseudoOp{ls: nameSlice, name: name}

	switch name {
	case "EQU", "ORG", "ASSERT":
		lc.skipSpace()
		expr, err := parseExpr(a, lc)
		if err != nil {
			return nil, err
		}
		p.exprs = []exprNode{expr}
		p.ls = nameSlice.Join(lc.sliceFrom(nameSlice.StartChar))

	case "BYTE", "WORD":
		items, err := parseItemList(a, lc)
		if err != nil {
			return nil, err
		}
		p.items = items

	case "DS":
		lc.skipSpace()
		countExpr, err := parseExpr(a, lc)
		if err != nil {
			return nil, err
		}
		p.exprs = []exprNode{countExpr}
		lc.skipSpace()
		if lc.peek() == ',' {
			lc.next()
			lc.skipSpace()
			fillExpr, err := parseExpr(a, lc)
			if err != nil {
				return nil, err
			}
			p.fillExpr = fillExpr
		}

	case "BIN", "INC":
		lc.skipSpace()
		path, err := parsePathArg(lc)
		if err != nil {
			return nil, err
		}
		p.path = path

	case "IF":
		lc.skipSpace()
		expr, err := parseExpr(a, lc)
		if err != nil {
			return nil, err
		}
		p.exprs = []exprNode{expr}

	case "ELSE", "ENDIF", "ON", "OFF":
		// no operand

	case "DBG":
		lc.skipSpace()
		format, err := parsePathArg(lc)
		if err != nil {
			return nil, err
		}
		p.format = format

	case "MAC":
		lc.skipSpace()
		nmStart := lc.mark()
		for labelChar(lc.peek()) {
			lc.next()
		}
		macName := lc.textFrom(nmStart)
		if macName == "" {
			return nil, nameSlice.Err("'.mac' requires a macro name")
		}
		return &macroMarker{ls: nameSlice, name: strings.ToUpper(macName)}, nil

	case "ENDM":
		return nil, nameSlice.Err("'.endm' without matching '.mac'")
	}

	return p, nil
}

func parseItemList(a *Assembler, lc *lineChars) ([]pseudoItem, error) {
	var items []pseudoItem
	for {
		lc.skipSpace()
		if stringQuote(lc.peek()) {
			quote := lc.peek()
			lc.next()
			start := lc.mark()
			for lc.peek() != quote {
				if lc.peek() == 0 {
					return nil, lc.errFrom(start, "unterminated string literal")
				}
				lc.next()
			}
			s := lc.textFrom(start)
			lc.next()
			items = append(items, pseudoItem{str: s})
		} else {
			expr, err := parseExpr(a, lc)
			if err != nil {
				return nil, err
			}
			items = append(items, pseudoItem{expr: expr})
		}
		lc.skipSpace()
		if lc.peek() != ',' {
			break
		}
		lc.next()
	}
	return items, nil
}

// parsePathArg consumes the rest of the line (trimmed) as a bare path or
// format-string argument, rather than parsing it as an expression.
func parsePathArg(lc *lineChars) (string, error) {
	lc.skipSpace()
	start := lc.mark()
	if stringQuote(lc.peek()) {
		quote := lc.peek()
		lc.next()
		inner := lc.mark()
		for lc.peek() != quote {
			if lc.peek() == 0 {
				return "", lc.errFrom(start, "unterminated string literal")
			}
			lc.next()
		}
		s := lc.textFrom(inner)
		lc.next()
		return s, nil
	}
	for !lc.atEOL() && lc.peek() != ';' {
		lc.next()
	}
	return strings.TrimSpace(lc.textFrom(start)), nil
}

func (p *PseudoOp) Pass1(a *Assembler, label *LineSlice) (uint16, error) {
	switch p.name {
	case "EQU":
		if p.label == nil {
			return 0, p.ls.Err("'=' requires a label")
		}
		// The expression may reference a symbol not yet defined this
		// pass (e.g. an equate naming a label that appears later in
		// the source); eval just returns its current placeholder
		// value, and pass 2 will refine it once every symbol is known.
		resolved := p.exprs[0].knownAt1(a)
		v, err := p.exprs[0].eval(a)
		if err != nil {
			return 0, err
		}
		sym := a.Symbols.lookup(p.label.Text(), p.label)
		if err := a.defineSymbol(sym, v, p.label); err != nil {
			return 0, err
		}
		if !resolved {
			a.placeholderAt1[sym.Name] = true
		}
		return 0, nil

	case "ORG":
		v, err := p.exprs[0].eval(a)
		if err != nil {
			return 0, err
		}
		a.pc = v
		return 0, nil

	case "BYTE":
		p.size = uint16(itemListSize(p.items, 1))
		return p.size, nil

	case "WORD":
		p.size = uint16(itemListSize(p.items, 2))
		return p.size, nil

	case "DS":
		n, err := p.exprs[0].eval(a)
		if err != nil {
			return 0, err
		}
		p.size = n
		return n, nil

	case "BIN":
		data, err := a.readBinaryFile(p.path, p.ls)
		if err != nil {
			return 0, err
		}
		p.size = uint16(len(data))
		return p.size, nil

	case "INC":
		src, err := FromFile(p.path)
		if err != nil {
			return 0, p.ls.Err("%s: %v", p.path, err)
		}
		a.src.Push(src)
		return 0, nil

	case "IF":
		v, err := p.exprs[0].eval(a)
		if err != nil {
			return 0, err
		}
		a.pushIf(v != 0)
		return 0, nil

	case "ELSE":
		if err := a.flipIf(p.ls); err != nil {
			return 0, err
		}
		return 0, nil

	case "ENDIF":
		if err := a.popIf(p.ls); err != nil {
			return 0, err
		}
		return 0, nil

	case "ASSERT":
		v, err := p.exprs[0].eval(a)
		if err != nil {
			return 0, err
		}
		if a.Pass == Pass2 && v == 0 {
			return 0, p.ls.Err("assertion failed")
		}
		return 0, nil

	case "DBG":
		// '.dbg "fmt"' sets the persistent debug template; a bare
		// '.dbg' clears it. The template is applied by the driver at
		// every label definition while it's active, not here.
		if p.format == "" {
			a.debugFmt = nil
		} else {
			f := p.format
			a.debugFmt = &f
		}
		return 0, nil

	case "ON", "OFF":
		a.verbose = p.name == "ON"
		return 0, nil
	}
	return 0, p.ls.Err("unhandled directive '%s'", p.name)
}

func (p *PseudoOp) Pass2(a *Assembler) ([]byte, error) {
	switch p.name {
	case "EQU":
		v, err := p.exprs[0].eval(a)
		if err != nil {
			return nil, err
		}
		sym := a.Symbols.lookup(p.label.Text(), p.label)
		if err := a.defineSymbol(sym, v, p.label); err != nil {
			return nil, err
		}
		return nil, nil

	case "ORG":
		v, err := p.exprs[0].eval(a)
		if err != nil {
			return nil, err
		}
		a.pc = v
		return nil, nil

	case "IF", "ELSE", "ENDIF", "ON", "OFF":
		return nil, nil

	case "ASSERT":
		v, err := p.exprs[0].eval(a)
		if err != nil {
			return nil, err
		}
		if v == 0 {
			return nil, p.ls.Err("assertion failed")
		}
		return nil, nil

	case "BYTE":
		return evalItemList(a, p.items, 1)

	case "WORD":
		return evalItemList(a, p.items, 2)

	case "DS":
		var fill byte
		if p.fillExpr != nil {
			v, err := p.fillExpr.eval(a)
			if err != nil {
				return nil, err
			}
			fill = byte(v)
		}
		out := make([]byte, p.size)
		for i := range out {
			out[i] = fill
		}
		return out, nil

	case "BIN":
		return a.readBinaryFile(p.path, p.ls)

	case "INC":
		return nil, nil

	case "DBG":
		return nil, nil
	}
	return nil, p.ls.Err("unhandled directive '%s'", p.name)
}

func itemListSize(items []pseudoItem, unit int) int {
	n := 0
	for _, it := range items {
		if it.expr == nil {
			n += len(it.str) * unit
		} else {
			n += unit
		}
	}
	return n
}

func evalItemList(a *Assembler, items []pseudoItem, unit int) ([]byte, error) {
	var out []byte
	for _, it := range items {
		if it.expr == nil {
			for i := 0; i < len(it.str); i++ {
				out = append(out, appendUnit(unit, uint16(it.str[i]))...)
			}
			continue
		}
		v, err := it.expr.eval(a)
		if err != nil {
			return nil, err
		}
		out = append(out, appendUnit(unit, v)...)
	}
	return out, nil
}

func appendUnit(unit int, v uint16) []byte {
	if unit == 1 {
		return []byte{byte(v)}
	}
	return []byte{byte(v), byte(v >> 8)}
}
