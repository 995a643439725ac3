// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import "strings"

// A Macro is a named, captured body of raw source lines, defined once by
// '.mac' ... '.endm' and expanded by name thereafter. Substitution is
// purely positional and textual: '\1'..'\9' in a body line are replaced
// by the corresponding call argument before the line is reparsed.
type Macro struct {
	Name      string
	Body      []*Line
	DefinedAt *LineSlice
}

func (a *Assembler) isMacro(name string) bool {
	_, ok := a.macros[strings.ToUpper(name)]
	return ok
}

// macroMarker is the placeholder Action produced by parsing a '.mac
// name' line; name is parsed as the directive's own operand, not taken
// from a preceding label. The driver recognizes the marker immediately
// after parsing the line and diverts into macro-body capture rather than
// ever calling Pass1/Pass2 on it or retaining it in the assembled line
// list.
type macroMarker struct {
	ls   *LineSlice
	name string
}

func (m *macroMarker) Slice() *LineSlice                          { return m.ls }
func (m *macroMarker) Pass1(a *Assembler, l *LineSlice) (uint16, error) { return 0, nil }
func (m *macroMarker) Pass2(a *Assembler) ([]byte, error)          { return nil, nil }

// lineIsEndm reports whether text is an '.endm' line, tolerating one
// leading label word before the directive.
func lineIsEndm(text string) bool {
	lc := newLineChars(newLine(text, "", 0))
	lc.skipSpace()
	if lc.atEOL() || lc.peek() == ';' {
		return false
	}

	start := lc.mark()
	for labelChar(lc.peek()) {
		lc.next()
	}
	word := strings.ToUpper(lc.textFrom(start))
	if word == ".ENDM" {
		return atEOLOrComment(lc)
	}

	// The word wasn't '.endm'; it may be a label preceding it.
	lc.skipSpace()
	start = lc.mark()
	for labelChar(lc.peek()) {
		lc.next()
	}
	return strings.ToUpper(lc.textFrom(start)) == ".ENDM" && atEOLOrComment(lc)
}

func atEOLOrComment(lc *lineChars) bool {
	lc.skipSpace()
	return lc.atEOL() || lc.peek() == ';'
}

// captureMacro reads the body of a macro definition from a, starting
// right after the '.mac' line, stopping at (and consuming) the matching
// '.endm' line. It returns an error if the source runs out first.
func captureMacro(a *Assembler, name string, nameSlice *LineSlice) (*Macro, error) {
	m := &Macro{Name: strings.ToUpper(name), DefinedAt: nameSlice}
	for {
		line := a.src.Next()
		if line == nil {
			return nil, nameSlice.Err("'.mac' without matching '.endm'")
		}
		if lineIsEndm(line.Text) {
			return m, nil
		}
		m.Body = append(m.Body, line)
	}
}

// macroSource replays a macro's captured body with positional argument
// substitution applied, attributing every expanded line to the call
// site rather than the macro's original definition site, so errors and
// listing rows point at the line that invoked the macro.
type macroSource struct {
	macro *Macro
	args  []string
	call  *LineSlice
	i     int
}

func newMacroSource(macro *Macro, args []string, call *LineSlice) *macroSource {
	return &macroSource{macro: macro, args: args, call: call}
}

func (s *macroSource) Next() *Line {
	if s.i >= len(s.macro.Body) {
		return nil
	}
	text := substituteMacroArgs(s.macro.Body[s.i].Text, s.args)
	s.i++
	return newLine(text, s.call.Path(), s.call.LineNum())
}

// substituteMacroArgs replaces '\1'..'\9' with the corresponding
// argument, skipping quoted spans so a backslash digit inside a string
// literal is left alone.
func substituteMacroArgs(text string, args []string) string {
	var b strings.Builder
	inQuote := byte(0)
	for i := 0; i < len(text); i++ {
		c := text[i]
		if inQuote != 0 {
			b.WriteByte(c)
			if c == inQuote {
				inQuote = 0
			}
			continue
		}
		if stringQuote(c) {
			inQuote = c
			b.WriteByte(c)
			continue
		}
		if c == '\\' && i+1 < len(text) && text[i+1] >= '1' && text[i+1] <= '9' {
			idx := int(text[i+1] - '1')
			if idx < len(args) {
				b.WriteString(args[idx])
			}
			i++
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

// MacUsage is the Action for a macro invocation. It never emits bytes
// itself; its Pass1 pushes the expanded body onto the source stack so
// the driver's own pass1 loop parses and retains each expanded line as
// if it had appeared in the source directly.
type MacUsage struct {
	ls    *LineSlice
	macro *Macro
	args  []string
}

func (u *MacUsage) Slice() *LineSlice { return u.ls }

func (u *MacUsage) Pass1(a *Assembler, label *LineSlice) (uint16, error) {
	a.src.Push(newMacroSource(u.macro, u.args, u.ls))
	return 0, nil
}

func (u *MacUsage) Pass2(a *Assembler) ([]byte, error) {
	return nil, nil
}

// parseMacroUsage parses a comma-separated, quote-aware argument list
// following a recognized macro name. Arguments are captured as raw text,
// never evaluated as expressions: substitution is textual.
func parseMacroUsage(a *Assembler, lc *lineChars, name string, nameSlice *LineSlice) (Action, error) {
	macro := a.macros[strings.ToUpper(name)]
	var args []string
	lc.skipSpace()
	if !lc.atEOL() && lc.peek() != ';' {
		for {
			lc.skipSpace()
			start := lc.mark()
			inQuote := byte(0)
			for !lc.atEOL() {
				c := lc.peek()
				if inQuote != 0 {
					if c == inQuote {
						inQuote = 0
					}
					lc.next()
					continue
				}
				if stringQuote(c) {
					inQuote = c
					lc.next()
					continue
				}
				if c == ',' || c == ';' {
					break
				}
				lc.next()
			}
			arg := strings.TrimSpace(lc.textFrom(start))
			if arg == "" {
				return nil, lc.errHere("empty macro argument")
			}
			args = append(args, arg)
			lc.skipSpace()
			if lc.peek() != ',' {
				break
			}
			lc.next()
			lc.skipSpace()
			if lc.atEOL() || lc.peek() == ';' {
				return nil, lc.errHere("expected macro argument after ','")
			}
		}
	}
	return &MacUsage{ls: nameSlice, macro: macro, args: args}, nil
}
