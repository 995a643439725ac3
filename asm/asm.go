// Copyright 2014 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asm implements a two-pass 6502 cross-assembler. A Source
// supplies lines of text; Assemble walks them twice, once to discover
// symbol values and macro/conditional structure and once to emit the
// final bytes, and returns the assembled code alongside the resulting
// symbol table, debug string, and (optionally) a listing.
package asm

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// Pass identifies which of the assembler's two passes is running.
type Pass int

const (
	Pass1 Pass = iota
	Pass2
)

// Assembler holds all state threaded through both passes of an
// assembly. Most callers don't construct one directly; use Assemble or
// AssembleString.
type Assembler struct {
	Symbols SymbolTable
	Pass    Pass

	pc  uint16
	src *SrcStack

	macros  map[string]*Macro
	ifStack []bool

	lines     []*ParsedLine
	lineSizes []uint16

	wantListing bool
	listing     []*listingRow

	debug strings.Builder
	code  []byte

	// debugFmt is the template set by the most recent '.dbg "fmt"' (nil
	// after a bare '.dbg' or before the first one). While set, every
	// label defined during pass 1 appends one expanded line to debug.
	debugFmt        *string
	buildingComment strings.Builder

	// errCount and errOut implement the per-line error-accumulation
	// contract: a source error is printed to errOut and counted rather
	// than aborting the pass, so a file with several independent
	// mistakes reports all of them in one run. A pass is only considered
	// successful if errCount is zero once it completes, and pass 2 never
	// runs after a pass 1 that reported any errors.
	errCount int
	errOut   io.Writer

	// definedThisPass tracks which symbols a define has already touched
	// in the pass currently running, and is reset at the start of each
	// pass. A symbol's value is only compared for consistency against
	// another define within the SAME pass; pass 1's placeholder values
	// (from a symbol whose own definition depends on a forward
	// reference) are never compared against pass 2's final ones, since
	// refining a placeholder into its real value across passes is
	// expected, not a redefinition bug.
	definedThisPass map[string]bool

	// placeholderAt1 marks symbols whose pass-1 value (set by an EQU
	// whose expression wasn't yet fully resolvable) is only a stand-in,
	// not a value pass 2 is guaranteed to reproduce. exprName.knownAt1
	// consults it so an opcode can't use a forward-referenced equate's
	// placeholder to justify a zero-page-shrink guess that pass 2 might
	// then have to contradict.
	placeholderAt1 map[string]bool

	verbose bool
	log     io.Writer
}

// defineSymbol assigns value to sym. Defining the same symbol a second
// time in the same pass with a different value is a redefinition error;
// any other case (first define this pass, or a repeat with the same
// value) succeeds.
func (a *Assembler) defineSymbol(sym *Symbol, value uint16, at *LineSlice) error {
	if a.definedThisPass[sym.Name] {
		if sym.Value != nil && *sym.Value != value {
			return at.Err("'%s' redefined (orig. def. at %s)", sym.Name, sym.DefinedAt.Pos())
		}
		return nil
	}
	a.definedThisPass[sym.Name] = true
	v := value
	sym.Value = &v
	sym.DefinedAt = at
	return nil
}

// reportError prints err to the assembler's error sink and counts it,
// implementing the accumulate-and-continue error policy: callers that
// hit a per-line error report it through here and carry on to the next
// line rather than aborting the pass.
func (a *Assembler) reportError(err error) {
	a.errCount++
	fmt.Fprintln(a.errOut, err)
}

// AsmInfo is the result of a successful assembly.
type AsmInfo struct {
	Code    []byte
	Symbols SymbolTable
	Debug   string
	Listing string
}

// DumpSymtab renders the assembly's symbol table, sorted for display.
func (info *AsmInfo) DumpSymtab() string {
	return info.Symbols.Dump()
}

// Assemble assembles src, producing the assembled bytes, the final
// symbol table, any accumulated '.dbg' output, and (if wantListing) a
// listing. The program counter starts at 0 unless an early '.org'
// changes it.
func Assemble(src Source, wantListing bool) (*AsmInfo, error) {
	return assemble(src, wantListing, nil)
}

// AssembleVerbose is Assemble with pass-by-pass tracing written to log as
// assembly proceeds, for callers (such as the interactive console) that
// want to surface the same trace Assembler.SetVerbose produces.
func AssembleVerbose(src Source, wantListing bool, log io.Writer) (*AsmInfo, error) {
	return assemble(src, wantListing, log)
}

func assemble(src Source, wantListing bool, verboseLog io.Writer) (*AsmInfo, error) {
	a := &Assembler{
		Symbols:     SymbolTable{},
		macros:      map[string]*Macro{},
		wantListing: wantListing,
		log:         io.Discard,
		errOut:      os.Stderr,
	}
	if verboseLog != nil {
		a.SetVerbose(verboseLog)
	}

	if err := a.runPass(src, Pass1); err != nil {
		return nil, err
	}
	if err := a.runPass(nil, Pass2); err != nil {
		return nil, err
	}

	return &AsmInfo{
		Code:    a.code,
		Symbols: a.Symbols,
		Debug:   a.debug.String(),
		Listing: a.formatListing(),
	}, nil
}

// AssembleString is a convenience wrapper that assembles an in-memory
// string of source text and returns only the assembled bytes.
func AssembleString(text, path string) ([]byte, error) {
	info, err := Assemble(FromString(text, path), false)
	if err != nil {
		return nil, err
	}
	return info.Code, nil
}

// SetVerbose turns on pass-by-pass tracing to w.
func (a *Assembler) SetVerbose(w io.Writer) {
	a.verbose = true
	a.log = w
}

func (a *Assembler) logf(format string, args ...interface{}) {
	if a.verbose {
		fmt.Fprintf(a.log, format, args...)
	}
}

func (a *Assembler) pcAdd(n uint16) {
	a.pc += n // wraps at 0xFFFF, matching the CPU's own 16-bit program counter
}

func (a *Assembler) conditionalActive() bool {
	for _, v := range a.ifStack {
		if !v {
			return false
		}
	}
	return true
}

func (a *Assembler) pushIf(cond bool) {
	a.ifStack = append(a.ifStack, cond)
}

func (a *Assembler) flipIf(ls *LineSlice) error {
	if len(a.ifStack) == 0 {
		return ls.Err("'.else' without matching '.if'")
	}
	top := len(a.ifStack) - 1
	a.ifStack[top] = !a.ifStack[top]
	return nil
}

func (a *Assembler) popIf(ls *LineSlice) error {
	if len(a.ifStack) == 0 {
		return ls.Err("'.endif' without matching '.if'")
	}
	a.ifStack = a.ifStack[:len(a.ifStack)-1]
	return nil
}

// runPass walks the retained line list (pass 2) or a fresh Source (pass
// 1, which builds that retained list as it goes). A pass fails if it
// accumulated any per-line errors; pass 2 is never attempted after a
// failed pass 1.
func (a *Assembler) runPass(src Source, pass Pass) error {
	a.Pass = pass
	a.pc = 0
	a.definedThisPass = map[string]bool{}
	a.placeholderAt1 = map[string]bool{}
	a.errCount = 0

	if pass == Pass1 {
		a.src = NewSrcStack(src)
		if err := a.pass1(); err != nil {
			return err
		}
	} else if err := a.pass2(); err != nil {
		return err
	}

	if a.errCount != 0 {
		return fmt.Errorf("%d error(s)", a.errCount)
	}
	return nil
}

// pass1 walks the source, discovering symbols, macros, and conditional
// structure, and builds the retained line list pass 2 will replay. Every
// per-line error is reported and counted rather than aborting the walk,
// so a source file with several independent mistakes surfaces all of
// them; pass1 itself only returns a Go error for conditions that would
// make continuing meaningless (none currently exist, but the signature
// is kept symmetric with pass2's internal-invariant escape hatch).
func (a *Assembler) pass1() error {
	for {
		line := a.src.Next()
		if line == nil {
			break
		}

		pl, err := parseLine(a, line)
		if err != nil {
			a.reportError(err)
			continue
		}

		if mm, ok := pl.Action.(*macroMarker); ok {
			macro, err := captureMacro(a, mm.name, mm.ls)
			if err != nil {
				a.reportError(err)
				break
			}
			a.macros[mm.name] = macro
			a.logf("%s: defined macro %s\n", mm.ls.Pos(), mm.name)
			continue
		}

		blankOrComment := pl.Label == nil && pl.Action == nil
		if blankOrComment && pl.Comment != nil {
			a.buildingComment.WriteString(*pl.Comment)
			a.buildingComment.WriteByte('\n')
		}

		active := a.conditionalActive()
		if !active && !isIfAffiliated(pl.Action) {
			continue
		}

		startPC := a.pc
		var label *LineSlice
		isEqu := false
		if po, ok := pl.Action.(*PseudoOp); ok && po.name == "EQU" {
			isEqu = true
		}

		if pl.Label != nil {
			label = pl.Label
			if !isEqu {
				sym := a.Symbols.lookup(label.Text(), label)
				if err := a.defineSymbol(sym, startPC, label); err != nil {
					a.reportError(err)
				} else {
					a.attachLabelComment(label, sym, pl.Comment)
				}
			}
		}

		var size uint16
		if pl.Action != nil {
			size, err = pl.Action.Pass1(a, label)
			if err != nil {
				a.reportError(err)
				size = 0
			}
		}

		if isEqu && pl.Label != nil {
			if sym, ok := a.Symbols[strings.ToUpper(pl.Label.Text())]; ok {
				a.attachLabelComment(pl.Label, sym, pl.Comment)
			}
		}

		if !blankOrComment {
			a.buildingComment.Reset()
		}

		a.pcAdd(size)
		a.lines = append(a.lines, pl)
		a.lineSizes = append(a.lineSizes, size)

		a.logf("%04X %s\n", startPC, line.Text)
	}

	if len(a.ifStack) != 0 {
		a.reportError(fmt.Errorf("'.if' without matching '.endif'"))
	}
	return nil
}

// attachLabelComment records sym's accumulated doc comment and, if a
// '.dbg' template is currently active, appends one expanded debug line
// for this label. Only called during pass 1, per the '.dbg' contract:
// the template applies to labels as they're defined, not replayed in
// pass 2.
func (a *Assembler) attachLabelComment(label *LineSlice, sym *Symbol, lineComment *string) {
	var c string
	if a.buildingComment.Len() > 0 {
		c = a.buildingComment.String()
	}
	if lineComment != nil {
		c += *lineComment
	}
	if c != "" {
		sym.Comment = &c
	}
	if a.debugFmt != nil && sym.Value != nil {
		if err := a.emitDebugLine(label.Text(), c, *sym.Value, label); err != nil {
			a.reportError(err)
		}
	}
}

// pass2 replays the retained line list, emitting bytes and (if
// requested) listing rows. A per-line error is reported and counted,
// same as pass 1; a pass1/pass2 byte-count disagreement, by contrast, is
// a programmer error in an Action implementation, not a source error, so
// it aborts the pass immediately instead of joining the count.
func (a *Assembler) pass2() error {
	for i, pl := range a.lines {
		startPC := a.pc

		var bytes []byte
		var err error
		if pl.Action != nil {
			bytes, err = pl.Action.Pass2(a)
		}
		if err != nil {
			a.reportError(err)
			a.pcAdd(a.lineSizes[i])
			continue
		}

		if uint16(len(bytes)) != a.lineSizes[i] {
			return fmt.Errorf("%s: internal error: pass1/pass2 size mismatch (%d vs %d)",
				pl.Line.Pos(), a.lineSizes[i], len(bytes))
		}

		a.code = append(a.code, bytes...)
		a.pcAdd(uint16(len(bytes)))

		if a.wantListing {
			a.listing = append(a.listing, &listingRow{
				lineNum: pl.Line.LineNum,
				pc:      startPC,
				bytes:   bytes,
				text:    pl.Line.Text,
			})
		}
	}
	return nil
}

func (a *Assembler) formatListing() string {
	if !a.wantListing {
		return ""
	}
	var b strings.Builder
	for _, row := range a.listing {
		b.WriteString(formatListingRow(row))
		b.WriteByte('\n')
	}
	return b.String()
}
