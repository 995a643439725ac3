// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// A Symbol is a named value discovered during assembly: a label, or a
// value defined by '=' / '.equ'. Symbols are created on first reference,
// possibly before they're defined, and live for the whole assembly.
type Symbol struct {
	Name       string
	Value      *uint16
	DefinedAt  *LineSlice
	References map[*LineSlice]bool
	Comment    *string
}

func newSymbol(name string, firstRef *LineSlice) *Symbol {
	return &Symbol{
		Name:       name,
		References: map[*LineSlice]bool{firstRef: true},
	}
}

// addRef records a reference to the symbol. Returns true if it was
// already present.
func (s *Symbol) addRef(ref *LineSlice) bool {
	already := s.References[ref]
	s.References[ref] = true
	return already
}

// String renders the symbol the way the symbol table dump does: "VVVV:
// name" when defined, six spaces followed by the name otherwise.
func (s *Symbol) String() string {
	if s.Value != nil {
		return fmt.Sprintf("%04X: %s", *s.Value, s.Name)
	}
	return "      " + s.Name
}

// A SymbolTable maps symbol names to their entries.
type SymbolTable map[string]*Symbol

// lookup returns the named symbol, creating it as undefined on first
// sight, and records ref as one of its references. Names are
// case-folded to upper case, matching how identifiers are read out of
// expressions, so a label and every reference to it resolve to the same
// entry regardless of how each occurrence was cased in the source.
func (t SymbolTable) lookup(name string, ref *LineSlice) *Symbol {
	name = strings.ToUpper(name)
	sym, ok := t[name]
	if !ok {
		sym = newSymbol(name, ref)
		t[name] = sym
	}
	sym.addRef(ref)
	return sym
}

// Dump renders the symbol table sorted for output: symbols with values
// sort ascending by value; whenever either side of a comparison lacks a
// value, the pair is ordered by name instead (matching the original's Ord
// impl), so undefined symbols are not grouped after the defined ones.
func (t SymbolTable) Dump() string {
	symbols := make([]*Symbol, 0, len(t))
	for _, s := range t {
		symbols = append(symbols, s)
	}
	slices.SortFunc(symbols, func(a, b *Symbol) int {
		if a.Value != nil && b.Value != nil {
			return cmp.Compare(*a.Value, *b.Value)
		}
		return cmp.Compare(a.Name, b.Name)
	})

	var out []byte
	for _, s := range symbols {
		out = append(out, s.String()...)
		out = append(out, '\n')
	}
	return string(out)
}
