// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"strconv"
	"strings"
)

// A listingRow is one line of assembly-listing output: the originating
// line number, the program counter at the start of the action, up to
// three emitted bytes shown as hex pairs, and the original source text.
// An action that emits more than three bytes (a wide '.byte'/'.word'
// run, say) only shows its first three in the listing, matching the
// column budget of a classic three-byte listing format; every byte is
// still present in the assembled output.
type listingRow struct {
	lineNum int
	pc      uint16
	bytes   []byte
	text    string
}

func formatListingRow(r *listingRow) string {
	var bytesCol strings.Builder
	for i := 0; i < 3; i++ {
		if i > 0 {
			bytesCol.WriteByte(' ')
		}
		if i < len(r.bytes) {
			fmt.Fprintf(&bytesCol, "%02X", r.bytes[i])
		} else {
			bytesCol.WriteString("  ")
		}
	}
	return fmt.Sprintf("%6d %04X  %s  %s", r.lineNum, r.pc, bytesCol.String(), r.text)
}

// emitDebugLine expands the active '.dbg' template for a label just
// defined at value, with name in its original source casing and comment
// its accumulated doc comment, and appends the result plus a trailing
// newline to the assembler's accumulated debug string.
func (a *Assembler) emitDebugLine(name, comment string, value uint16, ls *LineSlice) error {
	s, err := expandDebugFormat(*a.debugFmt, name, comment, value, ls)
	if err != nil {
		return err
	}
	a.debug.WriteString(s)
	a.debug.WriteByte('\n')
	return nil
}

// expandDebugFormat substitutes '{L}' (the label's name), '{C}' (its
// comment, newlines folded to spaces), and '{V+hex}'/'{V-hex}' (its
// value offset by a hexadecimal amount, itself formatted as bare,
// unpadded hex) into format.
func expandDebugFormat(format, name, comment string, value uint16, ls *LineSlice) (string, error) {
	var b strings.Builder
	i := 0
	for i < len(format) {
		c := format[i]
		if c != '{' {
			b.WriteByte(c)
			i++
			continue
		}
		end := strings.IndexByte(format[i:], '}')
		if end < 0 {
			return "", ls.Err("unterminated '{' in debug format string")
		}
		token := format[i+1 : i+end]
		i += end + 1

		switch {
		case token == "L":
			b.WriteString(name)
		case token == "C":
			b.WriteString(strings.Join(strings.Fields(strings.ReplaceAll(comment, "\n", " ")), " "))
		case len(token) > 1 && token[0] == 'V' && (token[1] == '+' || token[1] == '-'):
			offset, err := strconv.ParseUint(token[2:], 16, 64)
			if err != nil {
				return "", ls.Err("invalid hex offset in '{%s}'", token)
			}
			v := value
			if token[1] == '+' {
				v += uint16(offset)
			} else {
				v -= uint16(offset)
			}
			fmt.Fprintf(&b, "%X", v)
		default:
			return "", ls.Err("unknown debug format token '{%s}'", token)
		}
	}
	return b.String(), nil
}
