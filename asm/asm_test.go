// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"strings"
	"testing"
)

func assembleHex(t *testing.T, src string) string {
	t.Helper()
	code, err := AssembleString(src, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var b strings.Builder
	for _, v := range code {
		b.WriteString(hexByte(v))
	}
	return b.String()
}

var hexDigits = "0123456789ABCDEF"

func hexByte(v byte) string {
	return string([]byte{hexDigits[v>>4], hexDigits[v&0x0f]})
}

func assembleErr(t *testing.T, src string) error {
	t.Helper()
	_, err := AssembleString(src, "test")
	if err == nil {
		t.Fatalf("expected an error, got none")
	}
	return err
}

func TestAddressingIMM(t *testing.T) {
	cases := map[string]string{
		"LDA #$01": "A901",
		"LDX #$01": "A201",
		"LDY #$01": "A001",
		"ADC #$01": "6901",
		"SBC #$01": "E901",
		"CMP #$01": "C901",
		"CPX #$01": "E001",
		"CPY #$01": "C001",
		"AND #$01": "2901",
		"ORA #$01": "0901",
		"EOR #$01": "4901",
	}
	for src, want := range cases {
		if got := assembleHex(t, src); got != want {
			t.Errorf("%q: got %s, want %s", src, got, want)
		}
	}
}

func TestAddressingZeroPageShrink(t *testing.T) {
	if got, want := assembleHex(t, "LDA $20"), "A520"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	if got, want := assembleHex(t, "LDA $2000"), "AD0020"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	if got, want := assembleHex(t, "LDA A:$20"), "AD2000"; got != want {
		t.Errorf("forced absolute: got %s, want %s", got, want)
	}
}

func TestAddressingIndirect(t *testing.T) {
	if got, want := assembleHex(t, "JMP ($2000)"), "6C0020"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	if got, want := assembleHex(t, "LDA ($20,X)"), "A120"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
	if got, want := assembleHex(t, "LDA ($20),Y"), "B120"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestHereExpressionForwardRef(t *testing.T) {
	src := ".OR $0600\n" +
		"X\t.EQ\tFOO\n" +
		"\tBIT X\n" +
		"FOO\t.EQ *\n"
	code, err := AssembleString(src, "test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// BIT X (zero-page form doesn't apply since X's placeholder value
	// during pass 1 is 0, but FOO resolves to an absolute address once
	// defined, so X must end up equal to FOO's final 16-bit value).
	if len(code) != 3 {
		t.Fatalf("expected 3 bytes (BIT abs), got %d: % X", len(code), code)
	}
}

func TestRelativeBranch(t *testing.T) {
	src := "\tBNE DONE\n\tNOP\nDONE\tRTS\n"
	if got, want := assembleHex(t, src), "D001EA60"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestRelativeBranchOutOfRange(t *testing.T) {
	var b strings.Builder
	b.WriteString("\tBNE FAR\n")
	for i := 0; i < 200; i++ {
		b.WriteString("\tNOP\n")
	}
	b.WriteString("FAR\tRTS\n")
	assembleErr(t, b.String())
}

func TestEquAndExpr(t *testing.T) {
	src := "FOO = 5\nBAR = FOO + 1\n\tLDA #BAR\n"
	if got, want := assembleHex(t, src), "A906"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestEquRedefinitionSameValueOk(t *testing.T) {
	src := "FOO = 5\nFOO = 5\n\tLDA #FOO\n"
	if got, want := assembleHex(t, src), "A905"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestEquRedefinitionConflictFails(t *testing.T) {
	src := "FOO = 5\nFOO = 6\n\tLDA #FOO\n"
	assembleErr(t, src)
}

func TestLabelCaseFolding(t *testing.T) {
	src := "Loop\tNOP\n\tJMP loop\n"
	if got, want := assembleHex(t, src), "EA4C0000"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestHiLoByte(t *testing.T) {
	src := "FOO = $1234\n\tLDA #<FOO\n\tLDA #>FOO\n"
	if got, want := assembleHex(t, src), "A934A912"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestRelationalOperators(t *testing.T) {
	src := "\t.IF 1 < 2\n\tLDA #1\n\t.ELSE\n\tLDA #0\n\t.ENDIF\n"
	if got, want := assembleHex(t, src), "A901"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestConditionalAssembly(t *testing.T) {
	src := "FLAG = 0\n\t.IF FLAG\n\tLDA #1\n\t.ELSE\n\tLDA #2\n\t.ENDIF\n"
	if got, want := assembleHex(t, src), "A902"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestByteWordDirectives(t *testing.T) {
	src := "\t.BYTE 1,2,\"AB\"\n\t.WORD $1234\n"
	if got, want := assembleHex(t, src), "010241423412"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestDSFill(t *testing.T) {
	src := "\t.DS 3,$FF\n"
	if got, want := assembleHex(t, src), "FFFFFF"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestMacroExpansion(t *testing.T) {
	src := ".MAC INC3\n" +
		"\tLDA #\\1\n" +
		"\tCLC\n" +
		"\tADC #3\n" +
		".ENDM\n" +
		"\tINC3 5\n"
	if got, want := assembleHex(t, src), "A905186903"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestAccumulatorMode(t *testing.T) {
	src := "\tASL A\n\tLSR A\n\tROL A\n\tROR A\n"
	if got, want := assembleHex(t, src), "0A4A2A6A"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestImmediateValueOutOfRangeFails(t *testing.T) {
	assembleErr(t, "\tLDA #$1234\n")
}

func TestStringLiteralLengthErrors(t *testing.T) {
	assembleErr(t, "\tLDA #''\n")
	assembleErr(t, "\tLDA #'AB'\n")
}

func TestStringLiteralSingleChar(t *testing.T) {
	if got, want := assembleHex(t, "\tLDA #'A'\n"), "A941"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestMultipleErrorsAccumulate(t *testing.T) {
	err := assembleErr(t, "\tLDA NOPE1\n\tLDX NOPE2\n")
	if !strings.Contains(err.Error(), "2 error") {
		t.Errorf("expected both errors to be counted, got: %v", err)
	}
}

func TestAssertPasses(t *testing.T) {
	src := "FOO = 5\n\t.ASSERT FOO = 5\n\tLDA #FOO\n"
	if got, want := assembleHex(t, src), "A905"; got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestAssertFails(t *testing.T) {
	src := "FOO = 5\n\t.ASSERT FOO = 6\n\tLDA #FOO\n"
	assembleErr(t, src)
}

func TestDbgFormat(t *testing.T) {
	src := ".org $1234\n.dbg '{L}:{V-1000}'\nfoo .word foo\n"
	info, err := Assemble(FromString(src, "test"), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := info.Debug, "foo:234\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDbgFormatAppliesToEveryLabelWhileActive(t *testing.T) {
	src := ".org $1000\n.dbg '{L}={V+0}'\nfoo nop\nbar nop\n"
	info, err := Assemble(FromString(src, "test"), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := info.Debug, "foo=1000\nbar=1001\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDbgFormatStopsAfterCleared(t *testing.T) {
	src := ".org $2000\n.dbg '{L}'\nfoo nop\n.dbg\nbar nop\n"
	info, err := Assemble(FromString(src, "test"), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := info.Debug, "foo\n"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestListing(t *testing.T) {
	info, err := Assemble(FromString("\tLDA #1\n", "test"), true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(info.Listing, "A9") {
		t.Errorf("listing missing opcode byte: %q", info.Listing)
	}
}

func TestUndefinedSymbolFails(t *testing.T) {
	assembleErr(t, "\tLDA NOPE\n")
}

func TestDivisionByZeroFails(t *testing.T) {
	assembleErr(t, "FOO = 1 / 0\n")
}

func TestPCWrap(t *testing.T) {
	src := ".OR $FFFF\n\tNOP\n\tNOP\n"
	info, err := Assemble(FromString(src, "test"), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(info.Code) != 2 {
		t.Fatalf("expected 2 bytes, got %d", len(info.Code))
	}
}
