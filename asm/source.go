// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"os"
	"strings"
)

// A Line is a single, immutable line of source text, tagged with the file
// it came from and its 1-based line number. Lines are shared by reference:
// many LineSlices and ParsedLines may point at the same Line long after the
// Source that produced it has been exhausted.
type Line struct {
	Text    string
	Path    string
	LineNum int
}

func newLine(text, path string, lineNum int) *Line {
	return &Line{Text: text, Path: path, LineNum: lineNum}
}

// Pos returns the line's position as "path:line".
func (l *Line) Pos() string {
	return fmt.Sprintf("%s:%d", l.Path, l.LineNum)
}

// Err formats msg as an error rooted at this line's position.
func (l *Line) Err(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %s", l.Pos(), fmt.Sprintf(format, args...))
}

// A LineSlice identifies a byte range within a Line, used both to extract
// the substring of interest and to format positional error messages. The
// byte indices are precomputed at construction time; source text is
// assumed to be ASCII, so byte index and character index coincide.
type LineSlice struct {
	line      *Line
	StartChar int
	EndChar   int
	startIdx  int
	endIdx    int
}

// newLineSlice builds a LineSlice over [startChar,endChar) of line's text.
// Either bound may exceed the line's length; it's clamped to the end.
func newLineSlice(line *Line, startChar, endChar int) *LineSlice {
	start := clampIndex(line.Text, startChar)
	end := clampIndex(line.Text, endChar)
	return &LineSlice{line: line, StartChar: startChar, EndChar: endChar, startIdx: start, endIdx: end}
}

func clampIndex(s string, charIdx int) int {
	if charIdx < 0 {
		return 0
	}
	if charIdx > len(s) {
		return len(s)
	}
	return charIdx
}

// Join returns a new slice spanning the lowest start and highest end of s
// and other, which must refer to the same Line.
func (s *LineSlice) Join(other *LineSlice) *LineSlice {
	start := s.StartChar
	if other.StartChar < start {
		start = other.StartChar
	}
	end := s.EndChar
	if other.EndChar > end {
		end = other.EndChar
	}
	return newLineSlice(s.line, start, end)
}

// WithEnd returns a copy of s with a new ending character position.
func (s *LineSlice) WithEnd(endChar int) *LineSlice {
	return newLineSlice(s.line, s.StartChar, endChar)
}

// Pos returns the slice's position as "path:line:col", where col is
// 1-based.
func (s *LineSlice) Pos() string {
	return fmt.Sprintf("%s:%d:%d", s.Path(), s.LineNum(), s.StartChar+1)
}

// Err formats msg as an error rooted at this slice's position.
func (s *LineSlice) Err(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %s", s.Pos(), fmt.Sprintf(format, args...))
}

// Path returns the path of the underlying line.
func (s *LineSlice) Path() string {
	return s.line.Path
}

// LineNum returns the line number of the underlying line.
func (s *LineSlice) LineNum() int {
	return s.line.LineNum
}

// LineText returns the complete text of the underlying line.
func (s *LineSlice) LineText() string {
	return s.line.Text
}

// Text returns the substring of the line covered by the slice.
func (s *LineSlice) Text() string {
	return s.line.Text[s.startIdx:s.endIdx]
}

// A Source produces Lines in order. Two producers read source text: one
// over an in-memory string, another over a file read entirely into memory
// up front. Macro expansion supplies a third (macroSource). All are
// consumed by a SrcStack.
type Source interface {
	// Next returns the next line, or nil when the source is exhausted.
	Next() *Line
}

// strSource is a Source backed by a string already split into lines.
type strSource struct {
	lines   []string
	path    string
	lineNum int
	i       int
}

func newStrSource(text, path string) *strSource {
	lines := strings.Split(text, "\n")
	// A trailing newline produces one spurious empty final element;
	// drop it so "foo\n" yields a single line, matching the original
	// source's behavior (str::lines()).
	if len(lines) > 0 && lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return &strSource{lines: lines, path: path, lineNum: 1}
}

func (s *strSource) Next() *Line {
	if s.i >= len(s.lines) {
		return nil
	}
	line := newLine(s.lines[s.i], s.path, s.lineNum)
	s.i++
	s.lineNum++
	return line
}

// FromString constructs a Source over an in-memory string.
func FromString(text, path string) Source {
	return newStrSource(text, path)
}

// FromFile reads the named file into memory and constructs a Source over
// its contents.
func FromFile(path string) (Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return newStrSource(string(data), path), nil
}

// A SrcStack owns a LIFO stack of Sources. Includes and macro expansions
// push a new Source; once it's exhausted the stack pops back to the
// caller's Source, so nested input is processed depth-first at the point
// of use. Line numbers and paths of nested sources are preserved
// unchanged.
type SrcStack struct {
	sources []Source
}

// NewSrcStack creates a stack with a single starting source.
func NewSrcStack(src Source) *SrcStack {
	return &SrcStack{sources: []Source{src}}
}

// Push adds a new source to the top of the stack.
func (s *SrcStack) Push(src Source) {
	s.sources = append(s.sources, src)
}

// Next pops exhausted sources and returns the first available line, or
// nil once the whole stack is exhausted.
func (s *SrcStack) Next() *Line {
	for len(s.sources) > 0 {
		top := s.sources[len(s.sources)-1]
		if line := top.Next(); line != nil {
			return line
		}
		s.sources = s.sources[:len(s.sources)-1]
	}
	return nil
}
