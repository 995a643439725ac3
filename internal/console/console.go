// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package console implements a line-oriented REPL for the pasm65
// assembler, for fast iteration without re-invoking the binary on every
// edit: 'asm' a file, then inspect its symbols and debug string.
package console

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/cmd"
	"github.com/beevik/pasm65/asm"
	"github.com/beevik/prefixtree/v2"
)

// A Console runs an interactive command loop over an assembler.
type Console struct {
	input       *bufio.Scanner
	output      *bufio.Writer
	interactive bool
	lastCmd     *cmd.Selection
	settings    *settings
	last        *asm.AsmInfo
	symTree     *prefixtree.Tree[*asm.Symbol]
}

// New creates a Console with no prior assembly loaded.
func New() *Console {
	return &Console{settings: newSettings()}
}

// Run reads commands from r and writes responses to w, prompting for
// input when interactive is true. It returns when the input is
// exhausted or a 'quit' command is processed.
func (c *Console) Run(r io.Reader, w io.Writer, interactive bool) {
	c.input = bufio.NewScanner(r)
	c.output = bufio.NewWriter(w)
	c.interactive = interactive
	defer c.output.Flush()

	for {
		c.prompt()

		line, ok := c.getLine()
		if !ok {
			return
		}

		if err := c.processCommand(line); err != nil {
			if err == errQuit {
				return
			}
			c.printf("ERROR: %v\n", err)
		}
	}
}

var errQuit = fmt.Errorf("quit")

func (c *Console) prompt() {
	if c.interactive {
		c.print("* ")
		c.output.Flush()
	}
}

func (c *Console) getLine() (string, bool) {
	if !c.input.Scan() {
		return "", false
	}
	return strings.TrimSpace(c.input.Text()), true
}

func (c *Console) processCommand(line string) error {
	var sel cmd.Selection
	if line != "" {
		var err error
		sel, err = cmds.Lookup(line)
		switch {
		case err == cmd.ErrNotFound:
			c.println("Command not found.")
			return nil
		case err == cmd.ErrAmbiguous:
			c.println("Command is ambiguous.")
			return nil
		case err != nil:
			c.printf("%v\n", err)
			return nil
		}
	} else if c.lastCmd != nil {
		sel = *c.lastCmd
	}

	if sel.Command == nil {
		return nil
	}
	if sel.Command.Data == nil && sel.Command.Subtree != nil {
		c.displayCommands(sel.Command.Subtree)
		return nil
	}

	c.lastCmd = &sel
	handler := sel.Command.Data.(func(*Console, cmd.Selection) error)
	return handler(c, sel)
}

func (c *Console) print(s string)                            { fmt.Fprint(c.output, s) }
func (c *Console) println(s string)                           { fmt.Fprintln(c.output, s) }
func (c *Console) printf(format string, args ...interface{}) { fmt.Fprintf(c.output, format, args...) }

func (c *Console) displayCommands(t *cmd.Tree) {
	for _, command := range t.Commands {
		if command.Brief != "" {
			c.printf("    %-16s %s\n", command.Name, command.Brief)
		}
	}
}

func (c *Console) cmdAsm(sel cmd.Selection) error {
	if len(sel.Args) != 1 {
		c.println("Usage: asm <file>")
		return nil
	}
	src, err := asm.FromFile(sel.Args[0])
	if err != nil {
		c.printf("%v\n", err)
		return nil
	}
	var info *asm.AsmInfo
	var aerr error
	if c.settings.Verbose {
		info, aerr = asm.AssembleVerbose(src, c.settings.Listing, c.output)
	} else {
		info, aerr = asm.Assemble(src, c.settings.Listing)
	}
	if aerr != nil {
		c.printf("%v\n", aerr)
		return nil
	}
	c.last = info
	c.buildSymTree()
	c.printf("assembled %d bytes\n", len(c.last.Code))
	if c.settings.Listing {
		c.print(c.last.Listing)
	}
	return nil
}

func (c *Console) buildSymTree() {
	c.symTree = prefixtree.New[*asm.Symbol]()
	if c.last == nil {
		return
	}
	for name, sym := range c.last.Symbols {
		c.symTree.Add(strings.ToLower(name), sym)
	}
}

func (c *Console) cmdSym(sel cmd.Selection) error {
	if c.last == nil {
		c.println("No assembly loaded. Use 'asm <file>' first.")
		return nil
	}
	if len(sel.Args) == 0 {
		c.print(c.last.DumpSymtab())
		return nil
	}

	sym, err := c.symTree.FindValue(strings.ToLower(sel.Args[0]))
	if err != nil {
		c.printf("%v\n", err)
		return nil
	}
	c.println(sym.String())
	return nil
}

func (c *Console) cmdDbg(sel cmd.Selection) error {
	if c.last == nil {
		c.println("No assembly loaded. Use 'asm <file>' first.")
		return nil
	}
	c.print(c.last.Debug)
	return nil
}

func (c *Console) cmdSet(sel cmd.Selection) error {
	if len(sel.Args) == 0 {
		return c.cmdShow(sel)
	}
	if len(sel.Args) != 2 {
		c.println("Usage: set <option> <value>")
		return nil
	}
	if err := c.settings.Set(sel.Args[0], sel.Args[1]); err != nil {
		c.printf("%v\n", err)
	}
	return nil
}

func (c *Console) cmdShow(sel cmd.Selection) error {
	c.settings.Display(c.output)
	return nil
}

func (c *Console) cmdHelp(sel cmd.Selection) error {
	if len(sel.Args) == 0 {
		c.displayCommands(cmds)
		return nil
	}
	s, err := cmds.Lookup(strings.Join(sel.Args, " "))
	if err != nil {
		c.printf("%v\n", err)
		return nil
	}
	if s.Command.Subtree != nil {
		c.displayCommands(s.Command.Subtree)
		return nil
	}
	if s.Command.Usage != "" {
		c.printf("Usage: %s\n", s.Command.Usage)
	}
	if s.Command.Description != "" {
		c.printf("%s\n", s.Command.Description)
	}
	return nil
}

func (c *Console) cmdQuit(sel cmd.Selection) error {
	return errQuit
}
