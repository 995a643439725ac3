// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package console

import "github.com/beevik/cmd"

var cmds *cmd.Tree

func init() {
	root := cmd.NewTree("pasm65")

	root.AddCommand(cmd.Command{
		Name:  "asm",
		Brief: "Assemble a file",
		Description: "Assemble the named source file and report the" +
			" resulting byte count. The result becomes the target of" +
			" 'sym' and 'dbg' until the next 'asm'.",
		Usage: "asm <file>",
		Data:  (*Console).cmdAsm,
	})
	root.AddCommand(cmd.Command{
		Name:  "sym",
		Brief: "List symbols from the last assembly",
		Description: "List every symbol in the last assembly's symbol table." +
			" If a prefix is given, only the one symbol it unambiguously" +
			" selects is shown; an ambiguous prefix is an error.",
		Usage: "sym [<prefix>]",
		Data:  (*Console).cmdSym,
	})
	root.AddCommand(cmd.Command{
		Name:        "dbg",
		Brief:       "Show the last assembly's debug string",
		Description: "Print the accumulated '.dbg' output of the last assembly.",
		Usage:       "dbg",
		Data:        (*Console).cmdDbg,
	})
	root.AddCommand(cmd.Command{
		Name:  "set",
		Brief: "Set a console option",
		Description: "Set the value of a console option. With no" +
			" arguments, behaves like 'show'.",
		Usage: "set [<option> <value>]",
		Data:  (*Console).cmdSet,
	})
	root.AddCommand(cmd.Command{
		Name:        "show",
		Brief:       "Show console options",
		Description: "Display the current value of every console option.",
		Usage:       "show",
		Data:        (*Console).cmdShow,
	})
	root.AddCommand(cmd.Command{
		Name:        "help",
		Brief:       "Display help for a command",
		Description: "Display help for a command, or list all commands.",
		Usage:       "help [<command>]",
		Data:        (*Console).cmdHelp,
	})
	root.AddCommand(cmd.Command{
		Name:        "quit",
		Brief:       "Quit the console",
		Description: "Quit the console.",
		Usage:       "quit",
		Data:        (*Console).cmdQuit,
	})

	root.AddShortcut("a", "asm")
	root.AddShortcut("s", "sym")
	root.AddShortcut("d", "dbg")
	root.AddShortcut("?", "help")

	cmds = root
}
