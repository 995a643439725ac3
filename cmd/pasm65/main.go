// Copyright 2014-2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/beevik/pasm65/asm"
	"github.com/beevik/pasm65/internal/console"
)

var (
	output      = flag.String("o", "", "binary output path")
	symfile     = flag.String("s", "", "symbol-table dump path")
	dbgfile     = flag.String("d", "", "debug-string dump path")
	listfile    = flag.String("l", "", "listing path")
	verbose     = flag.Bool("v", false, "verbose pass trace to stderr")
	interactive = flag.Bool("i", false, "start the interactive console")
)

func init() {
	flag.StringVar(output, "output", "", "binary output path")
	flag.StringVar(symfile, "symfile", "", "symbol-table dump path")
	flag.StringVar(dbgfile, "dbgfile", "", "debug-string dump path")
	flag.StringVar(listfile, "listfile", "", "listing path")
	flag.BoolVar(verbose, "verbose", false, "verbose pass trace to stderr")

	flag.CommandLine.Usage = func() {
		fmt.Println("Usage: pasm65 [options] <source>\nOptions:")
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()

	if *interactive {
		console.New().Run(os.Stdin, os.Stdout, true)
		return
	}

	args := flag.Args()
	if len(args) != 1 {
		flag.CommandLine.Usage()
		os.Exit(1)
	}

	if err := run(args[0]); err != nil {
		exitOnError(err)
	}
}

func run(source string) error {
	src, err := asm.FromFile(source)
	if err != nil {
		return err
	}

	wantListing := *listfile != ""

	var info *asm.AsmInfo
	if *verbose {
		info, err = asm.AssembleVerbose(src, wantListing, os.Stderr)
	} else {
		info, err = asm.Assemble(src, wantListing)
	}
	if err != nil {
		return err
	}

	if *output != "" {
		if err := os.WriteFile(*output, info.Code, 0644); err != nil {
			return err
		}
	}
	if *symfile != "" {
		if err := os.WriteFile(*symfile, []byte(info.DumpSymtab()), 0644); err != nil {
			return err
		}
	}
	if *dbgfile != "" {
		if err := os.WriteFile(*dbgfile, []byte(info.Debug), 0644); err != nil {
			return err
		}
	}
	if *listfile != "" {
		if err := os.WriteFile(*listfile, []byte(info.Listing), 0644); err != nil {
			return err
		}
	}

	return nil
}

func exitOnError(err error) {
	fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
	os.Exit(1)
}
