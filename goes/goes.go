// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package goes runs the machine's commands by name.
package goes

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/platinasystems/log"
	"github.com/platinasystems/pmic/cmd"
	"github.com/platinasystems/pmic/lang"
)

type Goes struct {
	NAME    string
	APROPOS lang.Alt
	USAGE   string
	MAN     lang.Alt

	ByName map[string]cmd.Cmd

	// Stdout defaults to os.Stdout
	Stdout io.Writer
}

type goeser interface {
	Goes(*Goes)
}

func (g *Goes) String() string { return g.NAME }

func (g *Goes) out() io.Writer {
	if g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

// Plot commands on the map.
func (g *Goes) Plot(cmds ...cmd.Cmd) {
	if g.ByName == nil {
		g.ByName = make(map[string]cmd.Cmd)
	}
	for _, v := range cmds {
		name := v.String()
		if _, found := g.ByName[name]; found {
			panic(fmt.Errorf("%s: duplicate", name))
		}
		if method, found := v.(goeser); found {
			method.Goes(g)
		}
		g.ByName[name] = v
	}
}

// Names returns the sorted names of the commands that aren't hidden.
func (g *Goes) Names() []string {
	names := make([]string, 0, len(g.ByName))
	for name, v := range g.ByName {
		if !cmd.WhatKind(v).IsHidden() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Main runs the args[0] command. The program name may precede the command
// and helper flags may follow it, e.g.
//
//	goes-pmic max8997 -usage
func (g *Goes) Main(args ...string) error {
	if len(args) > 0 && !g.isCommand(args[0]) {
		args = args[1:]
	}
	if len(args) == 0 {
		return fmt.Errorf("%s", Usage(g))
	}
	cmd.Swap(args)
	name := args[0]
	args = args[1:]
	switch name {
	case "apropos":
		return g.apropos(args...)
	case "help":
		return g.help(args...)
	case "man":
		return g.man(args...)
	case "usage":
		return g.usage(args...)
	}
	v, found := g.ByName[name]
	if !found {
		return fmt.Errorf("%s: command not found", name)
	}
	cmd.Init(name)
	if cmd.WhatKind(v).IsDaemon() {
		if closer, ok := v.(io.Closer); ok {
			go g.wait(name, closer)
		}
	}
	return v.Main(args...)
}

func (g *Goes) isCommand(name string) bool {
	if _, found := g.ByName[name]; found {
		return true
	}
	_, found := cmd.Helpers[name]
	return found
}

// Close every command that holds resources.
func (g *Goes) Close() error {
	var err error
	for _, v := range g.ByName {
		if closer, ok := v.(io.Closer); ok {
			if t := closer.Close(); err == nil {
				err = t
			}
		}
	}
	return err
}

func (g *Goes) wait(name string, closer io.Closer) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
	sig := <-ch
	signal.Stop(ch)
	log.Print("daemon", "info", name, ": ", sig)
	closer.Close()
}
