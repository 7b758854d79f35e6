// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package goes

import (
	"fmt"
	"strings"

	"github.com/platinasystems/pmic/lang"
)

type Usager interface {
	Usage() string
}

func Usage(v Usager) string {
	return fmt.Sprint("usage:\t", strings.TrimSpace(v.Usage()))
}

func (g *Goes) Usage() string {
	usage := g.USAGE
	if len(usage) == 0 {
		usage = `
	goes COMMAND [ ARGS ]...
	goes COMMAND -[-]HELPER [ ARGS ]...
	goes HELPER [ COMMAND ]
	HELPER := { apropos | help | man | usage }`
	}
	return usage
}

func (g *Goes) usage(args ...string) error {
	var u Usager = g
	if len(args) > 0 {
		v, found := g.ByName[args[0]]
		if !found {
			return fmt.Errorf("%s: not found", args[0])
		}
		u = v
	}
	fmt.Fprintln(g.out(), Usage(u))
	return nil
}

func (g *Goes) help(args ...string) error {
	return g.usage(args...)
}

type maner interface {
	Man() lang.Alt
}

func (g *Goes) Man() lang.Alt {
	man := g.MAN
	if man == nil {
		man = lang.Alt{
			lang.EnUS: `
SEE ALSO
	goes apropos [COMMAND], goes man COMMAND`,
		}
	}
	return man
}

func (g *Goes) man(args ...string) error {
	var v interface{} = g
	name := g.NAME
	if len(args) > 0 {
		c, found := g.ByName[args[0]]
		if !found {
			return fmt.Errorf("%s: not found", args[0])
		}
		v, name = c, args[0]
	}
	w := g.out()
	fmt.Fprint(w, "NAME\n\t", name)
	if a, ok := v.(interface{ Apropos() lang.Alt }); ok {
		fmt.Fprint(w, " - ", a.Apropos())
	}
	fmt.Fprint(w, "\n\nSYNOPSIS\n\t", strings.TrimSpace(v.(Usager).Usage()),
		"\n")
	if m, ok := v.(maner); ok {
		fmt.Fprintln(w, m.Man())
	}
	return nil
}
