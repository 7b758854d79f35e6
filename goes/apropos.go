// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package goes

import (
	"fmt"

	"github.com/platinasystems/pmic/lang"
)

func (g *Goes) Apropos() lang.Alt {
	apropos := g.APROPOS
	if apropos == nil {
		apropos = lang.Alt{
			lang.EnUS: "regulator controller",
		}
	}
	return apropos
}

func (g *Goes) apropos(args ...string) error {
	w := g.out()
	if len(args) == 0 {
		args = g.Names()
	}
	for i, name := range args {
		v, found := g.ByName[name]
		if !found {
			if i == 0 {
				return fmt.Errorf("%s: not found", name)
			}
			continue
		}
		if len(name) < 16 {
			fmt.Fprint(w, name, "                "[:16-len(name)])
		} else {
			fmt.Fprint(w, name, "\n\t\t")
		}
		fmt.Fprintln(w, v.Apropos())
	}
	return nil
}
