// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package main

import (
	"github.com/platinasystems/pmic/cmd"
	"github.com/platinasystems/pmic/cmd/max8997"
	"github.com/platinasystems/pmic/cmd/max8997d"
	"github.com/platinasystems/pmic/goes"
	"github.com/platinasystems/pmic/lang"
)

var Goes = &goes.Goes{
	NAME: "goes-pmic",
	APROPOS: lang.Alt{
		lang.EnUS: "PMIC regulator controller",
	},
}

func init() {
	Goes.Plot(
		&max8997.Command{},
		&max8997d.Command{},
	)
	cmd.Initters = map[string]func(){
		"max8997":  pmicInit,
		"max8997d": pmicInit,
	}
}
