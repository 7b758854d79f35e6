// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	cli "github.com/platinasystems/pmic/cmd/max8997"
	pmic "github.com/platinasystems/pmic/max8997"
)

func TestCommands(t *testing.T) {
	for _, name := range []string{"max8997", "max8997d"} {
		if _, found := Goes.ByName[name]; !found {
			t.Error(name, "not found")
		}
	}
	buf := new(bytes.Buffer)
	Goes.Stdout = buf
	defer func() { Goes.Stdout = nil }()
	if err := Goes.Main("goes-pmic", "apropos"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "max8997d") {
		t.Errorf("wrong: %q", buf.String())
	}
}

func TestMachineTable(t *testing.T) {
	pmicInit()
	p := pmic.Machine
	p.Simulate = true
	dev, err := p.Open(false)
	if err != nil {
		t.Fatal(err)
	}
	if idx := dev.SharedIndex(); idx != 1 {
		t.Error("wrong index:", idx)
	}
	if uV, _ := dev.GetVoltage(pmic.Buck1); uV != 1200000 {
		t.Error("wrong buck1:", uV)
	}
	buf := new(bytes.Buffer)
	err = cli.Run(buf, false, dev, "set", "buck1", "1.1V")
	if err != nil {
		t.Fatal(err)
	}
	if idx := dev.SharedIndex(); idx != 3 {
		t.Error("wrong index:", idx)
	}
	// buck1 reaches 1 V only where buck2 drops to 1 V too
	err = cli.Run(buf, false, dev, "set", "buck1", "1V")
	if !errors.Is(err, pmic.ErrSideEffectNotAllowed) {
		t.Error("wrong:", err)
	}
	if uV, _ := dev.GetVoltage(pmic.Buck2); uV != 1100000 {
		t.Error("wrong buck2:", uV)
	}
}
