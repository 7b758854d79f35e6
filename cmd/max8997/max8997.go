// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package max8997 is the command line interface to the PMIC's outputs.
package max8997

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/platinasystems/flags"
	"github.com/platinasystems/parms"
	"github.com/platinasystems/pmic/lang"
	pmic "github.com/platinasystems/pmic/max8997"
	"periph.io/x/conn/v3/physic"
)

type Command struct{}

func (*Command) String() string { return "max8997" }

func (*Command) Usage() string {
	return `max8997 [-bus N] [-addr A] [-config FILE] [-sim] [-f] show
	max8997 [OPTION]... get OUTPUT
	max8997 [OPTION]... set OUTPUT MIN [MAX]
	max8997 [OPTION]... enable|disable OUTPUT
	max8997 [OPTION]... index`
}

func (*Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "show and set the PMIC regulator outputs",
	}
}

func (*Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Voltages are given in uV or with a unit, e.g. 1.2V or 1200mV;
	charger currents in uA or with a unit, e.g. 500mA. The lowest
	setting within [MIN, MAX] is applied; MAX defaults to MIN.
	ESAFEOUT1 and ESAFEOUT2 only take 3.3V, 4.85V, 4.9V or 4.95V.

	Setting BUCK1, BUCK2 or BUCK5 may select another DVS index. That's
	refused if it would move another of these bucks unless -f is given.

OPTIONS
	-bus N	i2c bus of the PMIC
	-addr A	i2c address of the PMIC
	-config FILE
		yaml machine description
	-sim	use a simulated register file
	-f	allow DVS side effects`,
	}
}

func (c *Command) Main(args ...string) error {
	flag, args := flags.New(args, "-f", "-sim")
	parm, args := parms.New(args, "-bus", "-addr", "-config")

	if len(args) == 0 {
		return fmt.Errorf("usage: %s", c.Usage())
	}

	p := pmic.Machine
	if s := parm.ByName["-config"]; len(s) > 0 {
		if err := p.Load(s); err != nil {
			return err
		}
	}
	for name, v := range map[string]*int{
		"-bus":  &p.I2c.Bus,
		"-addr": &p.I2c.Addr,
	} {
		if s := parm.ByName[name]; len(s) > 0 {
			n, err := strconv.ParseInt(s, 0, 0)
			if err != nil {
				return fmt.Errorf("%s: %v", name, err)
			}
			*v = int(n)
		}
	}
	if flag.ByName["-sim"] {
		p.Simulate = true
	}

	dev, err := p.Open(flag.ByName["-f"])
	if err != nil {
		return err
	}
	return Run(os.Stdout, isatty.IsTerminal(os.Stdout.Fd()), dev, args...)
}

// Run executes one subcommand on dev. The show header is only printed to a
// terminal.
func Run(w io.Writer, tty bool, dev *pmic.Device, args ...string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing subcommand")
	}
	op, args := args[0], args[1:]
	switch op {
	case "show":
		return show(w, tty, dev)
	case "index":
		fmt.Fprintln(w, dev.SharedIndex())
		return nil
	}
	if len(args) == 0 {
		return fmt.Errorf("%s: missing OUTPUT", op)
	}
	id, err := Lookup(args[0])
	if err != nil {
		return err
	}
	args = args[1:]
	switch op {
	case "get":
		s, err := get(dev, id)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, s)
	case "set":
		if len(args) < 1 || len(args) > 2 {
			return fmt.Errorf("set %v: MIN [MAX]", id)
		}
		lo, hi, err := ParseWindow(id, strings.Join(args, "-"))
		if err != nil {
			return err
		}
		if err = Set(dev, id, lo, hi); err != nil {
			return err
		}
		s, err := get(dev, id)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, id, s)
	case "enable":
		return dev.Enable(id)
	case "disable":
		return dev.Disable(id)
	default:
		return fmt.Errorf("%s: unknown", op)
	}
	return nil
}

func Lookup(name string) (pmic.ID, error) {
	id, found := pmic.ByName[strings.ToLower(name)]
	if !found {
		return 0, errors.Wrap(pmic.ErrUnknownOutput, name)
	}
	return id, nil
}

// Set applies the voltage or, for the charger outputs, the current window.
func Set(dev *pmic.Device, id pmic.ID, lo, hi int) (err error) {
	if pmic.Outputs[id].Current {
		_, err = dev.SetCurrentLimit(id, lo, hi)
	} else {
		_, err = dev.SetVoltage(id, lo, hi)
	}
	return
}

// Get returns the output's uV or uA.
func Get(dev *pmic.Device, id pmic.ID) (int, error) {
	if pmic.Outputs[id].Current {
		return dev.GetCurrentLimit(id)
	}
	return dev.GetVoltage(id)
}

func get(dev *pmic.Device, id pmic.ID) (string, error) {
	v, err := Get(dev, id)
	if err != nil {
		return "", err
	}
	return Format(id, v), nil
}

// Format renders micro-units with the output's unit.
func Format(id pmic.ID, v int) string {
	if pmic.Outputs[id].Current {
		return (physic.ElectricCurrent(v) * physic.MicroAmpere).String()
	}
	return (physic.ElectricPotential(v) * physic.MicroVolt).String()
}

// ParseMicro accepts a plain number of micro-units or a value with unit.
func ParseMicro(id pmic.ID, s string) (int, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	if pmic.Outputs[id].Current {
		var c physic.ElectricCurrent
		if err := c.Set(s); err != nil {
			return 0, err
		}
		return int(c / physic.MicroAmpere), nil
	}
	var v physic.ElectricPotential
	if err := v.Set(s); err != nil {
		return 0, err
	}
	return int(v / physic.MicroVolt), nil
}

// ParseWindow parses "V" or "MIN-MAX".
func ParseWindow(id pmic.ID, s string) (lo, hi int, err error) {
	f := strings.SplitN(s, "-", 2)
	if lo, err = ParseMicro(id, f[0]); err != nil {
		return
	}
	hi = lo
	if len(f) == 2 {
		hi, err = ParseMicro(id, f[1])
	}
	if err == nil && hi < lo {
		err = fmt.Errorf("%s: max below min", s)
	}
	return
}

func show(w io.Writer, tty bool, dev *pmic.Device) error {
	if tty {
		fmt.Fprintf(w, "%-16s%-12s%s\n", "OUTPUT", "VALUE", "STATE")
	}
	for _, id := range pmic.IDs() {
		value, state := "-", "-"
		if pmic.Outputs[id].Settable() {
			s, err := get(dev, id)
			if err != nil {
				return err
			}
			value = s
		}
		on, err := dev.IsEnabled(id)
		switch {
		case err == nil && on:
			state = "on"
		case err == nil:
			state = "off"
		case !errors.Is(err, pmic.ErrNoEnable):
			return err
		}
		fmt.Fprintf(w, "%-16s%-12s%s\n", id, value, state)
	}
	return nil
}
