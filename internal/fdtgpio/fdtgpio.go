// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package fdtgpio names the machine's GPIO pins from its flattened device
// tree and drives the DVS selector lines through them.
package fdtgpio

import (
	"fmt"
	"io/ioutil"
	"strconv"
	"strings"

	"github.com/platinasystems/fdt"
	"github.com/platinasystems/gpio"
	"github.com/platinasystems/log"
)

// GatherAliases maps each gpio alias to its controller node name.
func GatherAliases(n *fdt.Node) {
	for p, pn := range n.Properties {
		if strings.Contains(p, "gpio") {
			val := strings.Split(string(pn), "\x00")
			v := strings.Split(val[0], "/")
			gpio.Aliases[p] = v[len(v)-1]
		}
	}
}

// GatherPins adds the described pins of a gpio controller to gpio.Pins.
func GatherPins(n *fdt.Node, name string, value string) {
	for bank, alias := range gpio.Aliases {
		if alias != n.Name {
			continue
		}
		for _, c := range n.Children {
			var pn []string
			var mode string
			for p := range c.Properties {
				switch p {
				case "gpio-pin-desc":
					pn = strings.Split(c.Name, "@")
				case "output-high", "output-low", "input":
					mode = p
				}
			}
			if mode == "" || len(pn) != 2 {
				continue
			}
			i, err := strconv.Atoi(pn[1])
			if err != nil {
				continue
			}
			gpio.Pins[pn[0]] = gpio.GpioPinMode[mode] |
				gpio.GpioBankToBase[bank] |
				gpio.Pin(i)
		}
	}
}

// Load rebuilds gpio.Pins from the given dtb and sets the pin directions.
func Load(file string) error {
	b, err := ioutil.ReadFile(file)
	if err != nil {
		return fmt.Errorf("%s: %v", file, err)
	}

	gpio.Aliases = make(gpio.GpioAliasMap)
	gpio.Pins = make(gpio.PinMap)

	t := &fdt.Tree{Debug: false, IsLittleEndian: false}
	t.Parse(b)

	t.MatchNode("aliases", GatherAliases)
	t.EachProperty("gpio-controller", "", GatherPins)

	for name, p := range gpio.Pins {
		if err := p.SetDirection(); err != nil {
			// report and carry on with the other pins
			log.Print("daemon", "err", name, ": ", err)
		}
	}
	return nil
}
