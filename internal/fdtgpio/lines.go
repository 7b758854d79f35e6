// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package fdtgpio

import (
	"fmt"

	"github.com/platinasystems/gpio"
	"github.com/platinasystems/log"
)

type Pin interface {
	SetValue(bool) error
	Value() (bool, error)
}

// Lines are the three DVS selector pins, most significant index bit first.
type Lines struct {
	Names [3]string

	// Lookup defaults to gpio.Pins
	Lookup func(name string) (Pin, bool)
}

func lookup(name string) (Pin, bool) {
	p, found := gpio.Pins[name]
	return p, found
}

func (l *Lines) pins() ([3]Pin, error) {
	var pins [3]Pin
	look := l.Lookup
	if look == nil {
		look = lookup
	}
	for i, name := range l.Names {
		p, found := look(name)
		if !found {
			return pins, fmt.Errorf("%s: pin not found", name)
		}
		pins[i] = p
	}
	return pins, nil
}

// SetIndex drives idx onto the lines.
func (l *Lines) SetIndex(idx int) error {
	if idx < 0 || idx > 7 {
		return fmt.Errorf("dvs index %d: out of range", idx)
	}
	pins, err := l.pins()
	if err != nil {
		return err
	}
	var was [3]bool
	for i, p := range pins {
		if was[i], err = p.Value(); err != nil {
			return fmt.Errorf("%s: %v", l.Names[i], err)
		}
	}
	for i, p := range pins {
		v := (idx>>uint(2-i))&1 == 1
		if err = p.SetValue(v); err != nil {
			l.restore(pins[:i], was[:i])
			return fmt.Errorf("%s: %v", l.Names[i], err)
		}
	}
	return nil
}

// restore puts back the pins written before a failure so the lines still
// select the previous index.
func (l *Lines) restore(pins []Pin, was []bool) {
	for i, p := range pins {
		if err := p.SetValue(was[i]); err != nil {
			log.Print("daemon", "err", l.Names[i], ": restore: ", err)
		}
	}
}

// Index reads the lines back.
func (l *Lines) Index() (int, error) {
	pins, err := l.pins()
	if err != nil {
		return 0, err
	}
	idx := 0
	for i, p := range pins {
		v, err := p.Value()
		if err != nil {
			return 0, fmt.Errorf("%s: %v", l.Names[i], err)
		}
		if v {
			idx |= 1 << uint(2-i)
		}
	}
	return idx, nil
}
