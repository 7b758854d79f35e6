// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package vmap quantizes a requested voltage (or current) window into the
// code of a linear regulator map.
//
// A Map is described in milli-units (mV or mA) as Min + Step*code, bounded by
// Max and by the Bits wide code field. Requests are in micro-units (uV or uA),
// the unit of the regulator API, so no precision is lost to truncation.
package vmap

import (
	"errors"
	"fmt"
)

var (
	ErrOutOfRange      = errors.New("vmap: request outside representable range")
	ErrAboveUpperBound = errors.New("vmap: nearest code exceeds requested maximum")
	ErrIndexOutOfBits  = errors.New("vmap: code exceeds field width")
	ErrInvalid         = errors.New("vmap: invalid map")
)

const Micro = 1000

type Map struct {
	Min, Max, Step int
	Bits           uint
}

func (m Map) String() string {
	return fmt.Sprintf("%d..%d/%d[%d]", m.Min, m.Max, m.Step, m.Bits)
}

// Validate checks the configuration time invariants.
func (m Map) Validate() error {
	if m.Step <= 0 || m.Min > m.Max || m.Bits == 0 || m.Bits > 8 {
		return fmt.Errorf("%v: %w", m, ErrInvalid)
	}
	return nil
}

func (m Map) micro(code int) int { return (m.Min + m.Step*code) * Micro }

// Codes returns the number of valid codes, those at or below Max that fit
// the field.
func (m Map) Codes() int {
	n := (m.Max-m.Min)/m.Step + 1
	if lim := 1 << m.Bits; n > lim {
		n = lim
	}
	return n
}

// Value returns the micro-unit value of the given code.
func (m Map) Value(code int) (int, error) {
	if code < 0 || code >= 1<<m.Bits {
		return 0, ErrIndexOutOfBits
	}
	if v := m.micro(code); v <= m.Max*Micro {
		return v, nil
	}
	return 0, ErrAboveUpperBound
}

// Resolve returns the smallest code whose value lies within [min, max]
// micro-units.
func Resolve(m Map, min, max int) (int, error) {
	if max < m.Min*Micro || min > m.Max*Micro {
		return 0, ErrOutOfRange
	}
	i := 0
	for m.micro(i) < min && m.micro(i) < m.Max*Micro {
		i++
	}
	if v := m.micro(i); v > max || v > m.Max*Micro {
		return 0, ErrAboveUpperBound
	}
	if i >= 1<<m.Bits {
		return 0, ErrIndexOutOfBits
	}
	return i, nil
}

// Table lists the micro-unit value of each code of a field that isn't
// linear.
type Table []int

func (t Table) Value(code int) (int, error) {
	if code < 0 || code >= len(t) {
		return 0, ErrIndexOutOfBits
	}
	return t[code], nil
}

// Resolve returns the code of the lowest value within [min, max].
func (t Table) Resolve(min, max int) (int, error) {
	code := -1
	for i, v := range t {
		if v < min || v > max {
			continue
		}
		if code < 0 || v < t[code] {
			code = i
		}
	}
	if code < 0 {
		return 0, ErrOutOfRange
	}
	return code, nil
}
