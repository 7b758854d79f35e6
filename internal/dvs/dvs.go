// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package dvs arbitrates the shared dynamic voltage scaling index of
// regulators whose output code is selected by the same GPIO lines.
//
// Each member of a Group has a Row of codes, one per index value. Changing
// the group Index moves every driven member to its code at the new index, so
// Select looks for the index that gives the requesting member its code while
// disturbing the others the least.
package dvs

import (
	"errors"
	"fmt"
	"math"
)

// Entries is the number of index values selectable by the three DVS lines.
const Entries = 8

var (
	ErrNoMatchingIndex = errors.New("dvs: no index matches code")
	ErrSealed          = errors.New("dvs: table is sealed")
	ErrNoMember        = errors.New("dvs: no such member")
	ErrIndex           = errors.New("dvs: index out of range")
)

type Row [Entries]uint8

type Slot int

type Member struct {
	Name string
	// Driven is false for members configured in the table but not wired to
	// the DVS lines; they don't move with the index.
	Driven bool
	Codes  Row
}

type Group struct {
	Members map[Slot]*Member
	Index   int

	sealed bool
}

// Choice is the index Select settled on and the summed code deviation it
// imposes on the other driven members.
type Choice struct {
	Index     int
	Deviation int
}

func New(index int) (*Group, error) {
	if index < 0 || index >= Entries {
		return nil, fmt.Errorf("%d: %w", index, ErrIndex)
	}
	return &Group{
		Members: make(map[Slot]*Member),
		Index:   index,
	}, nil
}

// SetRow installs the member's codes. It's only available until Seal.
func (g *Group) SetRow(slot Slot, name string, driven bool, codes Row) error {
	if g.sealed {
		return ErrSealed
	}
	g.Members[slot] = &Member{
		Name:   name,
		Driven: driven,
		Codes:  codes,
	}
	return nil
}

func (g *Group) Seal()          { g.sealed = true }
func (g *Group) IsSealed() bool { return g.sealed }

// Code returns the member's code at the current index.
func (g *Group) Code(slot Slot) (uint8, error) {
	m, found := g.Members[slot]
	if !found {
		return 0, ErrNoMember
	}
	return m.Codes[g.Index], nil
}

// Commit makes idx the live index. Call it only after the lines were driven.
func (g *Group) Commit(idx int) error {
	if idx < 0 || idx >= Entries {
		return fmt.Errorf("%d: %w", idx, ErrIndex)
	}
	g.Index = idx
	return nil
}

// Select returns the lowest index that presents code on the target member
// with the least summed deviation of the other driven members from their
// codes at the current index. An index with no deviation is returned as
// soon as it is found. Select doesn't change the group.
func Select(g *Group, target Slot, code uint8) (Choice, error) {
	t, found := g.Members[target]
	if !found {
		return Choice{}, ErrNoMember
	}
	best := Choice{Index: -1, Deviation: math.MaxInt32}
	for i := 0; i < Entries; i++ {
		if t.Codes[i] != code {
			continue
		}
		dev := 0
		for slot, m := range g.Members {
			if slot == target || !m.Driven {
				continue
			}
			d := int(m.Codes[i]) - int(m.Codes[g.Index])
			if d < 0 {
				d = -d
			}
			dev += d
		}
		if dev == 0 {
			return Choice{Index: i}, nil
		}
		if dev < best.Deviation {
			best = Choice{Index: i, Deviation: dev}
		}
	}
	if best.Index < 0 {
		return Choice{}, fmt.Errorf("%s code %d: %w",
			t.Name, code, ErrNoMatchingIndex)
	}
	return best, nil
}
