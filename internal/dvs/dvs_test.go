// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package dvs

import (
	"errors"
	"testing"
)

const (
	buck1 Slot = iota
	buck2
	buck5
)

func group(t *testing.T, index int, rows ...Row) *Group {
	g, err := New(index)
	if err != nil {
		t.Fatal(err)
	}
	names := []string{"buck1", "buck2", "buck5"}
	for i, r := range rows {
		if err = g.SetRow(Slot(i), names[i], true, r); err != nil {
			t.Fatal(err)
		}
	}
	g.Seal()
	return g
}

func TestSelectZeroDeviation(t *testing.T) {
	g := group(t, 0,
		Row{5, 5, 3, 3, 5, 5, 3, 3},
		Row{1, 2, 1, 2, 1, 2, 1, 2})
	c, err := Select(g, buck1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if c != (Choice{Index: 2, Deviation: 0}) {
		t.Error("wrong:", c)
	}
	if g.Index != 0 {
		t.Error("Select changed the index:", g.Index)
	}
}

func TestSelectPrefersLaterZero(t *testing.T) {
	// index 1 matches first but moves buck2; index 5 matches without
	g := group(t, 0,
		Row{4, 3, 4, 4, 4, 3, 4, 4},
		Row{7, 9, 7, 7, 7, 7, 7, 7})
	c, err := Select(g, buck1, 3)
	if err != nil {
		t.Fatal(err)
	}
	if c != (Choice{Index: 5}) {
		t.Error("wrong:", c)
	}
}

func TestSelectMinimal(t *testing.T) {
	g := group(t, 0,
		Row{0, 6, 0, 6, 0, 6, 0, 6},
		Row{10, 14, 10, 12, 10, 12, 10, 20},
		Row{20, 20, 20, 21, 20, 19, 20, 20})
	c, err := Select(g, buck1, 6)
	if err != nil {
		t.Fatal(err)
	}
	// candidates: 1 -> 4, 3 -> 3, 5 -> 3, 7 -> 10
	if c != (Choice{Index: 3, Deviation: 3}) {
		t.Error("wrong:", c)
	}
	for i := 0; i < Entries; i++ {
		if g.Members[buck1].Codes[i] != 6 {
			continue
		}
		dev := 0
		for _, s := range []Slot{buck2, buck5} {
			d := int(g.Members[s].Codes[i]) -
				int(g.Members[s].Codes[g.Index])
			if d < 0 {
				d = -d
			}
			dev += d
		}
		if c.Deviation > dev {
			t.Errorf("index %d has deviation %d < %d", i, dev,
				c.Deviation)
		}
	}
}

func TestSelectDeviationFromCurrentIndex(t *testing.T) {
	g := group(t, 3,
		Row{0, 6, 0, 0, 0, 6, 0, 6},
		Row{10, 14, 10, 12, 10, 12, 10, 20})
	c, err := Select(g, buck1, 6)
	if err != nil {
		t.Fatal(err)
	}
	if c != (Choice{Index: 5}) {
		t.Error("wrong:", c)
	}
}

func TestSelectNoMatch(t *testing.T) {
	g := group(t, 0,
		Row{5, 5, 3, 3, 5, 5, 3, 3},
		Row{1, 2, 1, 2, 1, 2, 1, 2})
	_, err := Select(g, buck1, 9)
	if !errors.Is(err, ErrNoMatchingIndex) {
		t.Error("wrong:", err)
	}
}

func TestSelectUndrivenMembersIgnored(t *testing.T) {
	g, _ := New(0)
	g.SetRow(buck1, "buck1", true, Row{1, 2, 3, 4, 4, 3, 2, 1})
	g.SetRow(buck2, "buck2", false, Row{9, 0, 9, 0, 9, 0, 9, 0})
	g.SetRow(buck5, "buck5", false, Row{0, 1, 2, 3, 4, 5, 6, 7})
	g.Seal()
	c, err := Select(g, buck1, 4)
	if err != nil {
		t.Fatal(err)
	}
	// first matching index wins since nothing else is on the lines
	if c != (Choice{Index: 3}) {
		t.Error("wrong:", c)
	}
}

func TestSelectUnknownMember(t *testing.T) {
	g := group(t, 0, Row{})
	if _, err := Select(g, buck5, 0); !errors.Is(err, ErrNoMember) {
		t.Error("wrong:", err)
	}
}

func TestSealed(t *testing.T) {
	g := group(t, 0, Row{})
	if err := g.SetRow(buck2, "buck2", true, Row{}); !errors.Is(err, ErrSealed) {
		t.Error("wrong:", err)
	}
}

func TestCommitAndCode(t *testing.T) {
	g := group(t, 0,
		Row{5, 5, 3, 3, 5, 5, 3, 3},
		Row{1, 2, 1, 2, 1, 2, 1, 2})
	if err := g.Commit(3); err != nil {
		t.Fatal(err)
	}
	if c, _ := g.Code(buck1); c != 3 {
		t.Error("wrong buck1:", c)
	}
	if c, _ := g.Code(buck2); c != 2 {
		t.Error("wrong buck2:", c)
	}
	if err := g.Commit(Entries); !errors.Is(err, ErrIndex) {
		t.Error("wrong:", err)
	}
	if g.Index != 3 {
		t.Error("wrong index:", g.Index)
	}
}

func TestNewIndexRange(t *testing.T) {
	if _, err := New(-1); !errors.Is(err, ErrIndex) {
		t.Error("wrong:", err)
	}
}
