// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package max8997

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/platinasystems/pmic/internal/regio"
	pmic "github.com/platinasystems/pmic/max8997"
)

type lines struct{ idx int }

func (l *lines) SetIndex(idx int) error {
	l.idx = idx
	return nil
}

func buckUV(code int) int { return 650000 + 25000*code }

func newDevice(t *testing.T) *pmic.Device {
	var row1, row2 [8]int
	for i, c := range []int{5, 6, 5, 5, 5, 5, 5, 5} {
		row1[i] = buckUV(c)
	}
	for i, c := range []int{1, 2, 1, 1, 1, 1, 1, 1} {
		row2[i] = buckUV(c)
	}
	dev, err := pmic.New(pmic.Config{
		Registers: &regio.Mem{},
		Lines:     new(lines),
		DVS: map[pmic.ID]pmic.DVS{
			pmic.Buck1: {GPIO: true, Voltages: row1},
			pmic.Buck2: {GPIO: true, Voltages: row2},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return dev
}

func TestParseMicro(t *testing.T) {
	for _, x := range []struct {
		id   pmic.ID
		s    string
		want int
	}{
		{pmic.Ldo3, "1200000", 1200000},
		{pmic.Ldo3, "1.2V", 1200000},
		{pmic.Ldo3, " 1200mV", 1200000},
		{pmic.Charger, "500mA", 500000},
		{pmic.Charger, "450000", 450000},
	} {
		got, err := ParseMicro(x.id, x.s)
		if err != nil || got != x.want {
			t.Error("wrong:", x.s, got, err)
		}
	}
	if _, err := ParseMicro(pmic.Ldo3, "1.2A"); err == nil {
		t.Error("expected unit error")
	}
	if _, err := ParseMicro(pmic.Ldo3, "lots"); err == nil {
		t.Error("expected number error")
	}
}

func TestParseWindow(t *testing.T) {
	lo, hi, err := ParseWindow(pmic.Buck3, "1000000-1100000")
	if err != nil || lo != 1000000 || hi != 1100000 {
		t.Error("wrong:", lo, hi, err)
	}
	lo, hi, err = ParseWindow(pmic.Buck3, "1.2V")
	if err != nil || lo != 1200000 || hi != 1200000 {
		t.Error("wrong:", lo, hi, err)
	}
	if _, _, err = ParseWindow(pmic.Buck3, "2V-1V"); err == nil {
		t.Error("expected error")
	}
}

func TestRunSetGet(t *testing.T) {
	dev := newDevice(t)
	buf := new(bytes.Buffer)
	if err := Run(buf, false, dev, "set", "LDO3", "1.8V"); err != nil {
		t.Fatal(err)
	}
	if s, want := buf.String(), "ldo3 "+Format(pmic.Ldo3, 1800000)+"\n"; s != want {
		t.Errorf("wrong: %q", s)
	}
	buf.Reset()
	Run(buf, false, dev, "set", "charger", "400mA", "600mA")
	buf.Reset()
	if err := Run(buf, false, dev, "get", "charger"); err != nil {
		t.Fatal(err)
	}
	if s := buf.String(); s != Format(pmic.Charger, 400000)+"\n" {
		t.Errorf("wrong: %q", s)
	}
}

func TestRunSideEffect(t *testing.T) {
	dev := newDevice(t)
	err := Run(new(bytes.Buffer), false, dev, "set", "buck1",
		"800000")
	if !errors.Is(err, pmic.ErrSideEffectNotAllowed) {
		t.Error("wrong:", err)
	}
	buf := new(bytes.Buffer)
	Run(buf, false, dev, "index")
	if s := buf.String(); s != "0\n" {
		t.Errorf("wrong: %q", s)
	}
}

func TestRunErrors(t *testing.T) {
	dev := newDevice(t)
	buf := new(bytes.Buffer)
	if err := Run(buf, false, dev, "get", "ldo19"); !errors.Is(err,
		pmic.ErrUnknownOutput) {
		t.Error("wrong:", err)
	}
	if err := Run(buf, false, dev, "set", "ldo1"); err == nil {
		t.Error("expected missing MIN")
	}
	if err := Run(buf, false, dev, "enable", "charger_topoff"); !errors.Is(err,
		pmic.ErrNoEnable) {
		t.Error("wrong:", err)
	}
	if err := Run(buf, false, dev, "frob", "ldo1"); err == nil {
		t.Error("expected unknown subcommand")
	}
}

func TestRunShow(t *testing.T) {
	dev := newDevice(t)
	Run(new(bytes.Buffer), false, dev, "enable", "ldo2")

	buf := new(bytes.Buffer)
	if err := Run(buf, false, dev, "show"); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != len(pmic.IDs()) {
		t.Fatal("wrong:", len(lines))
	}
	if f := strings.Fields(lines[1]); f[0] != "ldo2" || f[2] != "on" {
		t.Error("wrong:", lines[1])
	}
	if f := strings.Fields(lines[pmic.Buck6]); f[1] != "-" || f[2] != "off" {
		t.Error("wrong:", lines[pmic.Buck6])
	}
	for _, id := range []pmic.ID{pmic.Charger, pmic.ChargerTopoff} {
		if f := strings.Fields(lines[id]); f[2] != "-" {
			t.Error("wrong:", lines[id])
		}
	}
	if f := strings.Fields(lines[pmic.ESafeout1]); f[1] != Format(pmic.ESafeout1, 4850000) {
		t.Error("wrong:", lines[pmic.ESafeout1])
	}

	buf.Reset()
	Run(buf, true, dev, "show")
	if !strings.HasPrefix(buf.String(), "OUTPUT") {
		t.Error("missing header")
	}
}
