// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package max8997

import "testing"

func simPlatform() *Platform {
	sim = new(simState)
	return &Platform{
		Simulate: true,
		DVS: map[ID]DVS{
			Buck1: {GPIO: true, Voltages: uvRow(5, 5, 3, 3, 5, 5, 3, 3)},
			Buck2: {GPIO: true, Voltages: uvRow(1, 2, 1, 2, 1, 2, 1, 2)},
		},
	}
}

func TestPlatformReopenKeepsIndex(t *testing.T) {
	p := simPlatform()
	first, err := p.Open(false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err = first.SetVoltage(Buck1, buckUV(3), buckUV(3)); err != nil {
		t.Fatal(err)
	}
	second, err := p.Open(false)
	if err != nil {
		t.Fatal(err)
	}
	if idx := second.SharedIndex(); idx != 2 {
		t.Error("wrong:", idx)
	}
	if uV, _ := second.GetVoltage(Buck1); uV != buckUV(3) {
		t.Error("wrong:", uV)
	}
}

func TestPlatformTwoUsers(t *testing.T) {
	p := simPlatform()
	daemon, err := p.Open(false)
	if err != nil {
		t.Fatal(err)
	}
	cli, err := p.Open(true)
	if err != nil {
		t.Fatal(err)
	}
	if daemon.lock != cli.lock {
		t.Error("devices don't share a lock")
	}
	if _, err = cli.SetVoltage(Buck2, buckUV(2), buckUV(2)); err != nil {
		t.Fatal(err)
	}
	if idx := daemon.SharedIndex(); idx != 1 {
		t.Error("daemon missed the index change:", idx)
	}
	if uV, _ := daemon.GetVoltage(Buck2); uV != buckUV(2) {
		t.Error("wrong daemon buck2:", uV)
	}

	// index 2 would also present buck1 at code 3 but move buck2 back
	if _, err = daemon.SetVoltage(Buck1, buckUV(3), buckUV(3)); err != nil {
		t.Fatal(err)
	}
	if idx, _ := sim.lines.Index(); idx != 3 {
		t.Error("wrong lines:", idx)
	}
	if uV, _ := cli.GetVoltage(Buck2); uV != buckUV(2) {
		t.Error("buck2 moved:", uV)
	}
	if uV, _ := cli.GetVoltage(Buck1); uV != buckUV(3) {
		t.Error("wrong cli buck1:", uV)
	}
}

func TestPlatformParse(t *testing.T) {
	p := Platform{
		DvsPins:   [3]string{"A", "B", "C"},
		RampDelay: 10,
	}
	err := p.Parse([]byte(`
i2c: {bus: 1, addr: 0x66, mux_addr: 0x76, mux_value: 2, retries: 3}
dvs_pins: [SET1, SET2, SET3]
dvs:
  buck1:
    gpio: true
    uV: [1250000, 1200000, 1150000, 1100000, 1050000, 1000000, 950000, 950000]
  buck5:
    uV: [1200000, 1200000, 1200000, 1200000, 1200000, 1200000, 1200000, 1200000]
default_index: 2
lock_file: /tmp/pmic.lock
`))
	if err != nil {
		t.Fatal(err)
	}
	if p.I2c.Bus != 1 || p.I2c.Addr != 0x66 || p.I2c.MuxAddr != 0x76 ||
		p.I2c.MuxValue != 2 || p.I2c.Retries != 3 {
		t.Errorf("wrong i2c: %+v", p.I2c)
	}
	if p.DvsPins != [3]string{"SET1", "SET2", "SET3"} {
		t.Error("wrong pins:", p.DvsPins)
	}
	if d := p.DVS[Buck1]; !d.GPIO || d.Voltages[7] != 950000 {
		t.Errorf("wrong buck1: %+v", d)
	}
	if d := p.DVS[Buck5]; d.GPIO || d.Voltages[0] != 1200000 {
		t.Errorf("wrong buck5: %+v", d)
	}
	if p.DefaultIndex != 2 || p.RampDelay != 10 || p.LockFile != "/tmp/pmic.lock" {
		t.Error("wrong:", p.DefaultIndex, p.RampDelay, p.LockFile)
	}
}

func TestPlatformParseErrors(t *testing.T) {
	for _, s := range []string{
		"dvs_pins: [A, B]",
		"dvs: {ldo30: {uV: [1, 2, 3, 4, 5, 6, 7, 8]}}",
		"dvs: {buck2: {uV: [1000000]}}",
		"i2c: [",
	} {
		p := Platform{RampDelay: 10}
		if err := p.Parse([]byte(s)); err == nil {
			t.Error(s, "expected error")
		}
		if p.RampDelay != 10 || p.DVS != nil {
			t.Error(s, "changed platform")
		}
	}
}
