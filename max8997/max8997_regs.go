// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package max8997

import (
	"strconv"

	"github.com/platinasystems/pmic/internal/vmap"
)

// Register map
const (
	regMainCon1    = 0x13
	regBuckRamp    = 0x15
	regBuck1Ctrl   = 0x18
	regBuck1DVS1   = 0x19
	regBuck2Ctrl   = 0x21
	regBuck2DVS1   = 0x22
	regBuck3Ctrl   = 0x2a
	regBuck3DVS    = 0x2b
	regBuck4Ctrl   = 0x2c
	regBuck4DVS    = 0x2d
	regBuck5Ctrl   = 0x2e
	regBuck5DVS1   = 0x2f
	regBuck6Ctrl   = 0x37
	regBuck7Ctrl   = 0x39
	regBuck7DVS    = 0x3a
	regLdo1Ctrl    = 0x3b
	regLdo21Ctrl   = 0x4d
	regMbcCtrl1    = 0x50
	regMbcCtrl4    = 0x53
	regMbcCtrl5    = 0x54
	regSafeoutCtrl = 0x5a
)

const (
	buckCtrlEnable = 1 << 0
	buckCtrlDVS    = 1 << 1
	ldoEnable      = 0xc0
	ldoStandby     = 0x40
	codeMask       = 0x3f
)

type ID int

const (
	Ldo1 ID = iota
	Ldo2
	Ldo3
	Ldo4
	Ldo5
	Ldo6
	Ldo7
	Ldo8
	Ldo9
	Ldo10
	Ldo11
	Ldo12
	Ldo13
	Ldo14
	Ldo15
	Ldo16
	Ldo17
	Ldo18
	Ldo21
	Buck1
	Buck2
	Buck3
	Buck4
	Buck5
	Buck6
	Buck7
	En32kHzAP
	En32kHzCP
	EnVichg
	ESafeout1
	ESafeout2
	Charger
	ChargerTopoff
	nIDs
)

var (
	ldoMap      = vmap.Map{Min: 800, Max: 3950, Step: 50, Bits: 6}
	buck1245Map = vmap.Map{Min: 650, Max: 2225, Step: 25, Bits: 6}
	buck37Map   = vmap.Map{Min: 750, Max: 3900, Step: 50, Bits: 6}
	chargerMap  = vmap.Map{Min: 200, Max: 950, Step: 50, Bits: 4}
	topoffMap   = vmap.Map{Min: 50, Max: 200, Step: 10, Bits: 4}

	safeoutTable = vmap.Table{4850000, 4900000, 4950000, 3300000}
)

// Output is the static description of one rail. An output with neither Map
// nor Table is enable only; a zero EnableMask marks one that can't be
// switched.
type Output struct {
	Name    string
	Map     *vmap.Map
	Table   vmap.Table
	Current bool
	Ramp    bool

	VoltReg uint8
	Shift   uint8
	Mask    uint8

	EnableReg      uint8
	EnableMask     uint8
	EnablePattern  uint8
	DisablePattern uint8
}

// Outputs is indexed by ID.
var Outputs [nIDs]Output

var ByName = make(map[string]ID)

func (id ID) String() string {
	if id < 0 || id >= nIDs {
		return "unknown"
	}
	return Outputs[id].Name
}

// Settable reports whether the output has a voltage or current setting.
func (o *Output) Settable() bool { return o.Map != nil || o.Table != nil }

func (o *Output) value(code int) (int, error) {
	if o.Table != nil {
		return o.Table.Value(code)
	}
	return o.Map.Value(code)
}

func (o *Output) resolve(min, max int) (int, error) {
	if o.Table != nil {
		return o.Table.Resolve(min, max)
	}
	return vmap.Resolve(*o.Map, min, max)
}

func IDs() []ID {
	ids := make([]ID, nIDs)
	for i := range ids {
		ids[i] = ID(i)
	}
	return ids
}

func buck(name string, m *vmap.Map, ctrl, dvs uint8, ramp bool) Output {
	return Output{
		Name:           name,
		Map:            m,
		Ramp:           ramp,
		VoltReg:        dvs,
		Mask:           codeMask,
		EnableReg:      ctrl,
		EnableMask:     buckCtrlEnable,
		EnablePattern:  buckCtrlEnable,
		DisablePattern: 0,
	}
}

func onoff(name string, reg, bit uint8) Output {
	return Output{
		Name:          name,
		EnableReg:     reg,
		EnableMask:    bit,
		EnablePattern: bit,
	}
}

func safeout(name string, shift, bit uint8) Output {
	o := onoff(name, regSafeoutCtrl, bit)
	o.Table = safeoutTable
	o.VoltReg = regSafeoutCtrl
	o.Shift = shift
	o.Mask = 0x3
	return o
}

func init() {
	for i := Ldo1; i <= Ldo18; i++ {
		Outputs[i] = Output{
			Name:          "ldo" + strconv.Itoa(int(i-Ldo1)+1),
			Map:           &ldoMap,
			VoltReg:       regLdo1Ctrl + uint8(i-Ldo1),
			Mask:          codeMask,
			EnableReg:     regLdo1Ctrl + uint8(i-Ldo1),
			EnableMask:    ldoEnable,
			EnablePattern: ldoEnable,
		}
	}
	Outputs[Ldo21] = Output{
		Name:          "ldo21",
		Map:           &ldoMap,
		VoltReg:       regLdo21Ctrl,
		Mask:          codeMask,
		EnableReg:     regLdo21Ctrl,
		EnableMask:    ldoEnable,
		EnablePattern: ldoEnable,
	}
	// these three stay on in normal mode and off in low power mode when
	// disabled
	for _, id := range []ID{Ldo1, Ldo10, Ldo21} {
		Outputs[id].DisablePattern = ldoStandby
	}
	Outputs[Buck1] = buck("buck1", &buck1245Map, regBuck1Ctrl, regBuck1DVS1, true)
	Outputs[Buck2] = buck("buck2", &buck1245Map, regBuck2Ctrl, regBuck2DVS1, true)
	Outputs[Buck3] = buck("buck3", &buck37Map, regBuck3Ctrl, regBuck3DVS, false)
	Outputs[Buck4] = buck("buck4", &buck1245Map, regBuck4Ctrl, regBuck4DVS, true)
	Outputs[Buck5] = buck("buck5", &buck1245Map, regBuck5Ctrl, regBuck5DVS1, true)
	Outputs[Buck6] = buck("buck6", nil, regBuck6Ctrl, 0, false)
	Outputs[Buck7] = buck("buck7", &buck37Map, regBuck7Ctrl, regBuck7DVS, false)
	Outputs[En32kHzAP] = onoff("en32khz_ap", regMainCon1, 1<<0)
	Outputs[En32kHzCP] = onoff("en32khz_cp", regMainCon1, 1<<1)
	Outputs[EnVichg] = onoff("envichg", regMbcCtrl1, 1<<7)
	Outputs[ESafeout1] = safeout("esafeout1", 0, 1<<6)
	Outputs[ESafeout2] = safeout("esafeout2", 2, 1<<7)
	Outputs[Charger] = Output{
		Name:    "charger",
		Map:     &chargerMap,
		Current: true,
		VoltReg: regMbcCtrl4,
		Mask:    0x0f,
	}
	Outputs[ChargerTopoff] = Output{
		Name:    "charger_topoff",
		Map:     &topoffMap,
		Current: true,
		VoltReg: regMbcCtrl5,
		Mask:    0x0f,
	}
	for i := range Outputs {
		o := &Outputs[i]
		if o.EnableMask != 0 && o.DisablePattern == 0 {
			o.DisablePattern = ^o.EnablePattern & o.EnableMask
		}
		ByName[o.Name] = ID(i)
	}
}
