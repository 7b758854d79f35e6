// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package max8997

import (
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// platformFile is the yaml form of a Platform, e.g.
//
//	i2c: {bus: 0, addr: 0x66, retries: 3}
//	dtb: /boot/platina-pmic-bmc.dtb
//	dvs_pins: [BUCK125_SET1, BUCK125_SET2, BUCK125_SET3]
//	dvs:
//	  buck1:
//	    gpio: true
//	    uV: [1250000, 1200000, 1150000, 1100000,
//	      1050000, 1000000, 950000, 950000]
//	default_index: 1
//
// Absent settings keep their current values.
type platformFile struct {
	I2c *struct {
		Bus      int `yaml:"bus"`
		Addr     int `yaml:"addr"`
		MuxBus   int `yaml:"mux_bus"`
		MuxAddr  int `yaml:"mux_addr"`
		MuxValue int `yaml:"mux_value"`
		Retries  int `yaml:"retries"`
	} `yaml:"i2c"`
	Dtb     *string  `yaml:"dtb"`
	DvsPins []string `yaml:"dvs_pins"`
	DVS     map[string]struct {
		GPIO     bool  `yaml:"gpio"`
		Voltages []int `yaml:"uV"`
	} `yaml:"dvs"`
	DefaultIndex *int    `yaml:"default_index"`
	RampDelay    *int    `yaml:"ramp_delay"`
	LockFile     *string `yaml:"lock_file"`
	Simulate     *bool   `yaml:"simulate"`
}

// Parse overlays the yaml description in data on p.
func (p *Platform) Parse(data []byte) error {
	var f platformFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return errors.Wrap(err, "platform")
	}
	if f.DvsPins != nil && len(f.DvsPins) != len(p.DvsPins) {
		return errors.Wrapf(ErrConfig, "dvs_pins: want %d, have %d",
			len(p.DvsPins), len(f.DvsPins))
	}
	dvs := make(map[ID]DVS)
	for name, d := range f.DVS {
		id, found := ByName[name]
		if !found {
			return errors.Wrap(ErrUnknownOutput, name)
		}
		var v DVS
		if len(d.Voltages) != len(v.Voltages) {
			return errors.Wrapf(ErrConfig, "%s: want %d voltages",
				name, len(v.Voltages))
		}
		v.GPIO = d.GPIO
		copy(v.Voltages[:], d.Voltages)
		dvs[id] = v
	}

	if f.I2c != nil {
		p.I2c.Bus = f.I2c.Bus
		p.I2c.Addr = f.I2c.Addr
		p.I2c.MuxBus = f.I2c.MuxBus
		p.I2c.MuxAddr = f.I2c.MuxAddr
		p.I2c.MuxValue = f.I2c.MuxValue
		p.I2c.Retries = f.I2c.Retries
	}
	if f.Dtb != nil {
		p.Dtb = *f.Dtb
	}
	if f.DvsPins != nil {
		copy(p.DvsPins[:], f.DvsPins)
	}
	if f.DVS != nil {
		p.DVS = dvs
	}
	if f.DefaultIndex != nil {
		p.DefaultIndex = *f.DefaultIndex
	}
	if f.RampDelay != nil {
		p.RampDelay = *f.RampDelay
	}
	if f.LockFile != nil {
		p.LockFile = *f.LockFile
	}
	if f.Simulate != nil {
		p.Simulate = *f.Simulate
	}
	return nil
}

// Load overlays the named yaml file on p.
func (p *Platform) Load(file string) error {
	data, err := ioutil.ReadFile(file)
	if err != nil {
		return err
	}
	return errors.Wrap(p.Parse(data), file)
}
