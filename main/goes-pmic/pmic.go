// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package main

import (
	"os"

	"github.com/platinasystems/log"
	"github.com/platinasystems/pmic/internal/regio"
	pmic "github.com/platinasystems/pmic/max8997"
)

// ConfigFile, if present, overrides the built-in machine description.
var ConfigFile = "/etc/goes/pmic.yaml"

func pmicInit() {
	pmic.Machine = pmic.Platform{
		I2c: regio.SMBus{
			Bus:      0,
			Addr:     0x66,
			MuxBus:   0,
			MuxAddr:  0x76,
			MuxValue: 0x01,
			Retries:  3,
		},

		Dtb: "/boot/platina-pmic-bmc.dtb",
		DvsPins: [3]string{
			"BUCK125_SET1",
			"BUCK125_SET2",
			"BUCK125_SET3",
		},

		DVS: map[pmic.ID]pmic.DVS{
			pmic.Buck1: {
				GPIO: true,
				Voltages: [8]int{
					1250000, 1200000, 1150000, 1100000,
					1050000, 1000000, 950000, 950000,
				},
			},
			pmic.Buck2: {
				GPIO: true,
				Voltages: [8]int{
					1100000, 1100000, 1100000, 1100000,
					1000000, 1000000, 1000000, 1000000,
				},
			},
			pmic.Buck5: {
				GPIO: false,
				Voltages: [8]int{
					1200000, 1200000, 1200000, 1200000,
					1200000, 1200000, 1200000, 1200000,
				},
			},
		},
		DefaultIndex: 1,
		RampDelay:    10,
	}
	if _, err := os.Stat(ConfigFile); err == nil {
		if err = pmic.Machine.Load(ConfigFile); err != nil {
			log.Print("daemon", "err", err)
		}
	}
}
