// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package max8997

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/platinasystems/pmic/internal/devlock"
	"github.com/platinasystems/pmic/internal/fdtgpio"
	"github.com/platinasystems/pmic/internal/regio"
)

const DefaultLockFile = "/run/goes/max8997.lock"

// Platform is how a machine wires the PMIC. Machines fill in Machine from
// an init hook before any command opens the device.
type Platform struct {
	I2c regio.SMBus

	// Dtb, when set, names the device tree that describes DvsPins.
	Dtb     string
	DvsPins [3]string

	DVS          map[ID]DVS
	DefaultIndex int
	RampDelay    int

	// LockFile serializes the processes using the PMIC, DefaultLockFile
	// if empty.
	LockFile string

	// Simulate replaces the bus and the lines with memory.
	Simulate bool
}

var Machine Platform

var (
	dtbOnce sync.Once
	dtbErr  error

	sim = new(simState)
)

// simState is the one simulated PMIC of the process.
type simState struct {
	once  sync.Once
	mutex sync.Mutex
	regs  *regio.Mem
	lines *memLines
}

type memLines struct {
	mutex sync.Mutex
	idx   int
}

func (l *memLines) SetIndex(idx int) error {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.idx = idx
	return nil
}

func (l *memLines) Index() (int, error) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return l.idx, nil
}

// Open returns a device on the platform. Every device opened on a PMIC,
// in this or another process, shares its lock and follows the index the
// lines select, so opening doesn't disturb another user's setting.
func (p *Platform) Open(ignoreSideEffect bool) (*Device, error) {
	var regs regio.Registers
	var lines IndexLines
	var lock sync.Locker
	if p.Simulate {
		s := sim
		s.once.Do(func() {
			s.regs = &regio.Mem{}
			s.lines = &memLines{idx: p.DefaultIndex}
		})
		regs, lines, lock = s.regs, s.lines, &s.mutex
	} else {
		if p.Dtb != "" {
			dtbOnce.Do(func() { dtbErr = fdtgpio.Load(p.Dtb) })
			if dtbErr != nil {
				return nil, errors.Wrap(dtbErr, "dvs pins")
			}
		}
		file := p.LockFile
		if file == "" {
			file = DefaultLockFile
		}
		l, err := devlock.Open(file)
		if err != nil {
			return nil, errors.Wrap(err, "lock")
		}
		i2c := p.I2c
		regs, lines, lock = &i2c, &fdtgpio.Lines{Names: p.DvsPins}, l
	}
	return New(Config{
		Registers:        regs,
		Lines:            lines,
		Lock:             lock,
		DVS:              p.DVS,
		DefaultIndex:     p.DefaultIndex,
		RampDelay:        p.RampDelay,
		Resume:           true,
		IgnoreSideEffect: ignoreSideEffect,
	})
}
