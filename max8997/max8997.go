// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package max8997 controls the regulators of a MAX8997 PMIC.
//
// BUCK1, BUCK2 and BUCK5 may each take their code from one of eight DVS
// registers selected by three GPIO lines shared by all of them. Setting the
// voltage of such a buck means finding the index whose register holds the
// wanted code and that moves the other GPIO driven bucks the least. All
// other rails are set through their own register.
package max8997

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/platinasystems/log"
	"github.com/platinasystems/pmic/internal/dvs"
	"github.com/platinasystems/pmic/internal/regio"
	"github.com/platinasystems/pmic/internal/vmap"
)

var (
	ErrSideEffectNotAllowed = errors.New("max8997: dvs side effect not allowed")
	ErrNoMap                = errors.New("max8997: output has no such setting")
	ErrNoEnable             = errors.New("max8997: output can't be switched")
	ErrUnknownOutput        = errors.New("max8997: unknown output")
	ErrConfig               = errors.New("max8997: invalid configuration")
)

const DefaultRampDelay = 10 // mV/us

// The bucks that may share the DVS lines, by their slot in the group.
var dvsSlot = map[ID]dvs.Slot{
	Buck1: 0,
	Buck2: 1,
	Buck5: 2,
}

var dvsCtrl = map[ID]uint8{
	Buck1: regBuck1Ctrl,
	Buck2: regBuck2Ctrl,
	Buck5: regBuck5Ctrl,
}

// IndexLines drive the shared DVS index.
type IndexLines interface {
	SetIndex(idx int) error
}

// IndexReader are lines that can also be read back. Another process may
// drive them, so a Device reads them before each use of the index.
type IndexReader interface {
	IndexLines
	Index() (int, error)
}

// DVS is the platform table of a shared buck. GPIO is false for a buck that
// has DVS registers programmed but isn't switched by the lines.
type DVS struct {
	GPIO     bool
	Voltages [dvs.Entries]int // uV
}

type Config struct {
	Registers regio.Registers
	Lines     IndexLines
	Delay     regio.Delayer

	// Lock serializes every user of the PMIC. It defaults to a mutex
	// private to the Device.
	Lock sync.Locker

	DVS          map[ID]DVS
	DefaultIndex int
	RampDelay    int // mV/us, 1..16

	// Resume starts from the index readable lines already select rather
	// than driving DefaultIndex.
	Resume bool

	// IgnoreSideEffect allows an index change that moves other bucks.
	IgnoreSideEffect bool
}

type Device struct {
	lock sync.Locker

	regs   regio.Registers
	lines  IndexLines
	delay  regio.Delayer
	group  *dvs.Group
	driven map[ID]bool
	gpio   bool

	rampDelay        int
	ignoreSideEffect bool
}

func output(id ID) (*Output, error) {
	if id < 0 || id >= nIDs {
		return nil, ErrUnknownOutput
	}
	return &Outputs[id], nil
}

// New programs the ramp rate and the DVS tables, drives the lines to the
// default index and seals the tables.
func New(cfg Config) (*Device, error) {
	d := &Device{
		lock:             cfg.Lock,
		regs:             cfg.Registers,
		lines:            cfg.Lines,
		delay:            cfg.Delay,
		driven:           make(map[ID]bool),
		rampDelay:        cfg.RampDelay,
		ignoreSideEffect: cfg.IgnoreSideEffect,
	}
	if d.regs == nil {
		return nil, errors.Wrap(ErrConfig, "no registers")
	}
	if d.lock == nil {
		d.lock = new(sync.Mutex)
	}
	if d.delay == nil {
		d.delay = regio.Sleep
	}
	if d.rampDelay == 0 {
		d.rampDelay = DefaultRampDelay
	}
	if d.rampDelay < 1 || d.rampDelay > 16 {
		return nil, errors.Wrapf(ErrConfig, "ramp delay %d mV/us",
			d.rampDelay)
	}
	for i := range Outputs {
		if m := Outputs[i].Map; m != nil {
			if err := m.Validate(); err != nil {
				return nil, errors.Wrap(err, Outputs[i].Name)
			}
		}
	}
	g, err := dvs.New(cfg.DefaultIndex)
	if err != nil {
		return nil, errors.Wrap(err, "default index")
	}
	d.group = g

	d.lock.Lock()
	defer d.lock.Unlock()

	err = d.regs.WriteRegisterMasked(regBuckRamp,
		0xf<<4|uint8(d.rampDelay-1), 0xff)
	if err != nil {
		return nil, err
	}

	for id, c := range cfg.DVS {
		codes, err := sharedCodes(id, c.Voltages)
		if err != nil {
			return nil, err
		}
		if err = d.configure(id, c.GPIO, codes); err != nil {
			return nil, err
		}
		d.gpio = d.gpio || c.GPIO
	}
	if d.gpio {
		if d.lines == nil {
			return nil, errors.Wrap(ErrConfig, "gpio dvs without lines")
		}
		if err = d.start(cfg.Resume); err != nil {
			return nil, err
		}
	}
	g.Seal()
	return d, nil
}

// start drives the lines to the default index, or adopts the one they
// select when resuming.
func (d *Device) start(resume bool) error {
	if r, ok := d.lines.(IndexReader); ok && resume {
		idx, err := r.Index()
		if err == nil {
			return d.group.Commit(idx)
		}
		log.Print("daemon", "warn", "dvs lines: ", err,
			", using index ", d.group.Index)
	}
	return errors.Wrap(d.lines.SetIndex(d.group.Index), "dvs lines")
}

func sharedCodes(id ID, uV [dvs.Entries]int) (dvs.Row, error) {
	var codes dvs.Row
	o, err := output(id)
	if err != nil {
		return codes, err
	}
	if _, found := dvsSlot[id]; !found {
		return codes, errors.Wrapf(ErrConfig, "%s: not a dvs buck", o.Name)
	}
	for i, v := range uV {
		c, err := vmap.Resolve(*o.Map, v, v+o.Map.Step*vmap.Micro)
		if err != nil {
			return codes, errors.Wrapf(err, "%s dvs%d %d uV",
				o.Name, i+1, v)
		}
		codes[i] = uint8(c)
	}
	return codes, nil
}

// ConfigureSharedVoltages converts the uV table to codes and installs it.
func (d *Device) ConfigureSharedVoltages(id ID, gpio bool, uV [dvs.Entries]int) error {
	codes, err := sharedCodes(id, uV)
	if err != nil {
		return err
	}
	return d.ConfigureSharedTable(id, gpio, codes)
}

// ConfigureSharedTable writes the eight DVS registers of the buck and adds
// it to the shared group. It fails once the device is initialized.
func (d *Device) ConfigureSharedTable(id ID, gpio bool, codes dvs.Row) error {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.configure(id, gpio, codes)
}

func (d *Device) configure(id ID, gpio bool, codes dvs.Row) error {
	o, err := output(id)
	if err != nil {
		return err
	}
	slot, found := dvsSlot[id]
	if !found {
		return errors.Wrapf(ErrConfig, "%s: not a dvs buck", o.Name)
	}
	if d.group.IsSealed() {
		return errors.Wrap(dvs.ErrSealed, o.Name)
	}
	for i, c := range codes {
		if int(c) >= o.Map.Codes() {
			return errors.Wrapf(vmap.ErrAboveUpperBound,
				"%s dvs%d code %d", o.Name, i+1, c)
		}
	}
	for i, c := range codes {
		err = d.regs.WriteRegisterMasked(o.VoltReg+uint8(i), c, o.Mask)
		if err != nil {
			return errors.Wrap(err, o.Name)
		}
	}
	var ctrl uint8
	if gpio {
		ctrl = buckCtrlDVS
	}
	err = d.regs.WriteRegisterMasked(dvsCtrl[id], ctrl, buckCtrlDVS)
	if err != nil {
		return errors.Wrap(err, o.Name)
	}
	if err = d.group.SetRow(slot, o.Name, gpio, codes); err != nil {
		return errors.Wrap(err, o.Name)
	}
	d.driven[id] = gpio
	return nil
}

// SharedIndex returns the live DVS index.
func (d *Device) SharedIndex() int {
	d.lock.Lock()
	defer d.lock.Unlock()
	if err := d.sync(); err != nil {
		log.Print("daemon", "warn", err)
	}
	return d.group.Index
}

// sync adopts the index the lines select, which another process may have
// changed.
func (d *Device) sync() error {
	r, ok := d.lines.(IndexReader)
	if !ok || !d.gpio {
		return nil
	}
	idx, err := r.Index()
	if err != nil {
		return errors.Wrap(err, "dvs lines")
	}
	if idx == d.group.Index {
		return nil
	}
	return d.group.Commit(idx)
}

// SetVoltage applies the lowest code within [minUV, maxUV] and returns it.
func (d *Device) SetVoltage(id ID, minUV, maxUV int) (int, error) {
	return d.set(id, false, minUV, maxUV)
}

// SetCurrentLimit is SetVoltage for the charger's current settings in uA.
func (d *Device) SetCurrentLimit(id ID, minUA, maxUA int) (int, error) {
	return d.set(id, true, minUA, maxUA)
}

func (d *Device) GetVoltage(id ID) (int, error) { return d.get(id, false) }

func (d *Device) GetCurrentLimit(id ID) (int, error) { return d.get(id, true) }

// ListVoltage returns the uV (or uA) of the output's code.
func (d *Device) ListVoltage(id ID, code int) (int, error) {
	o, err := output(id)
	if err != nil {
		return 0, err
	}
	if !o.Settable() {
		return 0, errors.Wrap(ErrNoMap, o.Name)
	}
	v, err := o.value(code)
	return v, errors.Wrap(err, o.Name)
}

func (d *Device) mapped(id ID, current bool) (*Output, error) {
	o, err := output(id)
	if err != nil {
		return nil, err
	}
	if !o.Settable() || o.Current != current {
		return nil, errors.Wrap(ErrNoMap, o.Name)
	}
	return o, nil
}

func (d *Device) set(id ID, current bool, min, max int) (int, error) {
	o, err := d.mapped(id, current)
	if err != nil {
		return 0, err
	}
	code, err := o.resolve(min, max)
	if err != nil {
		return 0, errors.Wrap(err, o.Name)
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	if d.driven[id] {
		code, err = d.setShared(id, o, code, max)
	} else {
		err = d.setDirect(o, code)
	}
	if err != nil {
		return 0, errors.Wrap(err, o.Name)
	}
	return code, nil
}

func (d *Device) setDirect(o *Output, code int) error {
	old := code
	if o.Ramp {
		v, err := d.regs.ReadRegister(o.VoltReg)
		if err != nil {
			return err
		}
		old = int((v >> o.Shift) & o.Mask)
	}
	err := d.regs.WriteRegisterMasked(o.VoltReg, uint8(code)<<o.Shift,
		o.Mask<<o.Shift)
	if err != nil {
		return err
	}
	d.ramp(o, old, code)
	return nil
}

// setShared tries code, then the higher codes still within max, for the
// index with the least side effect.
func (d *Device) setShared(id ID, o *Output, code, max int) (int, error) {
	if err := d.sync(); err != nil {
		return 0, err
	}
	slot := dvsSlot[id]
	found := false
	var best dvs.Choice
	var bestCode int
	for c := code; c < o.Map.Codes(); c++ {
		if v, _ := o.Map.Value(c); v > max {
			break
		}
		choice, err := dvs.Select(d.group, slot, uint8(c))
		if errors.Is(err, dvs.ErrNoMatchingIndex) {
			continue
		}
		if err != nil {
			return 0, err
		}
		if !found || choice.Deviation < best.Deviation {
			found, best, bestCode = true, choice, c
		}
		if choice.Deviation == 0 {
			break
		}
	}
	if !found {
		return 0, errors.Wrapf(dvs.ErrNoMatchingIndex, "code %d", code)
	}
	old := d.group.Index
	if best.Deviation > 0 {
		if !d.ignoreSideEffect {
			return 0, errors.Wrapf(ErrSideEffectNotAllowed,
				"index %d -> %d deviation %d", old, best.Index,
				best.Deviation)
		}
		log.Print("daemon", "warn", o.Name, ": dvs side effect, index ",
			old, " -> ", best.Index, " deviation ", best.Deviation)
	}
	oldCode, err := d.group.Code(slot)
	if err != nil {
		return 0, err
	}
	if best.Index != old {
		if err = d.lines.SetIndex(best.Index); err != nil {
			return 0, errors.Wrap(err, "dvs lines")
		}
		if err = d.group.Commit(best.Index); err != nil {
			return 0, err
		}
	}
	d.ramp(o, int(oldCode), bestCode)
	return bestCode, nil
}

// ramp waits for a rising buck to settle at the configured slew rate.
func (d *Device) ramp(o *Output, old, code int) {
	if !o.Ramp || code <= old {
		return
	}
	mV := o.Map.Step * (code - old)
	us := (mV + d.rampDelay - 1) / d.rampDelay
	d.delay.Delay(time.Duration(us) * time.Microsecond)
}

func (d *Device) get(id ID, current bool) (int, error) {
	o, err := d.mapped(id, current)
	if err != nil {
		return 0, err
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	var code int
	if d.driven[id] {
		if err = d.sync(); err != nil {
			return 0, errors.Wrap(err, o.Name)
		}
		c, err := d.group.Code(dvsSlot[id])
		if err != nil {
			return 0, errors.Wrap(err, o.Name)
		}
		code = int(c)
	} else {
		v, err := d.regs.ReadRegister(o.VoltReg)
		if err != nil {
			return 0, errors.Wrap(err, o.Name)
		}
		code = int((v >> o.Shift) & o.Mask)
	}
	v, err := o.value(code)
	return v, errors.Wrap(err, o.Name)
}

func (d *Device) switchable(id ID) (*Output, error) {
	o, err := output(id)
	if err != nil {
		return nil, err
	}
	if o.EnableMask == 0 {
		return nil, errors.Wrap(ErrNoEnable, o.Name)
	}
	return o, nil
}

func (d *Device) Enable(id ID) error  { return d.enable(id, true) }
func (d *Device) Disable(id ID) error { return d.enable(id, false) }

func (d *Device) enable(id ID, on bool) error {
	o, err := d.switchable(id)
	if err != nil {
		return err
	}
	pattern := o.DisablePattern
	if on {
		pattern = o.EnablePattern
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	err = d.regs.WriteRegisterMasked(o.EnableReg, pattern, o.EnableMask)
	return errors.Wrap(err, o.Name)
}

func (d *Device) IsEnabled(id ID) (bool, error) {
	o, err := d.switchable(id)
	if err != nil {
		return false, err
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	v, err := d.regs.ReadRegister(o.EnableReg)
	if err != nil {
		return false, errors.Wrap(err, o.Name)
	}
	bits := v & o.EnableMask
	return bits != 0 && bits != o.DisablePattern, nil
}
