// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package regio provides the byte register access used by the regulator
// drivers: an SMBus transport and an in-memory register file.
package regio

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrTransport = errors.New("regio: transport failure")

type Registers interface {
	ReadRegister(reg uint8) (uint8, error)
	// WriteRegisterMasked changes only the bits of reg under mask.
	WriteRegisterMasked(reg, value, mask uint8) error
}

type Delayer interface {
	Delay(time.Duration)
}

type sleeper struct{}

func (sleeper) Delay(d time.Duration) { time.Sleep(d) }

// Sleep is the Delayer of real hardware.
var Sleep Delayer = sleeper{}

type TransportError struct {
	Op  string
	Reg uint8
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %#02x: %v", e.Op, e.Reg, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// Mem is a register file in memory. Fail, when set, is consulted before
// each access and its error is returned as a transport failure.
type Mem struct {
	mutex  sync.Mutex
	Regs   [256]uint8
	Writes int
	Fail   func(op string, reg uint8) error
}

func (m *Mem) ReadRegister(reg uint8) (uint8, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if err := m.fail("read", reg); err != nil {
		return 0, err
	}
	return m.Regs[reg], nil
}

func (m *Mem) WriteRegisterMasked(reg, value, mask uint8) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if err := m.fail("write", reg); err != nil {
		return err
	}
	v := (m.Regs[reg] &^ mask) | (value & mask)
	if v != m.Regs[reg] {
		m.Regs[reg] = v
		m.Writes++
	}
	return nil
}

func (m *Mem) fail(op string, reg uint8) error {
	if m.Fail == nil {
		return nil
	}
	if err := m.Fail(op, reg); err != nil {
		return &TransportError{op, reg, err}
	}
	return nil
}
