// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package regio

import (
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"github.com/platinasystems/i2c"
	"github.com/platinasystems/log"
)

// Every SMBus device shares the one adapter lock so that a mux select and
// the following access aren't interleaved with another device.
var mutex sync.Mutex

type SMBus struct {
	Bus      int
	Addr     int
	MuxBus   int
	MuxAddr  int
	MuxValue int

	// Retries is the number of extra attempts after a failed access.
	Retries int

	// do is replaced by tests
	do func(bus, addr int, rw i2c.RW, reg uint8, data *i2c.SMBusData) error
}

func smbusDo(bus, addr int, rw i2c.RW, reg uint8, data *i2c.SMBusData) error {
	var b i2c.Bus

	err := b.Open(bus)
	if err != nil {
		return err
	}
	defer b.Close()

	err = b.ForceSlaveAddress(addr)
	if err != nil {
		return err
	}
	return b.Do(rw, reg, i2c.ByteData, data)
}

func (h *SMBus) i2cDo(op string, rw i2c.RW, reg uint8, data *i2c.SMBusData) error {
	do := h.do
	if do == nil {
		do = smbusDo
	}
	b := &backoff.Backoff{
		Min:    time.Millisecond,
		Max:    50 * time.Millisecond,
		Factor: 2,
	}
	var err error
	for {
		if h.MuxAddr != 0 {
			var mux i2c.SMBusData
			mux[0] = byte(h.MuxValue)
			err = do(h.MuxBus, h.MuxAddr, i2c.Write, 0, &mux)
		}
		if err == nil {
			err = do(h.Bus, h.Addr, rw, reg, data)
		}
		if err == nil {
			return nil
		}
		if int(b.Attempt()) >= h.Retries {
			break
		}
		d := b.Duration()
		log.Print("daemon", "warn", op, " ", h.Bus, ".", h.Addr, " reg ",
			reg, ": ", err, ", retry in ", d)
		time.Sleep(d)
	}
	return &TransportError{op, reg, err}
}

func (h *SMBus) ReadRegister(reg uint8) (uint8, error) {
	var data i2c.SMBusData

	mutex.Lock()
	defer mutex.Unlock()

	if err := h.i2cDo("read", i2c.Read, reg, &data); err != nil {
		return 0, err
	}
	return data[0], nil
}

func (h *SMBus) WriteRegisterMasked(reg, value, mask uint8) error {
	var data i2c.SMBusData

	mutex.Lock()
	defer mutex.Unlock()

	if err := h.i2cDo("read", i2c.Read, reg, &data); err != nil {
		return err
	}
	v := (data[0] &^ mask) | (value & mask)
	if v == data[0] {
		return nil
	}
	data[0] = v
	return h.i2cDo("write", i2c.Write, reg, &data)
}
