// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package max8997d publishes the PMIC outputs to redis and applies hset
// requests to them.
package max8997d

import (
	"fmt"
	"net/rpc"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/platinasystems/atsock"
	"github.com/platinasystems/log"
	"github.com/platinasystems/pmic/cmd"
	cli "github.com/platinasystems/pmic/cmd/max8997"
	"github.com/platinasystems/pmic/lang"
	pmic "github.com/platinasystems/pmic/max8997"
	"github.com/platinasystems/redis"
	"github.com/platinasystems/redis/publisher"
	"github.com/platinasystems/redis/rpc/args"
	"github.com/platinasystems/redis/rpc/reply"
)

const Name = "max8997d"

const (
	Prefix     = "pmic."
	IndexKey   = Prefix + "dvs.index"
	voltageKey = ".voltage.units.uV"
	currentKey = ".current.units.uA"
	enabledKey = ".enabled"
)

var (
	PollInterval = 5 * time.Second

	// IgnoreSideEffect lets hset requests move other DVS bucks.
	IgnoreSideEffect bool
)

type Command struct {
	Info
	Init func()
	init sync.Once

	stop      chan struct{}
	stopInit  sync.Once
	closeOnce sync.Once
}

type Info struct {
	mutex sync.Mutex
	rpc   *atsock.RpcServer
	pub   *publisher.Publisher
	dev   *pmic.Device
	last  map[string]string
}

func (*Command) String() string { return Name }

func (*Command) Usage() string { return Name }

func (*Command) Apropos() lang.Alt {
	return lang.Alt{
		lang.EnUS: "max8997 regulator daemon",
	}
}

func (*Command) Man() lang.Alt {
	return lang.Alt{
		lang.EnUS: `
DESCRIPTION
	Publishes these keys when they change:

		pmic.OUTPUT.voltage.units.uV
		pmic.OUTPUT.current.units.uA
		pmic.OUTPUT.enabled
		pmic.dvs.index

	The voltage, current and enabled keys may be set, e.g.

		goes hset platina pmic.buck1.voltage.units.uV 1100000-1150000
		goes hset platina pmic.ldo4.enabled false`,
	}
}

func (*Command) Kind() cmd.Kind { return cmd.Daemon }

func (c *Command) Main(...string) error {
	if c.Init != nil {
		c.init.Do(c.Init)
	}

	err := redis.IsReady()
	if err != nil {
		log.Print("redis err: ", err)
		return err
	}

	if c.dev, err = pmic.Machine.Open(IgnoreSideEffect); err != nil {
		return err
	}

	stop := c.stopped()
	c.last = make(map[string]string)

	if c.pub, err = publisher.New(); err != nil {
		return err
	}
	defer c.pub.Close()

	if c.rpc, err = atsock.NewRpcServer(Name); err != nil {
		return err
	}
	defer c.rpc.Close()

	rpc.Register(&c.Info)
	for _, id := range pmic.IDs() {
		err = redis.Assign(redis.DefaultHash+":"+Prefix+id.String()+".",
			Name, "Info")
		if err != nil {
			return err
		}
	}

	c.update()
	t := time.NewTicker(PollInterval)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return nil
		case <-t.C:
			c.update()
		}
	}
}

// Close may come before or during Main, and more than once.
func (c *Command) Close() error {
	c.closeOnce.Do(func() { close(c.stopped()) })
	return nil
}

func (c *Command) stopped() chan struct{} {
	c.stopInit.Do(func() { c.stop = make(chan struct{}) })
	return c.stop
}

func (c *Command) update() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	cur, err := c.values()
	if err != nil {
		log.Print("daemon", "err", err)
	}
	for _, k := range changed(c.last, cur) {
		c.pub.Print(k, ": ", cur[k])
		c.last[k] = cur[k]
	}
}

// values reads every published key. An output that fails to read is left
// out and reported.
func (i *Info) values() (map[string]string, error) {
	var first error
	m := make(map[string]string)
	m[IndexKey] = strconv.Itoa(i.dev.SharedIndex())
	for _, id := range pmic.IDs() {
		o := &pmic.Outputs[id]
		if o.Settable() {
			v, err := cli.Get(i.dev, id)
			if err == nil {
				key := voltageKey
				if o.Current {
					key = currentKey
				}
				m[Prefix+o.Name+key] = strconv.Itoa(v)
			} else if first == nil {
				first = err
			}
		}
		if on, err := i.dev.IsEnabled(id); err == nil {
			m[Prefix+o.Name+enabledKey] = strconv.FormatBool(on)
		} else if !errors.Is(err, pmic.ErrNoEnable) && first == nil {
			first = err
		}
	}
	return m, first
}

// changed returns the sorted keys of cur whose values differ from last.
func changed(last, cur map[string]string) []string {
	var keys []string
	for k, v := range cur {
		if lv, found := last[k]; !found || lv != v {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (i *Info) Hset(args args.Hset, reply *reply.Hset) error {
	i.mutex.Lock()
	defer i.mutex.Unlock()
	err := i.set(args.Field, strings.TrimRight(string(args.Value), "\n"))
	if err != nil {
		return err
	}
	*reply = 1
	return nil
}

func (i *Info) set(key, value string) error {
	if !strings.HasPrefix(key, Prefix) {
		return fmt.Errorf("cannot hset: %s", key)
	}
	field := strings.TrimPrefix(key, Prefix)
	for _, suffix := range []string{voltageKey, currentKey, enabledKey} {
		if !strings.HasSuffix(field, suffix) {
			continue
		}
		id, err := cli.Lookup(strings.TrimSuffix(field, suffix))
		if err != nil {
			return err
		}
		o := &pmic.Outputs[id]
		switch suffix {
		case enabledKey:
			on, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("%s: %v", key, err)
			}
			if on {
				return i.dev.Enable(id)
			}
			return i.dev.Disable(id)
		case voltageKey, currentKey:
			if !o.Settable() || o.Current != (suffix == currentKey) {
				return errors.Wrap(pmic.ErrNoMap, key)
			}
			lo, hi, err := cli.ParseWindow(id, value)
			if err != nil {
				return fmt.Errorf("%s: %v", key, err)
			}
			return cli.Set(i.dev, id, lo, hi)
		}
	}
	return fmt.Errorf("cannot hset: %s", key)
}
