// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

package cmd

import (
	"reflect"
	"testing"
)

func TestSwap(t *testing.T) {
	for _, x := range []struct {
		in, out []string
	}{
		{[]string{"max8997", "-help"}, []string{"help", "max8997"}},
		{[]string{"max8997", "--usage"}, []string{"usage", "max8997"}},
		{[]string{"-apropos"}, []string{"apropos"}},
		{[]string{"max8997", "-f", "show"}, []string{"max8997", "-f", "show"}},
		{[]string{}, []string{}},
	} {
		args := append([]string{}, x.in...)
		Swap(args)
		if !reflect.DeepEqual(args, x.out) {
			t.Error("wrong:", args)
		}
	}
}

func TestInit(t *testing.T) {
	n := 0
	Initters = map[string]func(){
		"max8997d": func() { n++ },
	}
	defer func() { Initters = nil }()
	Init("max8997d")
	Init("max8997d")
	Init("nosuch")
	if n != 1 {
		t.Error("wrong:", n)
	}
}

func TestKind(t *testing.T) {
	if !Daemon.IsDaemon() || Daemon.IsInteractive() {
		t.Error("wrong daemon")
	}
	if !Kind(0).IsInteractive() || Kind(0).String() != "interactive" {
		t.Error("wrong interactive")
	}
	if s := (Daemon | Hidden).String(); s != "unknown" {
		t.Error("wrong:", s)
	}
}
