// Copyright © 2015-2020 Platina Systems, Inc. All rights reserved.
// Use of this source code is governed by the GPL-2 license described in the
// LICENSE file.

// Package devlock serializes the processes that share a device through an
// advisory lock on a file.
package devlock

import (
	"os"
	"path/filepath"
	"sync"

	"github.com/platinasystems/log"
	"golang.org/x/sys/unix"
)

// File is a sync.Locker held against other goroutines by a mutex and
// against other processes by flock(2).
type File struct {
	Path string

	mutex sync.Mutex
	f     *os.File
}

var files struct {
	sync.Mutex
	byPath map[string]*File
}

// Open returns the lock of path, creating the file as needed. Callers in one
// process share the File; a second descriptor would block on the first.
func Open(path string) (*File, error) {
	files.Lock()
	defer files.Unlock()
	if l, found := files.byPath[path]; found {
		return l, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, err
	}
	if files.byPath == nil {
		files.byPath = make(map[string]*File)
	}
	l := &File{Path: path, f: f}
	files.byPath[path] = l
	return l, nil
}

func (l *File) Lock() {
	l.mutex.Lock()
	for {
		err := unix.Flock(int(l.f.Fd()), unix.LOCK_EX)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			log.Print("daemon", "err", l.Path, ": ", err)
		}
		return
	}
}

func (l *File) Unlock() {
	if err := unix.Flock(int(l.f.Fd()), unix.LOCK_UN); err != nil {
		log.Print("daemon", "err", l.Path, ": ", err)
	}
	l.mutex.Unlock()
}
