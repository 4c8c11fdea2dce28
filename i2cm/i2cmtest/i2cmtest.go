// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package i2cmtest is meant to be used to test drivers written against
// i2cm.Master.
package i2cmtest

import (
	"fmt"
	"sync"

	"github.com/GermanBionicSystems/rgbgauge/i2cm"
)

// Kind is the kind of a recorded bus operation.
type Kind int

// Bus operations.
const (
	Start Kind = iota
	Write
	Stop
)

func (k Kind) String() string {
	switch k {
	case Start:
		return "START"
	case Write:
		return "WRITE"
	case Stop:
		return "STOP"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Op is one recorded bus operation.
type Op struct {
	Kind Kind
	B    byte
	Err  error
}

func (o Op) String() string {
	if o.Kind == Write {
		return fmt.Sprintf("WRITE %#02x > %v", o.B, o.Err)
	}
	return fmt.Sprintf("%s > %v", o.Kind, o.Err)
}

// Discard is a Master that acknowledges every byte.
type Discard struct{}

// Start implements i2cm.Master.
func (Discard) Start() error { return nil }

// WriteByte implements i2cm.Master.
func (Discard) WriteByte(b byte) error { return nil }

// Stop implements i2cm.Master.
func (Discard) Stop() error { return nil }

// Record records every operation going through it and forwards it to Master.
//
// A nil Master acknowledges everything.
type Record struct {
	sync.Mutex
	Master i2cm.Master
	Ops    []Op
}

// Start implements i2cm.Master.
func (r *Record) Start() error {
	r.Lock()
	defer r.Unlock()
	var err error
	if r.Master != nil {
		err = r.Master.Start()
	}
	r.Ops = append(r.Ops, Op{Kind: Start, Err: err})
	return err
}

// WriteByte implements i2cm.Master.
func (r *Record) WriteByte(b byte) error {
	r.Lock()
	defer r.Unlock()
	var err error
	if r.Master != nil {
		err = r.Master.WriteByte(b)
	}
	r.Ops = append(r.Ops, Op{Kind: Write, B: b, Err: err})
	return err
}

// Stop implements i2cm.Master.
func (r *Record) Stop() error {
	r.Lock()
	defer r.Unlock()
	var err error
	if r.Master != nil {
		err = r.Master.Stop()
	}
	r.Ops = append(r.Ops, Op{Kind: Stop, Err: err})
	return err
}

// Writes returns the number of bytes written to the bus, acknowledged or not.
func (r *Record) Writes() int {
	r.Lock()
	defer r.Unlock()
	n := 0
	for _, op := range r.Ops {
		if op.Kind == Write {
			n++
		}
	}
	return n
}

// Transactions returns the bytes written, grouped by transaction.
func (r *Record) Transactions() [][]byte {
	r.Lock()
	defer r.Unlock()
	var out [][]byte
	var cur []byte
	open := false
	for _, op := range r.Ops {
		switch op.Kind {
		case Start:
			if open {
				out = append(out, cur)
			}
			cur = []byte{}
			open = true
		case Write:
			cur = append(cur, op.B)
		case Stop:
			if open {
				out = append(out, cur)
			}
			cur = nil
			open = false
		}
	}
	if open {
		out = append(out, cur)
	}
	return out
}

// Reset forgets the recorded operations.
func (r *Record) Reset() {
	r.Lock()
	defer r.Unlock()
	r.Ops = nil
}

// Fault forwards operations to Master until NACK returns true for a written
// byte; that byte is then not forwarded and i2cm.ErrNACK is returned.
//
// Transactions are counted from 0 at each Start, positions from 0 at each
// Start. A nil Master acknowledges everything.
type Fault struct {
	Master i2cm.Master
	NACK   func(tx, pos int) bool

	tx  int
	pos int
}

// NACKAt returns a predicate failing the byte at position pos of transaction
// tx.
func NACKAt(tx, pos int) func(int, int) bool {
	return func(t, p int) bool {
		return t == tx && p == pos
	}
}

// Start implements i2cm.Master.
func (f *Fault) Start() error {
	f.tx++
	f.pos = 0
	if f.Master != nil {
		return f.Master.Start()
	}
	return nil
}

// WriteByte implements i2cm.Master.
func (f *Fault) WriteByte(b byte) error {
	pos := f.pos
	f.pos++
	if f.NACK != nil && f.NACK(f.tx-1, pos) {
		return i2cm.ErrNACK
	}
	if f.Master != nil {
		return f.Master.WriteByte(b)
	}
	return nil
}

// Stop implements i2cm.Master.
func (f *Fault) Stop() error {
	if f.Master != nil {
		return f.Master.Stop()
	}
	return nil
}

var _ i2cm.Master = &Record{}
var _ i2cm.Master = &Fault{}
var _ i2cm.Master = Discard{}
