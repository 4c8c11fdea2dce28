// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package i2cm

import (
	"errors"
	"fmt"
)

// Txer is a transaction level bus. periph.io's i2c.Bus implements it.
type Txer interface {
	Tx(addr uint16, w, r []byte) error
}

// TxMaster adapts a transaction level bus to Master.
//
// The bytes written between Start and Stop are buffered and sent as one Tx on
// Stop. The first byte is the address byte, so only write transactions are
// supported. The bus error, if any, is returned by Stop.
type TxMaster struct {
	bus  Txer
	open bool
	buf  []byte
}

// NewTxMaster returns a Master that sends its transactions over bus.
func NewTxMaster(bus Txer) *TxMaster {
	return &TxMaster{bus: bus}
}

func (m *TxMaster) String() string {
	if s, ok := m.bus.(fmt.Stringer); ok {
		return s.String()
	}
	return "i2cm.TxMaster"
}

// Start implements Master.
//
// A repeated start flushes the bytes written so far as their own Tx.
func (m *TxMaster) Start() error {
	if m.open && len(m.buf) != 0 {
		if err := m.flush(); err != nil {
			return err
		}
	}
	m.open = true
	m.buf = m.buf[:0]
	return nil
}

// WriteByte implements Master.
func (m *TxMaster) WriteByte(b byte) error {
	if !m.open {
		return ErrNotStarted
	}
	if len(m.buf) == 0 && b&1 != 0 {
		return errors.New("i2cm: read transactions are not supported")
	}
	m.buf = append(m.buf, b)
	return nil
}

// Stop implements Master.
func (m *TxMaster) Stop() error {
	if !m.open {
		return ErrNotStarted
	}
	m.open = false
	if len(m.buf) == 0 {
		return nil
	}
	return m.flush()
}

func (m *TxMaster) flush() error {
	addr := uint16(m.buf[0] >> 1)
	err := m.bus.Tx(addr, m.buf[1:], nil)
	m.buf = m.buf[:0]
	if err != nil {
		return fmt.Errorf("i2cm: tx to %#02x: %w", addr, err)
	}
	return nil
}

var _ Master = &TxMaster{}
