// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package termgauge

import (
	"bytes"
	"strings"
	"testing"

	"github.com/maruel/ansi256"
)

func TestShow(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf, nil)
	if err := d.Show([3]int{3, 0, 9}, 5); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.HasPrefix(out, "\r\033[0m") {
		t.Fatalf("missing line reset: %q", out)
	}
	p := ansi256.Default
	red := p.Block(DefaultOpts.Colors[0])
	green := p.Block(DefaultOpts.Colors[1])
	blue := p.Block(DefaultOpts.Colors[2])
	empty := p.Block(DefaultOpts.Empty)
	want := "\r\033[0m" +
		strings.Repeat(red, 3) + strings.Repeat(empty, 2) + "\033[0m " +
		strings.Repeat(empty, 5) + "\033[0m " +
		strings.Repeat(blue, 5) + "\033[0m "
	if out != want {
		t.Fatalf("got %q\nwant %q", out, want)
	}
	if strings.Contains(out, green) {
		t.Error("green gauge should be empty")
	}

	// Each call redraws the line, it doesn't accumulate.
	buf.Reset()
	if err := d.Show([3]int{-1, 0, 0}, 2); err != nil {
		t.Fatal(err)
	}
	if got := strings.Count(buf.String(), empty); got != 6 {
		t.Errorf("got %d empty cells, want 6", got)
	}
}

func TestShowInvalid(t *testing.T) {
	var buf bytes.Buffer
	if err := New(&buf, nil).Show([3]int{}, -1); err == nil {
		t.Error("expected error")
	}
	if buf.Len() != 0 {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestHalt(t *testing.T) {
	var buf bytes.Buffer
	d := New(&buf, nil)
	if s := d.String(); s != "TermGauge" {
		t.Fatal(s)
	}
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "\n\033[0m" {
		t.Fatalf("got %q", buf.String())
	}
}
