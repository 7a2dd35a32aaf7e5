// LiveShop - Live Shopping Broadcast Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/liveshop

package label

import (
	"bytes"
	"image/png"
	"strings"
	"testing"
	"time"
)

var fixedInstant = time.Date(2026, 5, 12, 19, 4, 11, 0, time.UTC)

func TestProgramGeometry(t *testing.T) {
	p := string(Program("10299", "19.99", fixedInstant))

	if !strings.HasPrefix(p, "^XA") {
		t.Errorf("program must start with ^XA:\n%s", p)
	}
	if !strings.HasSuffix(strings.TrimSpace(p), "^XZ") {
		t.Errorf("program must end with ^XZ:\n%s", p)
	}
	for _, token := range []string{"^PW320", "^LL200", "^MTD", "^MNY"} {
		if !strings.Contains(p, token) {
			t.Errorf("missing %s in:\n%s", token, p)
		}
	}
}

func TestProgramRegions(t *testing.T) {
	p := string(Program("10299", "19.99", fixedInstant))

	tests := []struct {
		name string
		want string
	}{
		{"timestamp", "^FO30,30^A0N,20,20^FD12.05.26 19:04:11^FS"},
		{"centre", "^FO160,120^FB160,1,0,C,0^A0N,60,60^FD299^FS"},
		{"prefix", "^FO30,180^A0N,30,30^FD10^FS"},
		{"price", "^FO250,180^A0N,30,30^FD1999^FS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !strings.Contains(p, tt.want) {
				t.Errorf("missing %q in:\n%s", tt.want, p)
			}
		})
	}
}

func TestProgramDeterministic(t *testing.T) {
	a := Program("ABCDEFGH", "17,00", fixedInstant)
	b := Program("ABCDEFGH", "17,00", fixedInstant)
	if !bytes.Equal(a, b) {
		t.Error("same inputs produced different programs")
	}
	c := Program("ABCDEFGH", "17,00", fixedInstant.Add(time.Second))
	if bytes.Equal(a, c) {
		t.Error("different instants should change the timestamp field")
	}
}

func TestProgramOmitsEmptyPrefix(t *testing.T) {
	p := string(Program("EFG", "17,00", fixedInstant))
	if strings.Contains(p, "^FO30,180") {
		t.Errorf("prefix field should be omitted for a 3-char number:\n%s", p)
	}
	if !strings.Contains(p, "^FDEFG^FS") {
		t.Errorf("centre should hold the whole number:\n%s", p)
	}
}

func TestProgramSanitizesFieldData(t *testing.T) {
	p := string(Program("^XZ~JR123", "1", fixedInstant))
	if strings.Count(p, "^XZ") != 1 {
		t.Errorf("field data injected a command:\n%s", p)
	}
}

func TestSplitCustomerNumber(t *testing.T) {
	tests := []struct {
		in, prefix, tail string
	}{
		{"10299", "10", "299"},
		{"EFGH", "E", "FGH"},
		{"299", "", "299"},
		{"9", "", "9"},
		{"", "", ""},
	}
	for _, tt := range tests {
		p, tail := SplitCustomerNumber(tt.in)
		if p != tt.prefix || tail != tt.tail {
			t.Errorf("SplitCustomerNumber(%q) = %q, %q; want %q, %q", tt.in, p, tail, tt.prefix, tt.tail)
		}
	}
}

func TestPriceDigits(t *testing.T) {
	tests := map[string]string{
		"19.99":   "1999",
		"17,00":   "1700",
		"€ 8,50":  "850",
		"1.234,5": "12345",
		"":        "",
	}
	for in, want := range tests {
		if got := PriceDigits(in); got != want {
			t.Errorf("PriceDigits(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPNG(t *testing.T) {
	var buf bytes.Buffer
	if err := PNG(&buf, "10299", "19.99", fixedInstant, 2); err != nil {
		t.Fatalf("PNG() error = %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != 640 || b.Dy() != 400 {
		t.Errorf("preview size = %dx%d, want 640x400", b.Dx(), b.Dy())
	}

	// Some ink must land in the centre region.
	dark := 0
	for y := 240; y < 360 && y < b.Max.Y; y++ {
		for x := 320; x < 640; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if r < 0x4000 && g < 0x4000 && bl < 0x4000 {
				dark++
			}
		}
	}
	if dark == 0 {
		t.Error("expected dark pixels in the centre region")
	}
}

func TestTestProgram(t *testing.T) {
	p := string(TestProgram(fixedInstant))
	if !strings.Contains(p, "^XA") || !strings.Contains(p, "^FDTEST^FS") {
		t.Errorf("unexpected test program:\n%s", p)
	}
}
