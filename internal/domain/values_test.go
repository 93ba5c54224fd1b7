package domain

import (
	"math"
	"testing"
)

func TestCoerceInt(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		want   int64
		wantOK bool
	}{
		{name: "int", input: 42, want: 42, wantOK: true},
		{name: "negative int", input: -7, want: -7, wantOK: true},
		{name: "bool true", input: true, want: 1, wantOK: true},
		{name: "bool false", input: false, want: 0, wantOK: true},
		{name: "float truncates toward zero", input: 3.9, want: 3, wantOK: true},
		{name: "negative float truncates toward zero", input: -3.9, want: -3, wantOK: true},
		{name: "decimal string", input: "123", want: 123, wantOK: true},
		{name: "padded string", input: "  123  ", want: 123, wantOK: true},
		{name: "hex string", input: "0x1F", want: 31, wantOK: true},
		{name: "uppercase hex string", input: "0XFF", want: 255, wantOK: true},
		{name: "float string", input: "12.7", want: 12, wantOK: true},
		{name: "bytes", input: []byte("99"), want: 99, wantOK: true},
		{name: "uint32", input: uint32(0xFFFFFFFF), want: 4294967295, wantOK: true},
		{name: "nil", input: nil, wantOK: false},
		{name: "empty string", input: "", wantOK: false},
		{name: "blank string", input: "   ", wantOK: false},
		{name: "garbage string", input: "not-a-number", wantOK: false},
		{name: "nan", input: math.NaN(), wantOK: false},
		{name: "positive infinity", input: math.Inf(1), wantOK: false},
		{name: "infinity string", input: "+Inf", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CoerceInt(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("CoerceInt(%v) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Fatalf("CoerceInt(%v) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestCoerceFloat(t *testing.T) {
	tests := []struct {
		name   string
		input  any
		want   float64
		wantOK bool
	}{
		{name: "float", input: 3.5, want: 3.5, wantOK: true},
		{name: "int", input: 7, want: 7, wantOK: true},
		{name: "bool", input: true, want: 1, wantOK: true},
		{name: "string", input: "-12.25", want: -12.25, wantOK: true},
		{name: "bytes", input: []byte("0.5"), want: 0.5, wantOK: true},
		{name: "nil", input: nil, wantOK: false},
		{name: "empty string", input: "", wantOK: false},
		{name: "nan", input: math.NaN(), wantOK: false},
		{name: "negative infinity", input: math.Inf(-1), wantOK: false},
		{name: "infinity string", input: "Inf", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CoerceFloat(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("CoerceFloat(%v) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if ok && got != tt.want {
				t.Fatalf("CoerceFloat(%v) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestIso(t *testing.T) {
	tests := []struct {
		name  string
		input float64
		want  string
	}{
		{name: "whole seconds", input: 1_700_000_000, want: "2023-11-14T22:13:20Z"},
		{name: "epoch", input: 0, want: "1970-01-01T00:00:00Z"},
		{name: "fraction", input: 1_700_000_000.5, want: "2023-11-14T22:13:20.5Z"},
		{name: "fraction trims zeros", input: 1_700_000_000.25, want: "2023-11-14T22:13:20.25Z"},
		{name: "tiny fraction drops", input: 1_700_000_000.00001, want: "2023-11-14T22:13:20Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Iso(tt.input); got != tt.want {
				t.Fatalf("Iso(%v) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
