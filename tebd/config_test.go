package tebd

import (
	"fmt"
	"math"
	"strings"
	"testing"

	"qxxz"
)

func TestParseParams(t *testing.T) {
	t.Parallel()
	params := map[string]string{
		"L":             "6",
		"Jxy":           "-1",
		"Jz":            "0.5",
		"hz":            "0",
		"theta":         "0.25",
		"dt":            "0.05",
		"order":         "2",
		"chi_max":       "32",
		"svd_min":       "1e-10",
		"evol_time":     "5",
		"clifford_step": "10",
	}
	c, err := ParseParams(params)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if c.L != 6 || c.Jxy != -1 || c.Jz != 0.5 || c.Hz != 0 {
		t.Fatalf("%#v", c)
	}
	if c.Theta != 0.25 || c.Dt != 0.05 || c.Order != 2 || c.ChiMax != 32 {
		t.Fatalf("%#v", c)
	}
	if c.SvdMin != 1e-10 || c.EvolTime != 5 {
		t.Fatalf("%#v", c)
	}
	// Unset keys keep their defaults.
	if c.Phi != 0 || c.BC != qxxz.Open || c.BCMPS != "finite" {
		t.Fatalf("%#v", c)
	}
	if c.Clifford == nil || c.Clifford.Period != 10 {
		t.Fatalf("%#v", c.Clifford)
	}
}

func TestParseParamsDefaults(t *testing.T) {
	t.Parallel()
	c, err := ParseParams(nil)
	if err != nil {
		t.Fatalf("%+v", err)
	}
	if !(c.L == 10 && c.Jxy == -0.1 && c.Jz == -0.5 && c.Hz == 0.7) {
		t.Fatalf("%#v", c)
	}
	if !(c.Dt == 0.1 && c.Order == 4 && c.ChiMax == 100 && c.SvdMin == 1e-12 && c.EvolTime == 20) {
		t.Fatalf("%#v", c)
	}
	if math.Abs(c.Theta-math.Pi/2) > 1e-15 {
		t.Fatalf("%f", c.Theta)
	}
	if c.Clifford != nil {
		t.Fatalf("%#v", c.Clifford)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("%+v", err)
	}
}

// TestParseParamsUnknownKeys checks that misspelled keys are rejected instead
// of being silently ignored.
func TestParseParamsUnknownKeys(t *testing.T) {
	t.Parallel()
	tests := []struct {
		params map[string]string
		bad    []string
	}{
		{
			params: map[string]string{"chi_Max": "10"},
			bad:    []string{"chi_Max"},
		},
		{
			params: map[string]string{"L": "4", "dtt": "0.1", "jz": "1"},
			bad:    []string{"dtt", "jz"},
		},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%v", test.bad), func(t *testing.T) {
			t.Parallel()
			_, err := ParseParams(test.params)
			if err == nil {
				t.Fatalf("expected error")
			}
			if _, ok := err.(qxxz.ConfigurationError); !ok {
				t.Fatalf("%T %v", err, err)
			}
			for _, k := range test.bad {
				if !strings.Contains(err.Error(), k) {
					t.Fatalf("%v, expected %s", err, k)
				}
			}
		})
	}
}

func TestParseParamsBadValue(t *testing.T) {
	t.Parallel()
	if _, err := ParseParams(map[string]string{"L": "ten"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"small L", func(c *Config) { c.L = 1 }},
		{"bad bc", func(c *Config) { c.BC = "twisted" }},
		{"bad bc_MPS", func(c *Config) { c.BCMPS = "infinite" }},
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"bad order", func(c *Config) { c.Order = 3 }},
		{"zero chi_max", func(c *Config) { c.ChiMax = 0 }},
		{"negative svd_min", func(c *Config) { c.SvdMin = -1e-12 }},
		{"negative evol_time", func(c *Config) { c.EvolTime = -1 }},
		{"zero clifford period", func(c *Config) { c.Clifford = &Clifford{Gate: CNOT(), Period: 0} }},
		{"bad clifford gate", func(c *Config) { c.Clifford = &Clifford{Gate: [][]complex64{{1}}, Period: 1} }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			c := NewConfig()
			test.modify(&c)
			err := c.Validate()
			if err == nil {
				t.Fatalf("expected error")
			}
			if _, ok := err.(qxxz.ConfigurationError); !ok {
				t.Fatalf("%T %v", err, err)
			}
		})
	}
}
