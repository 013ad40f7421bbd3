package cell

import (
	"errors"
	"testing"
)

func TestDecodePacked_Sentinel(t *testing.T) {
	for _, packed := range []string{"0x0", "0x000000", "0", "0x00000000000000"} {
		c, err := DecodePacked(packed)
		if err != nil {
			t.Fatalf("decode %q: %v", packed, err)
		}
		if !c.Unowned() || c.Powerup != PowerupNone || c.PowerupValue != 0 || c.Team != 0 {
			t.Fatalf("decode %q: expected unowned zero cell, got %+v", packed, c)
		}
	}
}

func TestDecodePacked_Owned(t *testing.T) {
	// owner "deadbeef", kind multiplier, value 0xa0=160, team 3.
	c, err := DecodePacked("0xdeadbeef1a03")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if c.Owner != "deadbeef" {
		t.Fatalf("owner = %q", c.Owner)
	}
	if c.Powerup != PowerupMultiplier {
		t.Fatalf("powerup = %v", c.Powerup)
	}
	if c.PowerupValue != 0xa0 {
		t.Fatalf("powerup value = %d", c.PowerupValue)
	}
	if c.Team != 3 {
		t.Fatalf("team = %d", c.Team)
	}
}

func TestDecodePacked_LeadingZerosInsignificant(t *testing.T) {
	a, err := DecodePacked("0x10f0f")
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	b, err := DecodePacked("0x0000010f0f")
	if err != nil {
		t.Fatalf("decode padded: %v", err)
	}
	if a != b {
		t.Fatalf("padding changed result: %+v vs %+v", a, b)
	}
}

func TestDecodePacked_Bounds(t *testing.T) {
	// Any valid non-sentinel value keeps the byte/nibble fields in range.
	for _, packed := range []string{"0x50fff", "0xabc0000", "0x11ffe", "0xffffffffffff1fff"} {
		c, err := DecodePacked(packed)
		if err != nil {
			t.Fatalf("decode %q: %v", packed, err)
		}
		if c.Team > 15 {
			t.Fatalf("decode %q: team %d out of nibble range", packed, c.Team)
		}
	}
}

func TestDecodePacked_Errors(t *testing.T) {
	cases := []struct {
		packed string
		reason string
	}{
		{"", "empty"},
		{"0x", "empty"},
		{"0xzz12", "malformed hex"},
		{"not hex", "malformed hex"},
		// Kind nibble 0xa is outside the known powerup range.
		{"0x1a2b3", "out of range"},
		// Owner fragment empty after dropping the final four nibbles:
		// ambiguous with the sentinel, rejected.
		{"0x00001", "empty"},
		{"0x1fff", "empty"},
	}
	for _, tc := range cases {
		_, err := DecodePacked(tc.packed)
		if err == nil {
			t.Fatalf("decode %q: expected error", tc.packed)
		}
		var de *DecodeError
		if !errors.As(err, &de) {
			t.Fatalf("decode %q: expected DecodeError, got %T", tc.packed, err)
		}
	}
}

func TestCoordsFromIndex(t *testing.T) {
	cases := []struct {
		i, x, y int
	}{
		{0, 0, 0},
		{1, 0, 1},
		{255, 0, 255},
		{256, 1, 0},
		{256*256 - 1, 255, 255},
	}
	for _, tc := range cases {
		x, y := CoordsFromIndex(tc.i)
		if x != tc.x || y != tc.y {
			t.Fatalf("index %d: got (%d,%d), want (%d,%d)", tc.i, x, y, tc.x, tc.y)
		}
	}
}

func TestNormalizeIdentity(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"0xDEADBEEF", "deadbeef"},
		{"0x000deadbeef", "deadbeef"},
		{" deadbeef ", "deadbeef"},
		{"0x0", ""},
	}
	for _, tc := range cases {
		if got := NormalizeIdentity(tc.in); got != tc.want {
			t.Fatalf("normalize %q = %q, want %q", tc.in, got, tc.want)
		}
	}
}
