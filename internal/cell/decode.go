package cell

import (
	"fmt"
	"strconv"
	"strings"
)

// DecodeError reports a packed value (or feed key) this package refused to
// interpret. The offending event is dropped; the pipeline keeps running.
type DecodeError struct {
	Value  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q: %s", e.Value, e.Reason)
}

// DecodePacked parses the packed hex state of one cell. From the
// least-significant nibble up the layout is: team (1 nibble), powerup value
// (2 nibbles), powerup kind (1 nibble), owner identity fragment (all
// remaining nibbles, leading zeros insignificant). The all-zero value is the
// unowned sentinel.
//
// A non-sentinel value whose owner fragment comes out empty is rejected
// rather than treated as unowned: it is ambiguous with the sentinel and the
// gateway never emits it for a legally owned cell.
//
// Coordinates are not part of the packed value; callers fill them in from
// the event payload or the key table.
func DecodePacked(packed string) (Cell, error) {
	raw := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(packed)), "0x")
	if raw == "" {
		return Cell{}, &DecodeError{Value: packed, Reason: "empty value"}
	}
	for i := 0; i < len(raw); i++ {
		if !isHexDigit(raw[i]) {
			return Cell{}, &DecodeError{Value: packed, Reason: "malformed hex"}
		}
	}

	digits := strings.TrimLeft(raw, "0")
	if digits == "" {
		// Sentinel: unowned, no powerup, team 0.
		return Cell{}, nil
	}
	if len(digits) <= 4 {
		return Cell{}, &DecodeError{Value: packed, Reason: "owner fragment empty"}
	}

	owner := digits[:len(digits)-4]
	kind := hexNibble(digits[len(digits)-4])
	if kind > uint8(PowerupMultiplier) {
		return Cell{}, &DecodeError{Value: packed, Reason: fmt.Sprintf("powerup kind %d out of range", kind)}
	}
	value, err := strconv.ParseUint(digits[len(digits)-3:len(digits)-1], 16, 8)
	if err != nil {
		return Cell{}, &DecodeError{Value: packed, Reason: "malformed powerup value"}
	}

	return Cell{
		Owner:        owner,
		Powerup:      PowerupKind(kind),
		PowerupValue: uint8(value),
		Team:         hexNibble(digits[len(digits)-1]),
	}, nil
}

// NormalizeIdentity reduces a hex account id to the form an owner fragment
// takes in a packed value: no 0x prefix, no leading zeros, lower case.
func NormalizeIdentity(id string) string {
	return strings.TrimLeft(strings.TrimPrefix(strings.ToLower(strings.TrimSpace(id)), "0x"), "0")
}

func isHexDigit(b byte) bool {
	return b >= '0' && b <= '9' || b >= 'a' && b <= 'f'
}

func hexNibble(b byte) uint8 {
	if b >= 'a' {
		return b - 'a' + 10
	}
	return b - '0'
}
