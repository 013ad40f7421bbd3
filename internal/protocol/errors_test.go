package protocol

import "testing"

func TestIsKnownCode(t *testing.T) {
	if !IsKnownCode("") {
		t.Fatalf("empty code should pass")
	}
	if !IsKnownCode(ErrRateLimit) {
		t.Fatalf("%s should be known", ErrRateLimit)
	}
	if IsKnownCode("E_MADE_UP") {
		t.Fatalf("unknown code accepted")
	}
}
