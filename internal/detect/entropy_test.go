package detect

import "testing"

func TestShannonEntropy(t *testing.T) {
	if got := ShannonEntropy(""); got != 0 {
		t.Errorf("empty string entropy = %v", got)
	}
	if got := ShannonEntropy("1111111111"); got != 0 {
		t.Errorf("single-symbol entropy = %v, want 0", got)
	}
	// Two symbols in equal proportion carry exactly one bit per rune.
	if got := ShannonEntropy("abab"); got != 1 {
		t.Errorf("two-symbol entropy = %v, want 1", got)
	}
	if low, high := ShannonEntropy("aab"), ShannonEntropy("AB12-9983X"); low >= high {
		t.Errorf("entropy ordering: %v >= %v", low, high)
	}
}
