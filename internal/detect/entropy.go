package detect

import "math"

// ShannonEntropy returns the information density of s in bits per rune.
// The customer-ID detector uses it to reject values that match the ID shape
// but carry no variety, like "1111111111" next to a 会員番号 label.
func ShannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	counts := make(map[rune]int)
	total := 0
	for _, r := range s {
		counts[r]++
		total++
	}
	var bits float64
	for _, n := range counts {
		p := float64(n) / float64(total)
		bits -= p * math.Log2(p)
	}
	return bits
}
