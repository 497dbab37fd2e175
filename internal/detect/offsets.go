package detect

// runeOffsets maps byte offsets of text to rune offsets. Returned table has
// an entry per byte position plus one for len(text); bytes inside a rune map
// to that rune's index.
func runeOffsets(text string) []int {
	table := make([]int, len(text)+1)
	ri := 0
	prev := 0
	for bi := range text {
		for p := prev; p < bi; p++ {
			table[p] = ri - 1
		}
		table[bi] = ri
		prev = bi + 1
		ri++
	}
	for p := prev; p < len(text); p++ {
		table[p] = ri - 1
	}
	table[len(text)] = ri
	return table
}
