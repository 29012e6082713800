package layout

// Align8 returns n aligned up to the next 8-byte boundary. Item sizes are
// stored 8-byte aligned in both the flat heap and partitions.
func Align8(n int) int {
	return (n + 7) &^ 7
}

// AlignTo returns n aligned up to the next multiple of align. A zero or
// negative align is treated as 1 so a malformed cacheline value from the
// table cannot divide by zero; callers validate separately.
func AlignTo(n, align int) int {
	if align <= 1 {
		return n
	}
	rem := n % align
	if rem == 0 {
		return n
	}
	return n + align - rem
}
