package mapping

// MapByContent maps sourceLocation in sourceText to the corresponding
// offset in targetText using only the two texts.
//
// The common prefix maps offset for offset, the common suffix maps offset
// for offset measured from the end, and the differing middle of the source
// maps proportionally onto the differing middle of the target.
func MapByContent(sourceText string, sourceLocation int, targetText string) int {
	return mapRunes([]rune(sourceText), sourceLocation, []rune(targetText))
}

// MapByContentReverse maps targetLocation in targetText back to sourceText.
// The prefix and suffix are computed exactly as MapByContent does; only the
// direction of the proportional step differs.
func MapByContentReverse(sourceText, targetText string, targetLocation int) int {
	return mapRunes([]rune(targetText), targetLocation, []rune(sourceText))
}

// mapRunes is the content mapper on rune slices.
func mapRunes(from []rune, x int, to []rune) int {
	x = clamp(x, 0, len(from))
	p, s := commonAffixes(from, to)

	if x <= p {
		return x
	}
	if x >= len(from)-s {
		return len(to) - (len(from) - x)
	}
	fromMiddle := len(from) - p - s
	toMiddle := len(to) - p - s
	return p + MapBetweenLengths(x-p, fromMiddle, toMiddle)
}

// commonAffixes returns the lengths of the common prefix and common suffix
// of a and b. The suffix never overlaps the prefix in either slice, so
// p+s <= min(len(a), len(b)).
func commonAffixes(a, b []rune) (prefix, suffix int) {
	n := min(len(a), len(b))
	for prefix < n && a[prefix] == b[prefix] {
		prefix++
	}
	limit := n - prefix
	for suffix < limit && a[len(a)-1-suffix] == b[len(b)-1-suffix] {
		suffix++
	}
	return prefix, suffix
}
