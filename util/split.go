package util

// SplitBalanced splits text on the delimiter, ignoring delimiters nested
// inside (), [], <> or {} pairs. Used to split attribute argument lists and
// seed arrays without misreading nested expressions.
func SplitBalanced(text string, delimiter rune) []string {
	var parts []string
	var current []rune
	var round, square, angle, curly int

	for _, ch := range text {
		switch ch {
		case '(':
			round++
		case ')':
			round--
		case '[':
			square++
		case ']':
			square--
		case '<':
			angle++
		case '>':
			angle--
		case '{':
			curly++
		case '}':
			curly--
		case delimiter:
			if round == 0 && square == 0 && angle == 0 && curly == 0 {
				parts = append(parts, string(current))
				current = current[:0]
				continue
			}
		}
		current = append(current, ch)
	}

	if len(current) > 0 {
		parts = append(parts, string(current))
	}

	return parts
}
