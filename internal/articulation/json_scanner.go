package articulation

// scanObjects walks s and yields every top-level JSON object candidate in
// order of appearance, stopping early when yield returns false. Braces inside
// string literals are ignored, as are escaped quotes.
//
// Iterating bytes is safe for the ASCII delimiters ({, }, ", \) because UTF-8
// never reuses ASCII bytes inside multi-byte sequences.
func scanObjects(s string, yield func(candidate string) bool) {
	depth := 0
	start := -1
	inString := false
	escape := false

	for i := 0; i < len(s); i++ {
		b := s[i]

		if escape {
			escape = false
			continue
		}
		if inString {
			switch b {
			case '\\':
				escape = true
			case '"':
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			// Quotes only matter once an object has opened.
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start != -1 {
				if !yield(s[start : i+1]) {
					return
				}
				start = -1
			}
		}
	}
}

// findJSONCandidates returns every top-level object candidate in s, in order.
func findJSONCandidates(s string) []string {
	var out []string
	scanObjects(s, func(c string) bool {
		out = append(out, c)
		return true
	})
	return out
}
