package pubsub

// matchGlob implements the small Redis-style glob subset pattern
// subscriptions use: '*' (any run), '?' (any one char), and '[...]'
// character classes (with an optional leading '^' negation).
func matchGlob(pattern, text string) bool {
	return matchGlobBytes([]byte(pattern), []byte(text))
}

func matchGlobBytes(p, s []byte) bool {
	for len(p) > 0 {
		switch p[0] {
		case '*':
			for len(p) > 1 && p[1] == '*' {
				p = p[1:]
			}
			if len(p) == 1 {
				return true
			}
			for i := 0; i <= len(s); i++ {
				if matchGlobBytes(p[1:], s[i:]) {
					return true
				}
			}
			return false
		case '?':
			if len(s) == 0 {
				return false
			}
			p, s = p[1:], s[1:]
		case '[':
			if len(s) == 0 {
				return false
			}
			end := indexByte(p, ']')
			if end < 0 {
				return p[0] == s[0] && matchGlobBytes(p[1:], s[1:])
			}
			class := p[1:end]
			negate := false
			if len(class) > 0 && class[0] == '^' {
				negate = true
				class = class[1:]
			}
			if classMatches(class, s[0]) == negate {
				return false
			}
			p, s = p[end+1:], s[1:]
		default:
			if len(s) == 0 || p[0] != s[0] {
				return false
			}
			p, s = p[1:], s[1:]
		}
	}
	return len(s) == 0
}

func classMatches(class []byte, c byte) bool {
	for i := 0; i < len(class); i++ {
		if i+2 < len(class) && class[i+1] == '-' {
			if class[i] <= c && c <= class[i+2] {
				return true
			}
			i += 2
			continue
		}
		if class[i] == c {
			return true
		}
	}
	return false
}

func indexByte(b []byte, c byte) int {
	for i, v := range b {
		if v == c {
			return i
		}
	}
	return -1
}
