package pattern

import "strings"

// Match tests name against the pattern. On success it returns the
// variable bindings keyed by brace form ("{var}", "{{var}}"); patterns
// without variables return an empty, non-nil map.
func (p *Pattern) Match(name string) (map[string]string, bool) {
	bindings := make(map[string]string)
	if !p.match(0, name, 0, bindings) {
		return nil, false
	}
	return bindings, true
}

// Matches reports whether name matches the pattern.
func (p *Pattern) Matches(name string) bool {
	_, ok := p.Match(name)
	return ok
}

// match is a backtracking matcher over the token list. Variable-length
// tokens try the longest candidate first, mirroring greedy regexp
// semantics.
func (p *Pattern) match(ti int, name string, pos int, bindings map[string]string) bool {
	if ti == len(p.tokens) {
		return pos == len(name)
	}
	tok := p.tokens[ti]
	atSegStart := pos == 0 || name[pos-1] == '/'

	switch tok.kind {
	case tokLiteral:
		if !strings.HasPrefix(name[pos:], tok.text) {
			return false
		}
		return p.match(ti+1, name, pos+len(tok.text), bindings)

	case tokQuestion:
		if pos >= len(name) || name[pos] == '/' {
			return false
		}
		if atSegStart && name[pos] == '.' {
			return false
		}
		return p.match(ti+1, name, pos+1, bindings)

	case tokClass:
		if pos >= len(name) || name[pos] == '/' {
			return false
		}
		if atSegStart && name[pos] == '.' {
			return false
		}
		if classMatches(tok.text, name[pos]) == tok.negate {
			return false
		}
		return p.match(ti+1, name, pos+1, bindings)

	case tokStar:
		if atSegStart && pos < len(name) && name[pos] == '.' {
			return false
		}
		limit := segmentEnd(name, pos)
		for end := limit; end >= pos; end-- {
			if p.match(ti+1, name, end, bindings) {
				return true
			}
		}
		return false

	case tokStarStar:
		if atSegStart && pos < len(name) && name[pos] == '.' {
			return false
		}
		for end := len(name); end >= pos; end-- {
			// ** must not cross into a dot segment.
			if strings.Contains(name[pos:end], "/.") {
				continue
			}
			if p.match(ti+1, name, end, bindings) {
				return true
			}
		}
		return false

	case tokVar:
		key := "{" + tok.text + "}"
		if bound, ok := bindings[key]; ok {
			if !strings.HasPrefix(name[pos:], bound) {
				return false
			}
			return p.match(ti+1, name, pos+len(bound), bindings)
		}
		limit := segmentEnd(name, pos)
		for end := limit; end >= pos; end-- {
			bindings[key] = name[pos:end]
			if p.match(ti+1, name, end, bindings) {
				return true
			}
		}
		delete(bindings, key)
		return false

	case tokVarPath:
		key := "{{" + tok.text + "}}"
		if bound, ok := bindings[key]; ok {
			if !strings.HasPrefix(name[pos:], bound) {
				return false
			}
			return p.match(ti+1, name, pos+len(bound), bindings)
		}
		for end := len(name); end >= pos; end-- {
			bindings[key] = name[pos:end]
			if p.match(ti+1, name, end, bindings) {
				return true
			}
		}
		delete(bindings, key)
		return false
	}
	return false
}

func segmentEnd(name string, pos int) int {
	if i := strings.IndexByte(name[pos:], '/'); i >= 0 {
		return pos + i
	}
	return len(name)
}

// classMatches reports whether c is a member of the class body, which
// supports a-z ranges.
func classMatches(body string, c byte) bool {
	for i := 0; i < len(body); i++ {
		if i+2 < len(body) && body[i+1] == '-' {
			if body[i] <= c && c <= body[i+2] {
				return true
			}
			i += 2
			continue
		}
		if body[i] == c {
			return true
		}
	}
	return false
}
