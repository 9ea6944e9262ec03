// Package pattern implements the file patterns used by compile rules.
//
// A pattern is a root-relative slash path mixing glob syntax with named
// variables:
//
//	*        any run of characters within one path segment
//	**       any run of characters, possibly spanning segments
//	?        any single character except /
//	[abc]    character class, [!abc] negates
//	{var}    like *, but captures the matched text under "{var}"
//	{{var}}  like **, but captures under "{{var}}"
//
// Globs never match a path segment that starts with a dot, and ** never
// descends into dot directories. Variable captures carry no such guard. A
// variable repeated within one pattern must match the same text each
// time.
package pattern

import (
	"strings"

	"go.trai.ch/zerr"
)

type tokenKind int

const (
	tokLiteral tokenKind = iota
	tokStar
	tokStarStar
	tokQuestion
	tokClass
	tokVar     // {var}
	tokVarPath // {{var}}
)

type token struct {
	kind   tokenKind
	text   string // literal text, variable name, or class body
	negate bool   // class negation
}

// Pattern is a compiled file pattern.
type Pattern struct {
	raw    string
	tokens []token

	numVars       int
	numDirParts   int
	numExtensions int
}

// HasMeta reports whether s contains glob metacharacters.
func HasMeta(s string) bool {
	return strings.ContainsAny(s, "*?[")
}

// Compile parses raw into a Pattern.
func Compile(raw string) (*Pattern, error) {
	p := &Pattern{raw: raw}
	i := 0
	for i < len(raw) {
		switch raw[i] {
		case '{':
			if strings.HasPrefix(raw[i:], "{{") {
				j := strings.Index(raw[i:], "}}")
				if j < 0 {
					return nil, badPattern(raw, "unclosed {{")
				}
				name := raw[i+2 : i+j]
				if err := checkVarName(raw, name); err != nil {
					return nil, err
				}
				p.tokens = append(p.tokens, token{kind: tokVarPath, text: name})
				i += j + 2
			} else {
				j := strings.IndexByte(raw[i:], '}')
				if j < 0 {
					return nil, badPattern(raw, "unclosed {")
				}
				name := raw[i+1 : i+j]
				if err := checkVarName(raw, name); err != nil {
					return nil, err
				}
				p.tokens = append(p.tokens, token{kind: tokVar, text: name})
				i += j + 1
			}
		case '*':
			if strings.HasPrefix(raw[i:], "**") {
				p.tokens = append(p.tokens, token{kind: tokStarStar})
				i += 2
			} else {
				p.tokens = append(p.tokens, token{kind: tokStar})
				i++
			}
		case '?':
			p.tokens = append(p.tokens, token{kind: tokQuestion})
			i++
		case '[':
			tok, consumed, ok := parseClass(raw[i:])
			if !ok {
				// No closing bracket: treat the [ as a literal, same as
				// fnmatch.
				p.appendLiteral("[")
				i++
				break
			}
			p.tokens = append(p.tokens, tok)
			i += consumed
		case '}':
			return nil, badPattern(raw, "unmatched }")
		default:
			j := i
			for j < len(raw) && !strings.ContainsRune("*?[{}", rune(raw[j])) {
				j++
			}
			p.appendLiteral(raw[i:j])
			i = j
		}
	}
	p.computeSpecificity()
	return p, nil
}

// MustCompile is Compile for patterns known valid at program start.
func MustCompile(raw string) *Pattern {
	p, err := Compile(raw)
	if err != nil {
		panic(err)
	}
	return p
}

func badPattern(raw, msg string) error {
	return zerr.With(zerr.New("invalid file pattern: "+msg), "pattern", raw)
}

func checkVarName(raw, name string) error {
	if name == "" {
		return badPattern(raw, "empty variable name")
	}
	if strings.ContainsAny(name, "/{}*?[") {
		return badPattern(raw, "invalid variable name "+name)
	}
	return nil
}

func (p *Pattern) appendLiteral(s string) {
	if n := len(p.tokens); n > 0 && p.tokens[n-1].kind == tokLiteral {
		p.tokens[n-1].text += s
		return
	}
	p.tokens = append(p.tokens, token{kind: tokLiteral, text: s})
}

// parseClass parses a leading [...] class. The body may start with ! to
// negate, and a ] directly after the opening (or the !) is a literal
// member.
func parseClass(s string) (token, int, bool) {
	j := 1
	if j < len(s) && s[j] == '!' {
		j++
	}
	if j < len(s) && s[j] == ']' {
		j++
	}
	end := strings.IndexByte(s[j:], ']')
	if end < 0 {
		return token{}, 0, false
	}
	end += j
	body := s[1:end]
	tok := token{kind: tokClass}
	if strings.HasPrefix(body, "!") {
		tok.negate = true
		body = body[1:]
	}
	tok.text = body
	return tok, end + 1, true
}

// String returns the pattern source text.
func (p *Pattern) String() string { return p.raw }

// Vars returns the distinct variable keys the pattern captures, in their
// brace form.
func (p *Pattern) Vars() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range p.tokens {
		var key string
		switch t.kind {
		case tokVar:
			key = "{" + t.text + "}"
		case tokVarPath:
			key = "{{" + t.text + "}}"
		default:
			continue
		}
		if !seen[key] {
			seen[key] = true
			out = append(out, key)
		}
	}
	return out
}
