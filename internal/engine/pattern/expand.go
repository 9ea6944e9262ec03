package pattern

import (
	"sort"
	"strings"

	"go.trai.ch/zerr"
)

// Expand substitutes variable references in raw using vars, whose keys
// are in brace form. Both {var} and {{var}} references are looked up
// under whichever key is present, so a rule's input pattern may reuse a
// capture from its output pattern with either spelling.
func Expand(raw string, vars map[string]string) (string, error) {
	var b strings.Builder
	i := 0
	for i < len(raw) {
		c := raw[i]
		if c != '{' {
			b.WriteByte(c)
			i++
			continue
		}
		double := strings.HasPrefix(raw[i:], "{{")
		start := i + 1
		if double {
			start++
		}
		end := strings.IndexByte(raw[start:], '}')
		if end < 0 {
			return "", zerr.With(zerr.New("unclosed variable reference"), "pattern", raw)
		}
		name := raw[start : start+end]
		i = start + end + 1
		if double {
			if i >= len(raw) || raw[i] != '}' {
				return "", zerr.With(zerr.New("unclosed variable reference"), "pattern", raw)
			}
			i++
		}

		val, ok := vars["{"+name+"}"]
		if !ok {
			val, ok = vars["{{"+name+"}}"]
		}
		if !ok {
			err := zerr.With(zerr.New("unbound variable in pattern"), "pattern", raw)
			return "", zerr.With(err, "variable", name)
		}
		b.WriteString(val)
	}
	return b.String(), nil
}

// Resolve expands variables in each pattern and then globs any that
// still contain metacharacters. Glob expansions come back sorted;
// literal names pass through untouched whether or not they exist on
// disk.
func Resolve(root string, patterns []string, vars map[string]string) ([]string, error) {
	var out []string
	for _, raw := range patterns {
		expanded, err := Expand(raw, vars)
		if err != nil {
			return nil, err
		}
		if !HasMeta(expanded) {
			out = append(out, expanded)
			continue
		}
		matches, err := Glob(root, expanded)
		if err != nil {
			return nil, err
		}
		sort.Strings(matches)
		out = append(out, matches...)
	}
	return out, nil
}
