package pattern

import "strings"

// computeSpecificity derives the tie-breaking metrics the rule registry
// uses when several patterns match one file.
//
// The literal extension is the trailing run of the pattern containing no
// separator, brace, or backslash; "genfiles/{{p}}.handlebars.js" has the
// two-part extension "handlebars.js" and so beats the one-part ".js".
func (p *Pattern) computeSpecificity() {
	p.numVars = strings.Count(p.raw, "{")
	p.numDirParts = strings.Count(p.raw, "/")

	tail := p.raw
	if i := strings.LastIndexAny(tail, "\\/{}"); i >= 0 {
		tail = tail[i+1:]
	}
	tail = strings.Trim(tail, ".")
	p.numExtensions = len(strings.Split(tail, "."))
}

// NumExtensions is the number of dot-separated parts in the pattern's
// literal extension. More parts means more specific.
func (p *Pattern) NumExtensions() int { return p.numExtensions }

// NumDirParts is the number of path separators. More means more specific.
func (p *Pattern) NumDirParts() int { return p.numDirParts }

// NumVars counts opening braces, so "{{var}}" weighs double a "{var}".
// Fewer variables means more specific.
func (p *Pattern) NumVars() int { return p.numVars }
