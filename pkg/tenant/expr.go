package tenant

import "regexp"

var identifierPattern = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)

var reservedWords = map[string]bool{
	"true": true, "false": true, "nil": true, "null": true,
	"and": true, "or": true, "not": true, "in": true,
}

// ExtractIdentifiers returns the distinct column-like identifiers
// referenced in a govaluate expression string, used to build the
// computed-column dependency graph without evaluating the expression.
func ExtractIdentifiers(expr string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range identifierPattern.FindAllString(expr, -1) {
		if reservedWords[m] {
			continue
		}
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	return out
}
