package email

import "regexp"

var tokenRegex = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// Render substitutes {{token}} placeholders in text with values from vars.
// Tokens without a matching variable are left verbatim so a missing value is
// visible in the delivered mail rather than silently blanked.
func Render(text string, vars map[string]string) string {
	if len(vars) == 0 {
		return text
	}
	return tokenRegex.ReplaceAllStringFunc(text, func(match string) string {
		name := tokenRegex.FindStringSubmatch(match)[1]
		if val, ok := vars[name]; ok {
			return val
		}
		return match
	})
}
