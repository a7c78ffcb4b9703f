package config

import (
	"os"
	"regexp"
)

// envPattern matches a single ${NAME} placeholder.
var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// maxExpansions bounds substitution so that a variable whose value
// references itself cannot loop forever.
const maxExpansions = 64

// ResolveEnvironment replaces ${NAME} placeholders in text using lookup,
// repeating until none remain. Unknown names resolve to the empty string.
// A "${" with no closing brace is left as is.
func ResolveEnvironment(text string, lookup func(string) (string, bool)) string {
	for i := 0; i < maxExpansions; i++ {
		loc := envPattern.FindStringSubmatchIndex(text)
		if loc == nil {
			return text
		}
		name := text[loc[2]:loc[3]]
		value, _ := lookup(name)
		text = text[:loc[0]] + value + text[loc[1]:]
	}
	return text
}

// ExpandEnv resolves placeholders against the process environment.
func ExpandEnv(text string) string {
	return ResolveEnvironment(text, os.LookupEnv)
}
