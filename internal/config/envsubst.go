package config

import (
	"os"
	"regexp"
)

// envVarPattern matches ${VAR} or ${VAR:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// ExpandEnvVars replaces ${VAR} with the value of VAR (empty when unset)
// and ${VAR:-default} with VAR's value or default. A variable set to the
// empty string counts as set.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		sub := envVarPattern.FindStringSubmatch(match)
		if val, ok := os.LookupEnv(sub[1]); ok {
			return val
		}
		return sub[2]
	})
}

// ExpandEnvVarsBytes is ExpandEnvVars for file contents.
func ExpandEnvVarsBytes(input []byte) []byte {
	return []byte(ExpandEnvVars(string(input)))
}
