package config

import (
	"fmt"
	"strings"
)

// reservedSecretSubstrings are case-insensitive substrings that must
// never appear in a key, at any depth, anywhere in a tenant's YAML
// configuration layers. Credentials belong exclusively in the .env layer.
var reservedSecretSubstrings = []string{
	"password", "secret", "token", "connection_string", "dsn", "api_key", "apikey",
}

// checkNoSecrets walks an untyped YAML document (as produced by a raw
// map[string]any unmarshal) and returns an error naming the first key,
// at any depth, that looks like a credential.
func checkNoSecrets(path string, node any) error {
	switch v := node.(type) {
	case map[string]any:
		for k, child := range v {
			if looksLikeSecretKey(k) {
				return fmt.Errorf("key %q at %s looks like a credential; secrets belong in .env", k, path)
			}
			childPath := k
			if path != "" {
				childPath = path + "." + k
			}
			if err := checkNoSecrets(childPath, child); err != nil {
				return err
			}
		}
	case []any:
		for i, child := range v {
			if err := checkNoSecrets(fmt.Sprintf("%s[%d]", path, i), child); err != nil {
				return err
			}
		}
	}
	return nil
}

func looksLikeSecretKey(key string) bool {
	lower := strings.ToLower(key)
	for _, s := range reservedSecretSubstrings {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}
