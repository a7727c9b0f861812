package logger

import "strings"

// secretKeyHints are field-name fragments that mark a value as sensitive.
var secretKeyHints = []string{"token", "secret", "api_key", "apikey", "password", "hmac"}

// RedactToken masks a credential for safe logging, keeping a short prefix so
// operators can tell tokens apart: "shpat_a1b2c3d4e5" → "shpat_a1***".
func RedactToken(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:8] + "***"
}

func redactSecretValue(key, val string) string {
	key = strings.ToLower(key)
	for _, hint := range secretKeyHints {
		if strings.Contains(key, hint) {
			return RedactToken(val)
		}
	}
	return val
}
