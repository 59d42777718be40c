package logging

import (
	"fmt"
	"strings"
)

const redacted = "[REDACTED]"

// sensitiveKeys are attribute names whose values are never written.
var sensitiveKeys = map[string]struct{}{
	"password":    {},
	"secret":      {},
	"passphrase":  {},
	"token":       {},
	"code":        {},
	"backup_code": {},
	"key":         {},
	"master_key":  {},
	"totp_secret": {},
	"plaintext":   {},
	"ciphertext":  {},
	"access_key":  {},
	"secret_key":  {},
}

func isSensitive(key string) bool {
	_, ok := sensitiveKeys[strings.ToLower(key)]
	return ok
}

// redact returns args with the value of every sensitive key replaced. The
// input slice is not modified.
func redact(args []any) []any {
	var out []any
	for i := 0; i+1 < len(args); i += 2 {
		k, ok := args[i].(string)
		if !ok || !isSensitive(k) {
			continue
		}
		if out == nil {
			out = append([]any(nil), args...)
		}
		out[i+1] = redacted
	}
	if out == nil {
		return args
	}
	return out
}

func pairs(args []any) map[string]any {
	out := make(map[string]any, len(args)/2+1)
	for i := 0; i < len(args); i += 2 {
		if i+1 >= len(args) {
			out["!BADKEY"] = args[i]
			break
		}
		k := fmt.Sprint(args[i])
		if isSensitive(k) {
			out[k] = redacted
			continue
		}
		out[k] = args[i+1]
	}
	return out
}
