// Package batch parses pasted credential exports into verify candidates.
package batch

import (
	"strings"

	"github.com/Mu0717/email/internal/client"
)

// fieldSep separates the four fields of one credential line.
const fieldSep = "----"

// Parse extracts verify candidates from newline-delimited credential text.
//
// Each line must have exactly four fieldSep-separated fields:
// email, password, client_id, refresh_token. The password field is not
// used anywhere and is discarded; the client_id/refresh_token order is
// the upstream export format and must not be "fixed". Lines with any
// other field count are dropped silently.
func Parse(raw string) []client.Credentials {
	candidates, _ := ParseStrict(raw)
	return candidates
}

// ParseStrict is Parse plus a count of dropped (malformed) lines.
func ParseStrict(raw string) ([]client.Credentials, int) {
	var candidates []client.Credentials
	dropped := 0

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		parts := strings.Split(line, fieldSep)
		if len(parts) != 4 {
			dropped++
			continue
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		candidates = append(candidates, client.Credentials{
			Email:        parts[0],
			ClientID:     parts[2],
			RefreshToken: parts[3],
		})
	}

	return candidates, dropped
}
