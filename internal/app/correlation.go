/**
 * @description
 * Correlation codec: embeds and extracts the paycheck identifier carried in
 * free-text transaction comments. The identifier is a lowercase UUID enclosed
 * in square brackets, a delimiter pair that cannot legally appear inside the
 * UUID's own character set, so the token stays parseable no matter what other
 * text surrounds it.
 */
package app

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var paycheckTokenPattern = regexp.MustCompile(`\[([0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})\]`)

// EncodePaycheckComment builds the payment comment for a paycheck: the base
// comment, optionally the group name in brackets, and always the paycheck ID
// in brackets as the correlation token.
func EncodePaycheckComment(base string, groupName string, paycheckID uuid.UUID) string {
	var b strings.Builder
	b.WriteString(base)
	if groupName != "" {
		fmt.Fprintf(&b, " [%s]", groupName)
	}
	fmt.Fprintf(&b, " [%s]", paycheckID)
	return b.String()
}

// ExtractPaycheckID scans a comment for a bracketed paycheck token. When the
// comment accidentally contains more than one well-formed token, the leftmost
// one wins. The second return value is false when no token is present; most
// bank transactions are unrelated to paychecks, so that outcome is routine.
func ExtractPaycheckID(comment string) (uuid.UUID, bool) {
	matches := paycheckTokenPattern.FindStringSubmatch(comment)
	if len(matches) < 2 {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(matches[1])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
