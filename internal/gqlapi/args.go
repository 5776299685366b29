package gqlapi

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/graphql-go/graphql"
)

const dateLayout = "2006-01-02"

// argID parses a GraphQL ID argument into a positive integer identifier.
// Non-numeric ids are rejected explicitly instead of propagating as opaque
// repository faults.
func argID(p graphql.ResolveParams, key string) (int64, error) {
	raw, ok := p.Args[key]
	if !ok || raw == nil {
		return 0, newValidationError(fmt.Sprintf("%s is required", key))
	}
	s, ok := raw.(string)
	if !ok {
		s = fmt.Sprintf("%v", raw)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, newValidationError(fmt.Sprintf("%s must be a positive numeric id", key))
	}
	return id, nil
}

// argDate parses an ISO calendar date argument.
func argDate(p graphql.ResolveParams, key string) (time.Time, error) {
	s, _ := p.Args[key].(string)
	date, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, newValidationError(fmt.Sprintf("%s must be an ISO date (YYYY-MM-DD)", key))
	}
	return date.UTC(), nil
}

// argString returns a trimmed string argument, empty when absent.
func argString(p graphql.ResolveParams, key string) string {
	s, _ := p.Args[key].(string)
	return strings.TrimSpace(s)
}

// argOptionalInt reports an Int argument only when the caller supplied it,
// which is what lets partial updates distinguish "absent" from zero.
func argOptionalInt(p graphql.ResolveParams, key string) *int {
	raw, ok := p.Args[key]
	if !ok {
		return nil
	}
	n, ok := raw.(int)
	if !ok {
		return nil
	}
	return &n
}

// argIntOrZero returns a supplied Int argument or zero.
func argIntOrZero(p graphql.ResolveParams, key string) int {
	if n := argOptionalInt(p, key); n != nil {
		return *n
	}
	return 0
}
