package application

import (
	"fmt"
	"regexp"

	"github.com/oklog/ulid/v2"
)

// idPattern matches a 26-character Crockford base32 ULID.
// The alphabet excludes I, L, O, and U.
const idPattern = `^[0-9A-HJKMNP-TV-Z]{26}$`

var idRegex = regexp.MustCompile(idPattern)

// NewID generates an identifier for a new application.
//
// IDs are ULIDs: 26 characters, lexicographically sortable by creation
// time, safe in URLs without escaping.
func NewID() string {
	return ulid.Make().String()
}

// ValidateID checks that an identifier is a well-formed ULID.
//
// Parameters:
//   - id: Candidate identifier
//
// Returns:
//   - error: ErrInvalidID (wrapped) when malformed, nil otherwise
func ValidateID(id string) error {
	if !idRegex.MatchString(id) {
		return fmt.Errorf("%w: %q is not a 26-character ULID", ErrInvalidID, id)
	}
	return nil
}
