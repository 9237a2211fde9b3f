// utils/secret.go
package utils

import (
	"strings"

	"github.com/gosimple/unidecode"
)

// NormalizeSecret folds a secret word for proof comparison: transliterate
// to ASCII, lowercase, collapse inner whitespace. "Crème Brûlée" and
// "creme brulee" are the same word at the door.
func NormalizeSecret(s string) string {
	s = unidecode.Unidecode(s)
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Join(strings.Fields(s), " ")
}
