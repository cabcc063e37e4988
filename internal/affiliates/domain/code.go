// Package domain holds affiliate code rules and errors.
package domain

import (
	"crypto/rand"
	"math/big"
	"regexp"

	"canna_portal_backend/platform/textnorm"
)

const (
	codePrefixLen = 6
	codeSuffixLen = 4
	base36        = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	fallbackStem  = "VEND"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{4,32}$`)

// NormalizeCode reduces a caller-supplied code to uppercase ASCII
// alphanumerics with diacritics removed.
func NormalizeCode(raw string) string {
	return textnorm.AlnumUpper(raw)
}

// LooksLikeCode reports whether s has the shape of a stored code. Codes are
// matched case-sensitively, so lowercase input never qualifies.
func LooksLikeCode(s string) bool {
	return codePattern.MatchString(s)
}

// GenerateCode builds a candidate code from up to six characters of the
// vendor's name followed by four random base-36 characters.
func GenerateCode(fullName string) (string, error) {
	stem := NormalizeCode(fullName)
	if len(stem) > codePrefixLen {
		stem = stem[:codePrefixLen]
	}
	if stem == "" {
		stem = fallbackStem
	}

	suffix := make([]byte, codeSuffixLen)
	limit := big.NewInt(int64(len(base36)))
	for i := range suffix {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		suffix[i] = base36[n.Int64()]
	}
	return stem + string(suffix), nil
}
