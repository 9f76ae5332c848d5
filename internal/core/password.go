package core

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"
)

// PasswordPrefix starts every generated owner password.
const PasswordPrefix = "Biz!"

// PasswordRandomLength is the number of random characters after the prefix.
const PasswordRandomLength = 12

const passwordAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789!@#$%^&*"

// GeneratePassword returns a one-time owner password drawn from crypto/rand.
// Owners are expected to change it after first login.
func GeneratePassword() (string, error) {
	var b strings.Builder
	b.Grow(len(PasswordPrefix) + PasswordRandomLength)
	b.WriteString(PasswordPrefix)

	limit := big.NewInt(int64(len(passwordAlphabet)))
	for i := 0; i < PasswordRandomLength; i++ {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", fmt.Errorf("generate password: %w", err)
		}
		b.WriteByte(passwordAlphabet[n.Int64()])
	}

	return b.String(), nil
}

var slugRegex = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify derives a URL-safe slug from a business name.
// "Acme, Inc." becomes "acme-inc".
func Slugify(name string) string {
	s := slugRegex.ReplaceAllString(strings.ToLower(name), "-")
	return strings.Trim(s, "-")
}
