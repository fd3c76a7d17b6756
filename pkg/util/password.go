package util

import (
	"golang.org/x/crypto/bcrypt"
)

// secrets are random and high-entropy, so the default cost is enough
const bcryptCost = bcrypt.DefaultCost

// HashSecret hashes a link secret for storage
func HashSecret(secret string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// VerifySecret checks a presented secret against its stored hash
func VerifySecret(hashedSecret, secret string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hashedSecret), []byte(secret))
	return err == nil
}
