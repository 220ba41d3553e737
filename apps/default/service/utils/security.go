package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
)

const (
	alphaNumericCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	referenceCharset    = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

func randomFrom(charset string, length int) string {
	result := make([]byte, length)
	for i := range result {
		num, _ := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		result[i] = charset[num.Int64()]
	}
	return string(result)
}

// GenerateRandomString generates a random string of specified length
func GenerateRandomString(length int) string {
	return randomFrom(alphaNumericCharset, length)
}

// GenerateReference generates an upper case reference without look alike
// characters, suitable for reading out or typing in.
func GenerateReference(length int) string {
	return randomFrom(referenceCharset, length)
}

// CreateHash Generates a sha256 hash of any supplied bytes
func CreateHash(content []byte) string {
	hasher := sha256.New()
	hasher.Write(content)
	return hex.EncodeToString(hasher.Sum(nil))
}
