package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordTooLong is returned for passwords bcrypt would silently truncate.
var ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

// PasswordCost is the bcrypt work factor for new hashes.
var PasswordCost = bcrypt.DefaultCost

// HashPassword hashes a plain password using bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) > 72 {
		return "", ErrPasswordTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	return string(hashed), err
}

// CheckPassword compares plain password with hashed password.
func CheckPassword(plain, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
