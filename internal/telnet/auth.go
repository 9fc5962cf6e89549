package telnet

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const maxPasswordAttempts = 3

// ErrAuthentication is returned when a client fails the seat password.
var ErrAuthentication = errors.New("authentication failed")

// HashPassword returns the bcrypt hash operators put in the configuration.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// authenticate asks for the seat password until it matches hash or the
// client runs out of attempts. An empty hash admits everyone.
func authenticate(conn *Conn, hash string) error {
	if strings.TrimSpace(hash) == "" {
		return nil
	}
	for tries := 0; tries < maxPasswordAttempts; tries++ {
		_ = conn.WriteString("Password: ")
		password, err := conn.ReadLine()
		if err != nil {
			return err
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(strings.TrimSpace(password))) == nil {
			return nil
		}
		_ = conn.WriteString("Incorrect password.\n")
	}
	_ = conn.WriteString("Too many failed attempts.\n")
	return ErrAuthentication
}
