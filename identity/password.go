package identity

import (
	"fmt"

	"github.com/garagehub/dispatch/errors"
	pkgerrors "github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// MaxPasswordBytes is the longest password bcrypt can hash
const MaxPasswordBytes = 72

// passwordCost is the bcrypt cost used for new hashes
var passwordCost = bcrypt.DefaultCost

// HashPassword hashes a password for storage. Passwords longer than
// MaxPasswordBytes are rejected as malformed input
func HashPassword(password string) ([]byte, error) {
	if len(password) > MaxPasswordBytes {
		return nil, errors.NewWithReason(errors.ErrMalformedInput,
			fmt.Sprintf("password cannot be longer than %d bytes", MaxPasswordBytes))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return nil, errors.New(errors.ErrInternalError, pkgerrors.Wrap(err, "failed to hash password"))
	}

	return hash, nil
}

// CheckPassword returns true if the password matches the hash
func CheckPassword(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
