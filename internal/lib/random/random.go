package random

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// NewString returns a string of exactly length alphanumeric characters drawn
// from crypto/rand. Uniqueness is not guaranteed here; the storage layer's
// unique constraints are the actual collision guard.
func NewString(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("random.NewString: invalid length %d", length)
	}

	max := big.NewInt(int64(len(alphabet)))

	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("random.NewString: %w", err)
		}
		buf[i] = alphabet[n.Int64()]
	}

	return string(buf), nil
}
