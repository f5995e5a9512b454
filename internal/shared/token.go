package shared

import (
	"crypto/rand"
	"encoding/base64"
)

// MakeURLSafeToken generates a random URL-safe token from size random bytes,
// encoded as unpadded base64url. The resulting string length is ceil(size*4/3).
//
// Example:
//
//	t, err := MakeURLSafeToken(24)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(t) // e.g., "3q2-7_kDf0a1..."
//
// It returns an error if the random number generator fails.
func MakeURLSafeToken(size int) (string, error) {

	b := make([]byte, size)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}
