package authentication

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

const (
	verificationAlphabet = "0123456789"
	verificationLength   = 6
)

func newVerificationCode() (string, error) {
	code, err := nanoid.Generate(verificationAlphabet, verificationLength)
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return code, nil
}
