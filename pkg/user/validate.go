package user

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"unicode"
	"unicode/utf8"
)

// Moderator screens user-visible text for policy violations. Production
// wires the LLM classifier sidecar; tests substitute a stub.
type Moderator interface {
	Classify(ctx context.Context, text string) (string, error)
}

// CodeSender delivers verification codes. Production wires the SMTP sender.
type CodeSender interface {
	SendVerifyCode(to, code string) error
}

// passwordSalt is appended to the raw password before hashing. Changing it
// invalidates every stored credential.
const passwordSalt = "breeze@2024"

// hashPassword returns the 64-hex SHA-256 digest of password plus salt.
func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password + passwordSalt))
	return hex.EncodeToString(sum[:])
}

type nicknameStatus int

const (
	nicknameOK nicknameStatus = iota
	nicknameExist
	nicknameStyleError
	nicknameInvalid // flagged by the moderator, or the moderator was unreachable
)

type passwordStatus int

const (
	passwordOK passwordStatus = iota
	passwordTooShort
	passwordTooLong
	passwordStyleError
)

// checkPassword enforces length 8 to 32 bytes, at least one ASCII letter,
// at least one digit, and no whitespace anywhere.
func checkPassword(password string) passwordStatus {
	if len(password) < 8 {
		return passwordTooShort
	}
	if len(password) > 32 {
		return passwordTooLong
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsSpace(r):
			return passwordStyleError
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
			hasLetter = true
		case r >= '0' && r <= '9':
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return passwordStyleError
	}
	return passwordOK
}

const (
	nicknameMaxRunes    = 32
	descriptionMaxRunes = 256
	emailMaxBytes       = 64
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// checkEmail accepts basic RFC-shaped addresses up to 64 characters.
func checkEmail(email string) bool {
	if len(email) > emailMaxBytes {
		return false
	}
	return emailRe.MatchString(email)
}

func nicknameTooLong(nickname string) bool {
	return utf8.RuneCountInString(nickname) > nicknameMaxRunes
}

func descriptionTooLong(description string) bool {
	return utf8.RuneCountInString(description) > descriptionMaxRunes
}
