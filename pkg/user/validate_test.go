package user

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCheckPassword(t *testing.T) {
	cases := []struct {
		name     string
		password string
		want     passwordStatus
	}{
		{"ok", "Passw0rd", passwordOK},
		{"ok with specials", "p4ss!word#2024", passwordOK},
		{"ok at min length", "abcdefg1", passwordOK},
		{"ok at max length", strings.Repeat("a", 31) + "1", passwordOK},
		{"too short", "abc1", passwordTooShort},
		{"empty", "", passwordTooShort},
		{"too long", strings.Repeat("a", 32) + "1", passwordTooLong},
		{"no digit", "abcdefgh", passwordStyleError},
		{"no letter", "12345678", passwordStyleError},
		{"embedded space", "pass word1", passwordStyleError},
		{"tab", "pass\tword1", passwordStyleError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, checkPassword(tc.password))
		})
	}
}

func TestCheckEmail(t *testing.T) {
	valid := []string{
		"user@example.com",
		"first.last+tag@sub.domain.org",
		"a_b%c@host.cn",
	}
	for _, email := range valid {
		assert.True(t, checkEmail(email), email)
	}

	invalid := []string{
		"",
		"no-at-sign",
		"user@",
		"@example.com",
		"user@host",
		"user@host.c",
		"user name@example.com",
		strings.Repeat("a", 60) + "@example.com", // 72 bytes total
	}
	for _, email := range invalid {
		assert.False(t, checkEmail(email), email)
	}
}

func TestHashPassword(t *testing.T) {
	// Pinned so a salt change is caught: it would invalidate every stored
	// credential.
	h := hashPassword("Passw0rd")
	assert.Equal(t, "88d754281cc5604f5ace300f25a9f181f0f702a208a07b3cbcdc450ffd0a7a65", h)
	assert.NotEqual(t, h, hashPassword("Passw0rd!"))
	// Not the plain unsalted digest.
	assert.NotEqual(t, "ab38eadaeb746599f2c1ee90f8267f31f467347462764a24d71ac1843ee77fe3", h)
}

func TestLengthLimitsCountRunes(t *testing.T) {
	assert.False(t, nicknameTooLong(strings.Repeat("光", 32)))
	assert.True(t, nicknameTooLong(strings.Repeat("光", 33)))
	assert.False(t, descriptionTooLong(strings.Repeat("风", 256)))
	assert.True(t, descriptionTooLong(strings.Repeat("风", 257)))
}
