package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrength(t *testing.T) {
	tests := []struct {
		password string
		want     int
	}{
		{"", 0},
		{"abc", 20},
		{"abcdefgh", 40},
		{"Abcdefgh", 60},
		{"Abcdefg1", 80},
		{"Abcdef1!", 100},
		{"ABC 1", 60},
	}

	for _, tt := range tests {
		t.Run(tt.password, func(t *testing.T) {
			assert.Equal(t, tt.want, Strength(tt.password))
		})
	}
}

func TestGeneratePassword_Defaults(t *testing.T) {
	for i := 0; i < 20; i++ {
		p, err := GeneratePassword(DefaultGeneratorOptions())
		require.NoError(t, err)
		require.Len(t, p, 16)
		assert.Equal(t, 100, Strength(p), p)
		assert.False(t, strings.ContainsAny(p, similarChars), p)
	}
}

func TestGeneratePassword_Classes(t *testing.T) {
	p, err := GeneratePassword(GeneratorOptions{Length: 2, Digits: true, Symbols: true, Upper: true})
	require.NoError(t, err)
	assert.Len(t, p, 3, "length grows to fit one of each class")
	assert.False(t, strings.ContainsAny(p, lowerChars))

	_, err = GeneratePassword(GeneratorOptions{Length: 8})
	require.Error(t, err)
}
