package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"unicode"
)

// Strength scores a password from 0 to 100: 20 points each for a length of
// at least eight and for containing an upper-case letter, a lower-case
// letter, a digit and anything else.
func Strength(password string) int {
	var upper, lower, digit, other bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsLetter(r):
			other = true
		}
	}

	score := 0
	for _, ok := range []bool{len([]rune(password)) >= 8, upper, lower, digit, other} {
		if ok {
			score += 20
		}
	}
	return score
}

const (
	upperChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	lowerChars  = "abcdefghijklmnopqrstuvwxyz"
	digitChars  = "0123456789"
	symbolChars = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

	// similarChars are easy to confuse when read aloud or copied by hand.
	similarChars = "1lI0Oo"
)

type GeneratorOptions struct {
	Length       int
	Upper        bool
	Lower        bool
	Digits       bool
	Symbols      bool
	AvoidSimilar bool
}

func DefaultGeneratorOptions() GeneratorOptions {
	return GeneratorOptions{Length: 16, Upper: true, Lower: true, Digits: true, Symbols: true, AvoidSimilar: true}
}

// GeneratePassword returns a random password with at least one character
// from every enabled class.
func GeneratePassword(opts GeneratorOptions) (string, error) {
	var classes []string
	for _, c := range []struct {
		on  bool
		set string
	}{
		{opts.Upper, upperChars},
		{opts.Lower, lowerChars},
		{opts.Digits, digitChars},
		{opts.Symbols, symbolChars},
	} {
		if !c.on {
			continue
		}
		set := c.set
		if opts.AvoidSimilar {
			set = strings.Map(func(r rune) rune {
				if strings.ContainsRune(similarChars, r) {
					return -1
				}
				return r
			}, set)
		}
		classes = append(classes, set)
	}
	if len(classes) == 0 {
		return "", fmt.Errorf("no character classes selected")
	}

	length := max(opts.Length, len(classes))
	all := strings.Join(classes, "")

	out := make([]byte, 0, length)
	for _, set := range classes {
		b, err := pick(set)
		if err != nil {
			return "", err
		}
		out = append(out, b)
	}
	for len(out) < length {
		b, err := pick(all)
		if err != nil {
			return "", err
		}
		out = append(out, b)
	}

	// Fisher-Yates so the required characters are not always first.
	for i := len(out) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		out[i], out[j.Int64()] = out[j.Int64()], out[i]
	}
	return string(out), nil
}

func pick(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, err
	}
	return set[n.Int64()], nil
}
