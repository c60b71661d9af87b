package rules

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrymomot/validkit/pkg/validation"
)

// Frequently leaked passwords, compared case-insensitively.
var commonPasswords = map[string]struct{}{
	"password": {}, "password1": {}, "password123": {}, "passw0rd": {},
	"123456": {}, "1234567": {}, "12345678": {}, "123456789": {}, "1234567890": {},
	"111111": {}, "000000": {}, "123123": {}, "654321": {}, "12341234": {},
	"qwerty": {}, "qwerty123": {}, "qwertyuiop": {}, "asdfghjkl": {}, "zxcvbnm": {},
	"1q2w3e4r": {}, "1qaz2wsx": {}, "zaq12wsx": {}, "abc123": {}, "abcd1234": {},
	"admin": {}, "admin123": {}, "administrator": {}, "root": {}, "toor": {},
	"letmein": {}, "welcome": {}, "welcome1": {}, "iloveyou": {}, "monkey": {},
	"dragon": {}, "sunshine": {}, "princess": {}, "football": {}, "baseball": {},
	"master": {}, "secret": {}, "trustno1": {}, "superman": {}, "shadow": {},
	"guest": {}, "login": {}, "changeme": {}, "default": {}, "test123": {},
}

type passwordParams struct {
	MinLength        int  `mapstructure:"minLength"`
	MaxLength        int  `mapstructure:"maxLength"`
	RequireUppercase bool `mapstructure:"requireUppercase"`
	RequireLowercase bool `mapstructure:"requireLowercase"`
	RequireDigits    bool `mapstructure:"requireDigits"`
	RequireSpecial   bool `mapstructure:"requireSpecial"`
	MinCharClasses   int  `mapstructure:"minCharClasses"`
}

func passwordRules() []validation.Registration {
	return []validation.Registration{
		factory("password", "password strength policy (defaults: 8-128 chars, 3 character classes)", map[string]any{
			"minLength":        "int",
			"maxLength":        "int",
			"requireUppercase": "bool",
			"requireLowercase": "bool",
			"requireDigits":    "bool",
			"requireSpecial":   "bool",
			"minCharClasses":   "int",
		}, password),
		plain("notCommonPassword", "password is not on the common password list", check("notCommonPassword", func(s string) bool {
			_, common := commonPasswords[strings.ToLower(s)]
			return !common
		}, nil)),
	}
}

func password(params map[string]any) (validation.Validator, error) {
	p, err := decode[passwordParams](params)
	if err != nil {
		return nil, err
	}
	if p.MinLength == 0 {
		p.MinLength = 8
	}
	if p.MaxLength == 0 {
		p.MaxLength = 128
	}
	if _, set := params["minCharClasses"]; !set {
		p.MinCharClasses = 3
	}
	out := map[string]any{
		"minLength":      p.MinLength,
		"maxLength":      p.MaxLength,
		"minCharClasses": p.MinCharClasses,
	}
	return check("password", func(s string) bool {
		n := utf8.RuneCountInString(s)
		if n < p.MinLength || n > p.MaxLength {
			return false
		}
		var upper, lower, digit, special bool
		for _, r := range s {
			switch {
			case unicode.IsUpper(r):
				upper = true
			case unicode.IsLower(r):
				lower = true
			case unicode.IsDigit(r):
				digit = true
			case unicode.IsPunct(r) || unicode.IsSymbol(r):
				special = true
			}
		}
		if (p.RequireUppercase && !upper) || (p.RequireLowercase && !lower) ||
			(p.RequireDigits && !digit) || (p.RequireSpecial && !special) {
			return false
		}
		classes := 0
		for _, has := range []bool{upper, lower, digit, special} {
			if has {
				classes++
			}
		}
		return classes >= p.MinCharClasses
	}, out), nil
}
