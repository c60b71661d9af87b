package rules

import (
	"fmt"
	"net"
	"net/mail"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrymomot/validkit/pkg/validation"
)

// E.164 with optional leading plus.
var phoneRegex = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)

func formatRules() []validation.Registration {
	return []validation.Registration{
		plain("email", "RFC 5322 address with a dotted domain", check("email", isEmail, nil)),
		plain("phone", "international phone number", check("phone", isPhone, nil)),
		factory("url", "absolute URL, optionally restricted to schemes", map[string]any{"schemes": "[]string"}, urlRule),
		factory("uuid", "canonical UUID, optionally of one version", map[string]any{"version": "int"}, uuidRule),
		factory("ip", "IP address, optionally of one version (4 or 6)", map[string]any{"version": "int"}, ipRule),
	}
}

func isEmail(value string) bool {
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Address != strings.TrimSpace(value) {
		return false
	}
	local, domain, ok := strings.Cut(addr.Address, "@")
	if !ok || local == "" {
		return false
	}
	if !strings.Contains(domain, ".") {
		return false
	}
	for part := range strings.SplitSeq(domain, ".") {
		if part == "" {
			return false
		}
	}
	return true
}

func isPhone(value string) bool {
	cleaned := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(value)
	if len(cleaned) < 7 {
		return false
	}
	return phoneRegex.MatchString(cleaned)
}

func urlRule(params map[string]any) (validation.Validator, error) {
	p, err := decode[struct {
		Schemes []string `mapstructure:"schemes"`
	}](params)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if len(p.Schemes) > 0 {
		out = map[string]any{"schemes": strings.Join(p.Schemes, ", ")}
	}
	return check("url", func(s string) bool {
		u, err := url.ParseRequestURI(s)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return false
		}
		return len(p.Schemes) == 0 || slices.Contains(p.Schemes, u.Scheme)
	}, out), nil
}

func uuidRule(params map[string]any) (validation.Validator, error) {
	p, err := decode[struct {
		Version int `mapstructure:"version"`
	}](params)
	if err != nil {
		return nil, err
	}
	if p.Version < 0 || p.Version > 8 {
		return nil, fmt.Errorf("unsupported uuid version %d", p.Version)
	}
	var out map[string]any
	if p.Version > 0 {
		out = map[string]any{"version": p.Version}
	}
	return check("uuid", func(s string) bool {
		// uuid.Parse also accepts urn and braced forms; only the 36-char form is allowed here.
		if len(s) != 36 {
			return false
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return false
		}
		return p.Version == 0 || int(id.Version()) == p.Version
	}, out), nil
}

func ipRule(params map[string]any) (validation.Validator, error) {
	p, err := decode[struct {
		Version int `mapstructure:"version"`
	}](params)
	if err != nil {
		return nil, err
	}
	if p.Version != 0 && p.Version != 4 && p.Version != 6 {
		return nil, fmt.Errorf("unsupported ip version %d", p.Version)
	}
	var out map[string]any
	if p.Version != 0 {
		out = map[string]any{"version": p.Version}
	}
	return check("ip", func(s string) bool {
		ip := net.ParseIP(s)
		switch {
		case ip == nil:
			return false
		case p.Version == 4:
			return ip.To4() != nil
		case p.Version == 6:
			return ip.To4() == nil
		}
		return true
	}, out), nil
}
