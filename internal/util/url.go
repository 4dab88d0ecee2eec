package util

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
)

var blockedHostSuffixes = []string{"localhost", "localhost.localdomain", "local", "internal"}

// NormaliseTargetURL trims the input and adds https:// when no scheme is given.
// It returns "" when the result does not parse as an absolute URL.
func NormaliseTargetURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}

	lower := strings.ToLower(rawURL)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		if strings.Contains(rawURL, "://") {
			return ""
		}
		rawURL = "https://" + strings.TrimLeft(rawURL, "/")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		log.Debug().Str("url", rawURL).Err(err).Msg("Invalid URL format")
		return ""
	}
	parsed.Scheme = strings.ToLower(parsed.Scheme)

	return parsed.String()
}

// ValidateTargetURL checks that rawURL is an absolute http(s) URL pointing at
// a public host. Returns an error describing why it is invalid, or nil if valid.
func ValidateTargetURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("url is not valid: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("url must use http or https")
	}
	if parsed.User != nil {
		return fmt.Errorf("url must not contain credentials")
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("url must include a host")
	}

	if ip := net.ParseIP(host); ip != nil {
		if ip.IsLoopback() || ip.IsUnspecified() || ip.IsLinkLocalUnicast() {
			return fmt.Errorf("host %q is not allowed", host)
		}
		return nil
	}

	return ValidateHostname(host)
}

// ValidateHostname checks that host is a well formed public DNS name
func ValidateHostname(host string) error {
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return fmt.Errorf("host cannot be empty")
	}

	lowerHost := strings.ToLower(host)
	for _, blocked := range blockedHostSuffixes {
		if lowerHost == blocked || strings.HasSuffix(lowerHost, "."+blocked) {
			return fmt.Errorf("host %q is not allowed", host)
		}
	}

	if !strings.Contains(host, ".") {
		return fmt.Errorf("host must contain a TLD (e.g., .com, .co.uk)")
	}

	parts := strings.Split(host, ".")
	for _, part := range parts {
		if part == "" {
			return fmt.Errorf("host contains empty segment")
		}
		for _, c := range part {
			isLower := c >= 'a' && c <= 'z'
			isUpper := c >= 'A' && c <= 'Z'
			isDigit := c >= '0' && c <= '9'
			if !isLower && !isUpper && !isDigit && c != '-' {
				return fmt.Errorf("host contains invalid character: %c", c)
			}
		}
		if strings.HasPrefix(part, "-") || strings.HasSuffix(part, "-") {
			return fmt.Errorf("host segment cannot start or end with hyphen")
		}
	}

	if tld := parts[len(parts)-1]; len(tld) < 2 {
		return fmt.Errorf("TLD must be at least 2 characters")
	}

	return nil
}

// Hostname returns the host of rawURL without any port
func Hostname(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}
