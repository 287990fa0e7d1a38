// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math/big"
	"net"
	"net/http"
	"regexp"
	"strings"
)

// SessionCookie carries the owner session issued at poll creation
const SessionCookie = "oxpoll_session"

// SessionHeader is the header alternative to SessionCookie
const SessionHeader = "X-Owner-Session"

var shortCodePattern = regexp.MustCompile(`^\d{4}$`)

// Fingerprint hashes address and agent into a 128-bit hex identity.
// Same inputs always give the same fingerprint. It is client-controlled
// and only good for best-effort de-duplication, not for security.
func Fingerprint(ip, userAgent string) string {
	sum := sha256.Sum256([]byte(ip + ":" + userAgent))
	return hex.EncodeToString(sum[:16])
}

// RequestFingerprint derives the fingerprint for an HTTP request
func RequestFingerprint(r *http.Request) string {
	return Fingerprint(ClientIP(r), r.UserAgent())
}

// ClientIP extracts the client IP address
// Checks X-Forwarded-For (first entry), X-Real-IP, then falls back to RemoteAddr
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// IsShortCode reports whether s looks like a 4-digit short code
func IsShortCode(s string) bool {
	return shortCodePattern.MatchString(s)
}

// RandomShortCode draws a uniformly random code in 0000-9999
func RandomShortCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("failed to generate short code: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}

// GenerateOwnerSession creates a random secure token for a poll creator
func GenerateOwnerSession() (string, error) {
	b := make([]byte, 24) // 24 bytes = 192 bits of entropy
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate owner session: %w", err)
	}
	// URL-safe base64 without padding
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// RequestSession returns the owner session presented by the caller, if any.
// The header wins over the cookie.
func RequestSession(r *http.Request) string {
	if s := r.Header.Get(SessionHeader); s != "" {
		return s
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}
