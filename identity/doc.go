// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package identity derives anonymous client identities and validates poll references.

# Fingerprints

A fingerprint is the first 16 bytes (128 bits) of SHA-256 over
"<ip>:<user-agent>", hex encoded:

	fp := identity.Fingerprint("203.0.113.7", "Mozilla/5.0 ...")
	fp := identity.RequestFingerprint(r)

The IP prefers the first X-Forwarded-For entry, then X-Real-IP, then
RemoteAddr without its port. Both inputs are supplied by the client, so a
fingerprint is a best-effort de-duplication key and nothing more. It is not
an authentication mechanism.

# Short Codes

Short codes are exactly four ASCII digits:

	identity.IsShortCode("0420") // true
	code, err := identity.RandomShortCode()

# Owner Sessions

Poll creators receive a random 24-byte token:

	session, err := identity.GenerateOwnerSession()

Callers present it in the X-Owner-Session header or the oxpoll_session cookie:

	session := identity.RequestSession(r)
*/
package identity
