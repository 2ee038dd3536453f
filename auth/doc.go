// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides token generation and admin key checks.

# Admin Key

Registration routes are gated by a single operator secret sent in the
X-Admin-Key header:

	err := auth.ValidateAdminKey(r.Header.Get("X-Admin-Key"), cfg.AdminKey)

The comparison is constant time. An empty configured key rejects everything.

# Voter Tokens

Voter tokens are random 24-byte (192-bit) secrets issued by the server
when a voting session opens:

	token, err := auth.GenerateVoterToken()

Tokens are URL-safe base64 encoded (32 characters). ValidateVoterToken
rejects anything of the wrong shape before a database lookup.

# Hashing

Voting sessions record a salted hash of the client IP, never the IP,
and vote events carry a hash of the voter token:

	hash := auth.HashIP(ipAddress, salt)
	voter := auth.HashVoterToken(token, salt)

Both return the first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
