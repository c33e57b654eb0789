package googlelogin

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// identityClaims are the fields read from the ID token payload. Email is the
// only required one.
type identityClaims struct {
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Name       string `json:"name"`
}

// decodeIdentityToken extracts the claims from a JWS-shaped identity token by
// base64-decoding its payload segment.
//
// SECURITY: the token's signature, issuer, audience and expiry are NOT
// verified. The token arrives over TLS directly from Google's token endpoint
// in exchange for a code only Google could have issued, which is the narrow
// reason this holds up at all. Anything that feeds this function tokens from
// another source must verify them against Google's published keys first.
func decodeIdentityToken(raw string) (*identityClaims, error) {
	parts := strings.Split(raw, ".")
	if len(parts) != 3 {
		return nil, fmt.Errorf("expected 3 token segments, got %d", len(parts))
	}

	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return nil, fmt.Errorf("decoding token payload: %w", err)
	}

	claims := &identityClaims{}
	if err := json.Unmarshal(payload, claims); err != nil {
		return nil, fmt.Errorf("parsing token claims: %w", err)
	}
	return claims, nil
}
