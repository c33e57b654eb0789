package session

import "context"

type principalKey struct{}

// Principal describes the account behind the current session.
type Principal struct {
	ID          int64  `json:"id"`
	LoginName   string `json:"login_name"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

func withPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// GetPrincipal returns the principal set by WithAuth from the request context.
func GetPrincipal(ctx context.Context) *Principal {
	val := ctx.Value(principalKey{})
	if val == nil {
		return nil
	}
	p, _ := val.(*Principal)
	return p
}
