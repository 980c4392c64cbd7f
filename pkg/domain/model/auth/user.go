package auth

import "context"

// User is the authenticated caller of an API request
type User struct {
	ID    string
	Email string `masq:"secret"`
	Name  string
}

type ctxUserKey struct{}

// ContextWithUser returns a context carrying user
func ContextWithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, ctxUserKey{}, user)
}

// UserFromContext returns the user stored by ContextWithUser, or nil
func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(ctxUserKey{}).(*User)
	return user
}
