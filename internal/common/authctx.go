package common

import (
	"context"
	"strconv"
	"strings"
)

type principalKey struct{}

// principal is the authenticated operator as seen by request handlers. The
// token subject is kept verbatim; id is set when the subject is a positive
// integer, which is the only form the register issues.
type principal struct {
	subject string
	id      int64
}

// WithUserID stores the authenticated token subject on the context.
func WithUserID(ctx context.Context, subject string) context.Context {
	p := principal{subject: strings.TrimSpace(subject)}
	if id, err := strconv.ParseInt(p.subject, 10, 64); err == nil && id > 0 {
		p.id = id
	}
	return context.WithValue(ctx, principalKey{}, p)
}

// UserID returns the raw token subject.
func UserID(ctx context.Context) (string, bool) {
	p, ok := ctx.Value(principalKey{}).(principal)
	if !ok || p.subject == "" {
		return "", false
	}
	return p.subject, true
}

// OperatorID returns the numeric operator id, or false when the subject is
// absent or not a positive integer.
func OperatorID(ctx context.Context) (int64, bool) {
	p, ok := ctx.Value(principalKey{}).(principal)
	if !ok || p.id <= 0 {
		return 0, false
	}
	return p.id, true
}
