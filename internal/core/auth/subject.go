package auth

import "context"

type subjectKey struct{}

// WithSubject 由鉴权中间件写入已验证的 sub
func WithSubject(ctx context.Context, sub string) context.Context {
	return context.WithValue(ctx, subjectKey{}, sub)
}

func SubjectFrom(ctx context.Context) (string, bool) {
	sub, ok := ctx.Value(subjectKey{}).(string)
	return sub, ok && sub != ""
}
