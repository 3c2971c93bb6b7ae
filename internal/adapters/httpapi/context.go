package httpapi

import "context"

type subjectKey struct{}

// WithSubject stores the authenticated caller identity in ctx. The identity
// is opaque here; only the auth middleware knows where it came from.
func WithSubject(ctx context.Context, subjectID string) context.Context {
	return context.WithValue(ctx, subjectKey{}, subjectID)
}

func SubjectFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(subjectKey{}).(string)
	return v, ok && v != ""
}
