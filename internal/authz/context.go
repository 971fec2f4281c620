package authz

import "context"

type subjectContextKey struct{}

// ContextWithSubject stores the authenticated subject in context.
func ContextWithSubject(ctx context.Context, subject Subject) context.Context {
	return context.WithValue(ctx, subjectContextKey{}, subject)
}

// SubjectFromContext extracts the authenticated subject, if any.
func SubjectFromContext(ctx context.Context) (Subject, bool) {
	subject, ok := ctx.Value(subjectContextKey{}).(Subject)
	if !ok || subject == nil {
		return nil, false
	}
	return subject, true
}
