package logging

import "context"

type attrsKey struct{}

// ContextWith returns a copy of ctx carrying key-value pairs that
// SlogLogger adds to every record logged with that context. Pairs already
// on ctx are kept.
func ContextWith(ctx context.Context, args ...any) context.Context {
	prev := attrsFrom(ctx)
	all := make([]any, 0, len(prev)+len(args))
	all = append(all, prev...)
	all = append(all, args...)
	return context.WithValue(ctx, attrsKey{}, all)
}

func attrsFrom(ctx context.Context) []any {
	if ctx == nil {
		return nil
	}
	attrs, _ := ctx.Value(attrsKey{}).([]any)
	return attrs
}
