package graph

import "context"

// LinkSource yields the outbound article titles of a page. Implementations
// absorb their own failures: an unreachable or missing page yields no links.
type LinkSource interface {
	FetchLinks(ctx context.Context, title string) []string
}

// SourceFunc adapts an ordinary function into a LinkSource.
type SourceFunc func(ctx context.Context, title string) []string

// FetchLinks implements the LinkSource interface.
func (f SourceFunc) FetchLinks(ctx context.Context, title string) []string {
	return f(ctx, title)
}
