package providers

import (
	"context"
)

// MaxPages bounds every pagination loop.
const MaxPages = 10000

// Page is one page of a paginated listing.
type Page[T any] struct {
	Items []T
	// TotalPages is the page count announced by the provider, 0 when unknown.
	TotalPages int
	// Next is the continuation token or URL for cursor listings.
	Next string
	// Last is set when the provider says no page follows.
	Last bool
}

// DrainPages fetches numbered pages starting at 1 until one of: an empty page, a page shorter
// than pageSize, the announced total reached, or the provider flags the last page.
func DrainPages[T any](ctx context.Context, provider string, pageSize int, fetch func(ctx context.Context, page int) (Page[T], error)) ([]T, error) {
	var all []T
	for page := 1; ; page++ {
		if page > MaxPages {
			return nil, Violation(provider, "pagination did not end after %d pages", MaxPages)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p, err := fetch(ctx, page)
		if err != nil {
			return nil, err
		}
		all = append(all, p.Items...)

		if len(p.Items) == 0 || p.Last ||
			(pageSize > 0 && len(p.Items) < pageSize) ||
			(p.TotalPages > 0 && page >= p.TotalPages) {
			return all, nil
		}
	}
}

// DrainCursor follows continuation tokens until none is returned, a token repeats, or a page is
// empty. Some providers keep returning the last token on the final page.
func DrainCursor[T any](ctx context.Context, provider string, fetch func(ctx context.Context, cursor string) (Page[T], error)) ([]T, error) {
	var all []T
	seen := make(map[string]struct{})
	cursor := ""
	for i := 0; ; i++ {
		if i >= MaxPages {
			return nil, Violation(provider, "pagination did not end after %d pages", MaxPages)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p, err := fetch(ctx, cursor)
		if err != nil {
			return nil, err
		}
		all = append(all, p.Items...)

		if p.Next == "" || p.Last || len(p.Items) == 0 {
			return all, nil
		}
		if _, repeated := seen[p.Next]; repeated || p.Next == cursor {
			return all, nil
		}
		seen[p.Next] = struct{}{}
		cursor = p.Next
	}
}
