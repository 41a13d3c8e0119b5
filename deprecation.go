package goviewset

import (
	"fmt"
	"net/http"
	"net/url"
)

// TruncationVersion is the release starting from which limits above the
// maximum are truncated.
const TruncationVersion = "2.45.0"

// DeprecationPagination is a limit/offset pagination that is migrating from
// unbounded limits to a hard cap.
//
// While DefaultMaxLimit is nil the requested limit is honoured as is and
// clients exceeding MaxLimit only get a warning in the response meta. Once
// DefaultMaxLimit is set, limits above MaxLimit are clamped. The warning is
// computed independently of clamping in both modes.
type DeprecationPagination struct {
	// MaxLimit newly introduced maximum limit.
	MaxLimit int
	// DefaultMaxLimit maximum limit in effect before MaxLimit. Nil means
	// there was no limit at all.
	DefaultMaxLimit *int
	// DefaultLimit page size used when the client does not request one.
	DefaultLimit int
	// TruncationVersion version named in the warning.
	TruncationVersion string
	// OnWarning is called with the requested limit each time a warning is
	// attached to a response.
	OnWarning func(requested int)
}

type DeprecationOption func(*DeprecationPagination)

func WithMaxLimit(limit int) DeprecationOption {
	return func(d *DeprecationPagination) {
		d.MaxLimit = limit
	}
}

func WithDefaultMaxLimit(limit int) DeprecationOption {
	return func(d *DeprecationPagination) {
		d.DefaultMaxLimit = &limit
	}
}

func WithDefaultLimit(limit int) DeprecationOption {
	return func(d *DeprecationPagination) {
		d.DefaultLimit = limit
	}
}

func WithTruncationVersion(version string) DeprecationOption {
	return func(d *DeprecationPagination) {
		d.TruncationVersion = version
	}
}

func WithWarningHook(hook func(requested int)) DeprecationOption {
	return func(d *DeprecationPagination) {
		d.OnWarning = hook
	}
}

func NewDeprecationPagination(opts ...DeprecationOption) *DeprecationPagination {
	d := &DeprecationPagination{
		MaxLimit:          MaxLimit,
		DefaultLimit:      DefaultLimit,
		TruncationVersion: TruncationVersion,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// ResolveLimit returns the limit used to fetch the page.
//
// This entire method becomes a plain clamp during the cut over.
func (d *DeprecationPagination) ResolveLimit(query url.Values) int {
	limit := DecodeLimitOffsetPager(query, d.defaultLimit()).GetLimit()

	// No max limit was previously set, allow any requested limit.
	if d == nil || d.DefaultMaxLimit == nil {
		return limit
	}

	if limit > d.maxLimit() {
		return d.maxLimit()
	}

	return limit
}

// Pager builds the pager for the request query.
func (d *DeprecationPagination) Pager(query url.Values) *LimitOffsetPager {
	return DecodeLimitOffsetPager(query, d.defaultLimit()).WithLimit(d.ResolveLimit(query))
}

// Warning returns the deprecation notice for the query, if the requested
// limit exceeds MaxLimit.
func (d *DeprecationPagination) Warning(query url.Values) (string, bool) {
	requested, ok := d.ExceededLimit(query)
	if !ok {
		return "", false
	}

	return fmt.Sprintf(
		"The requested limit of %d exceeds the newly introduced maximum limit of %d. "+
			"Starting in version %s, requests exceeding this limit will be truncated to %d results. "+
			"Please adjust your requests to ensure compatibility.",
		requested, d.maxLimit(), d.truncationVersion(), d.maxLimit(),
	), true
}

// ExceededLimit returns the limit requested by the query when it is above
// MaxLimit.
func (d *DeprecationPagination) ExceededLimit(query url.Values) (int, bool) {
	requested, ok := ParseRequestedLimit(query.Get(LimitParam))
	if !ok || requested <= d.maxLimit() {
		return 0, false
	}

	return requested, true
}

func (d *DeprecationPagination) maxLimit() int {
	if d == nil || d.MaxLimit <= 0 {
		return MaxLimit
	}

	return d.MaxLimit
}

func (d *DeprecationPagination) defaultLimit() int {
	if d == nil || d.DefaultLimit <= 0 {
		return DefaultLimit
	}

	return d.DefaultLimit
}

func (d *DeprecationPagination) truncationVersion() string {
	if d == nil || d.TruncationVersion == "" {
		return TruncationVersion
	}

	return d.TruncationVersion
}

// BuildPage assembles the response envelope for one page of results. A nil
// d produces a page without deprecation handling.
func BuildPage[T any](
	d *DeprecationPagination,
	r *http.Request,
	pager *LimitOffsetPager,
	count int64,
	results []T,
) Page[T] {
	if results == nil {
		results = make([]T, 0)
	}

	requestURL := absoluteURL(r)
	page := Page[T]{
		Count:    count,
		Next:     pager.NextLink(requestURL, count),
		Previous: pager.PreviousLink(requestURL),
		Results:  results,
	}

	if d == nil {
		return page
	}

	query := r.URL.Query()
	if warning, ok := d.Warning(query); ok {
		page.Meta = &Meta{Warning: warning}
		if d.OnWarning != nil {
			requested, _ := d.ExceededLimit(query)
			d.OnWarning(requested)
		}
	}

	return page
}

func absoluteURL(r *http.Request) *url.URL {
	ret := *r.URL
	if ret.Host == "" {
		ret.Host = r.Host
	}

	if ret.Scheme == "" {
		ret.Scheme = "http"
		if r.TLS != nil {
			ret.Scheme = "https"
		}
	}

	return &ret
}
