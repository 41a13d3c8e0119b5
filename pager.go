package goviewset

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"

	"github.com/samber/lo"
	"gorm.io/gorm"
)

const (
	LimitParam    = "limit"
	OffsetParam   = "offset"
	OrderingParam = "ordering"
)

// LimitOffsetPager windows a dataset by LIMIT/OFFSET and builds the
// next/previous links of the resulting page.
type LimitOffsetPager struct {
	limit  int
	offset int
	sort   Orderings
}

func NewLimitOffsetPager() *LimitOffsetPager {
	return &LimitOffsetPager{limit: DefaultLimit}
}

// DecodeLimitOffsetPager reads limit and offset from query parameters.
//
// A limit that is missing or not a positive integer falls back to
// defaultLimit. An offset that is missing or not a non-negative integer is 0.
// The limit is NOT capped here; capping belongs to DeprecationPagination.
func DecodeLimitOffsetPager(query url.Values, defaultLimit int) *LimitOffsetPager {
	p := &LimitOffsetPager{limit: defaultLimit}

	if query.Has(LimitParam) {
		if limit, err := parsePositiveInt(query.Get(LimitParam), true); err == nil {
			p.limit = limit
		}
	}

	if offset, err := parsePositiveInt(query.Get(OffsetParam), false); err == nil {
		p.offset = offset
	}

	return p
}

// WithUnlimited allows returning all records without a limit.
func (p *LimitOffsetPager) WithUnlimited() *LimitOffsetPager {
	if p == nil {
		p = NewLimitOffsetPager()
	}

	p.limit = NoLimit

	return p
}

// WithLimit sets the maximum number of returned records.
//
// IMPORTANT:
//   - NoLimit is equivalent to WithUnlimited.
//   - Any other non-positive value is replaced with DefaultLimit.
func (p *LimitOffsetPager) WithLimit(limit int) *LimitOffsetPager {
	if p == nil {
		p = NewLimitOffsetPager()
	}

	if limit == NoLimit {
		return p.WithUnlimited()
	}
	p.limit = lo.Ternary(limit > 0, limit, DefaultLimit)

	return p
}

// WithOffset sets the number of records to skip. Negative values become 0.
func (p *LimitOffsetPager) WithOffset(offset int) *LimitOffsetPager {
	if p == nil {
		p = NewLimitOffsetPager()
	}

	p.offset = max(offset, 0)

	return p
}

// WithSubstitutedSort resets previous orderings and applies the provided ones.
func (p *LimitOffsetPager) WithSubstitutedSort(orderBy ...OrderBy) *LimitOffsetPager {
	if p == nil {
		p = NewLimitOffsetPager()
	}

	p.sort = nil

	return p.WithSort(orderBy...)
}

// WithSort appends sort orderings without overwriting existing ones.
// A column that is already present is moved to the end with its new
// direction.
func (p *LimitOffsetPager) WithSort(orderBy ...OrderBy) *LimitOffsetPager {
	if p == nil {
		p = NewLimitOffsetPager()
	}

	for _, o := range orderBy {
		idx := slices.IndexFunc(p.sort, func(processed OrderBy) bool {
			return processed.Column == o.Column
		})

		if idx != -1 {
			p.sort = slices.Delete(p.sort, idx, idx+1)
		}

		p.sort = append(p.sort, o)
	}

	return p
}

// Paginate applies ordering, offset and limit to the query.
func (p *LimitOffsetPager) Paginate(db *gorm.DB) (*gorm.DB, error) {
	if p == nil {
		p = NewLimitOffsetPager()
	}

	if len(p.sort) > 0 {
		if err := p.sort.validate(); err != nil {
			return nil, fmt.Errorf("cannot paginate: %w", err)
		}
		db = p.sort.Apply(db)
	}

	if p.offset > 0 {
		db = db.Offset(p.offset)
	}

	if p.limit != NoLimit {
		db = db.Limit(p.limit)
	}

	return db, nil
}

// GetLimit returns the effective limit, or NoLimit.
func (p *LimitOffsetPager) GetLimit() int {
	if p == nil {
		return DefaultLimit
	}

	return p.limit
}

// GetOffset returns the number of skipped records.
func (p *LimitOffsetPager) GetOffset() int {
	if p == nil {
		return 0
	}

	return p.offset
}

// GetSort returns orderings that will be applied to the dataset.
func (p *LimitOffsetPager) GetSort() Orderings {
	if p == nil {
		return nil
	}

	return p.sort
}

// IsUnlimited returns true if the limit equals NoLimit.
func (p *LimitOffsetPager) IsUnlimited() bool {
	return p != nil && p.limit == NoLimit
}

// NextLink returns the URL of the following page, or nil when the current
// page reaches the end of a dataset of count elements.
func (p *LimitOffsetPager) NextLink(requestURL *url.URL, count int64) *string {
	// offset+limit may overflow, the next offset is only computed below count.
	if p.IsUnlimited() || int64(p.GetLimit()) >= count-int64(p.GetOffset()) {
		return nil
	}

	query := requestURL.Query()
	query.Set(LimitParam, strconv.Itoa(p.GetLimit()))
	query.Set(OffsetParam, strconv.Itoa(p.GetOffset()+p.GetLimit()))

	return lo.ToPtr(withQuery(requestURL, query))
}

// PreviousLink returns the URL of the preceding page, or nil on the first
// page. The offset parameter is dropped when the previous page starts at 0.
func (p *LimitOffsetPager) PreviousLink(requestURL *url.URL) *string {
	if p.GetOffset() <= 0 {
		return nil
	}

	query := requestURL.Query()
	if p.IsUnlimited() || p.GetOffset()-p.GetLimit() <= 0 {
		query.Del(OffsetParam)
	} else {
		query.Set(OffsetParam, strconv.Itoa(p.GetOffset()-p.GetLimit()))
	}

	if !p.IsUnlimited() {
		query.Set(LimitParam, strconv.Itoa(p.GetLimit()))
	}

	return lo.ToPtr(withQuery(requestURL, query))
}

// PaginateSlice returns the window of items selected by the pager.
func PaginateSlice[T any](p *LimitOffsetPager, items []T) []T {
	offset := min(p.GetOffset(), len(items))
	if p.IsUnlimited() {
		return items[offset:]
	}

	end := offset + min(p.GetLimit(), len(items)-offset)

	return items[offset:end]
}

func withQuery(u *url.URL, query url.Values) string {
	ret := *u
	ret.RawQuery = query.Encode()

	return ret.String()
}
