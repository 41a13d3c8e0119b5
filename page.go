package goviewset

// Page is the paginated envelope written by list endpoints.
type Page[T any] struct {
	// Count total number of elements in the dataset.
	Count int64 `json:"count"`
	// Next absolute URL of the next page, nil on the last page.
	Next *string `json:"next"`
	// Previous absolute URL of the previous page, nil on the first page.
	Previous *string `json:"previous"`
	// Results elements of the current page. Never nil.
	Results []T `json:"results"`
	// Meta is only present when there is something to tell the client.
	Meta *Meta `json:"meta,omitempty"`
}

// Meta carries out-of-band notices about the request.
type Meta struct {
	Warning string `json:"warning"`
}
