package backoffice

import (
	"net/url"
	"strconv"
)

type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// ListOptions are the paging, search and sort parameters of list endpoints.
// Zero values are left out and the backend defaults apply.
type ListOptions struct {
	Page      int       `validate:"omitempty,min=1"`
	PageSize  int       `validate:"omitempty,min=1,max=100"`
	Search    string    `validate:"omitempty,max=200"`
	SortBy    string    `validate:"omitempty,max=64"`
	SortOrder SortOrder `validate:"omitempty,oneof=asc desc"`
}

// Query encodes the options as query parameters.
func (o ListOptions) Query() (url.Values, error) {
	if err := validatePayload(o); err != nil {
		return nil, err
	}
	q := url.Values{}
	if o.Page > 0 {
		q.Set("page", strconv.Itoa(o.Page))
	}
	if o.PageSize > 0 {
		q.Set("page_size", strconv.Itoa(o.PageSize))
	}
	if o.Search != "" {
		q.Set("search", o.Search)
	}
	if o.SortBy != "" {
		q.Set("sort_by", o.SortBy)
	}
	if o.SortOrder != "" {
		q.Set("sort_order", string(o.SortOrder))
	}
	return q, nil
}

// Page is one page of a list response.
type Page[T any] struct {
	Items    []T `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// Pages returns the number of pages needed for Total items.
func (p *Page[T]) Pages() int {
	if p.PageSize <= 0 {
		return 1
	}
	return (p.Total + p.PageSize - 1) / p.PageSize
}

// HasNext reports whether a later page exists.
func (p *Page[T]) HasNext() bool {
	return p.Page < p.Pages()
}
