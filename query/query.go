// Package query normalizes list parameters and builds the pagination block
// returned with every list response.
package query

import "regexp"

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Params are the caller-supplied list parameters.
type Params struct {
	Page   int
	Limit  int
	Search string
}

// Normalize fills defaults and caps Limit at MaxLimit.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	switch {
	case p.Limit < 1:
		p.Limit = DefaultLimit
	case p.Limit > MaxLimit:
		p.Limit = MaxLimit
	}
	return p
}

// Skip is the number of records before the requested page.
func (p Params) Skip() int {
	return (p.Page - 1) * p.Limit
}

// SearchPattern returns a case-insensitive regular expression that matches
// Search as a literal substring, or "" when there is no search.
func (p Params) SearchPattern() string {
	if p.Search == "" {
		return ""
	}
	return "(?i)" + regexp.QuoteMeta(p.Search)
}

// Pagination is the metadata block of a list response.
type Pagination struct {
	CurrentPage int   `json:"current_page"`
	TotalPages  int   `json:"total_pages"`
	TotalCount  int64 `json:"total_count"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
}

// NewPagination computes the metadata for a page of normalized params out of
// total matching records.
func NewPagination(p Params, total int64) Pagination {
	limit := int64(p.Limit)
	return Pagination{
		CurrentPage: p.Page,
		TotalPages:  int((total + limit - 1) / limit),
		TotalCount:  total,
		HasNext:     int64(p.Skip())+limit < total,
		HasPrev:     p.Page > 1,
	}
}

// Page is one page of records plus its metadata.
type Page[T any] struct {
	Items      []T
	Pagination Pagination
}

// NewPage pairs items with their pagination block. Items is never nil so it
// encodes as [] rather than null.
func NewPage[T any](items []T, p Params, total int64) *Page[T] {
	if items == nil {
		items = []T{}
	}
	return &Page[T]{Items: items, Pagination: NewPagination(p, total)}
}

// Window returns the slice of all that falls on the page described by p.
func Window[T any](all []T, p Params) []T {
	start := min(p.Skip(), len(all))
	end := min(start+p.Limit, len(all))
	return all[start:end]
}
