package entity

import (
	"fmt"
	"math"
)

const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

var allowedPageSizes = map[int]struct{}{
	10:  {},
	30:  {},
	100: {},
}

// Page is a validated, 1-indexed page request.
type Page struct {
	Number int
	Size   int
}

// NewPage validates number and size and returns the page request.
func NewPage(number, size int) (Page, error) {
	if number < 1 {
		return Page{}, fmt.Errorf("%w: page must be at least 1, got %d", ErrInvalidPage, number)
	}
	if _, ok := allowedPageSizes[size]; !ok {
		return Page{}, fmt.Errorf("%w: page size must be one of 10, 30, 100, got %d", ErrInvalidPage, size)
	}

	return Page{Number: number, Size: size}, nil
}

// Offset returns the number of records preceding the page. It saturates at
// math.MaxInt instead of overflowing, so far pages read as past the end.
func (p Page) Offset() int {
	if p.Size > 0 && p.Number-1 > math.MaxInt/p.Size {
		return math.MaxInt
	}
	return (p.Number - 1) * p.Size
}

// TotalPages returns ceil(total / size).
func (p Page) TotalPages(total int64) int64 {
	size := int64(p.Size)
	return (total + size - 1) / size
}

// URLList is one page of URLs together with the total number of records.
type URLList struct {
	URLs  []*URL
	Total int64
	Page  Page
}
