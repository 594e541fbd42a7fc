package inertia

// PageData is a page of results supplied by any pagination source.
//
// Scroll props trust the page: metadata is copied as reported, never
// recomputed.
type PageData[T any] interface {
	// Content returns the items of this page.
	Content() []T

	// Number returns the zero-based page number.
	Number() int

	// TotalPages returns the total number of pages.
	TotalPages() int

	// TotalElements returns the number of items across all pages.
	TotalElements() int64

	HasNext() bool
	HasPrevious() bool
	IsFirst() bool
	IsLast() bool
}

var _ PageData[any] = (*SimplePageData[any])(nil)

// SimplePageData is a PageData built from known pagination values.
type SimplePageData[T any] struct {
	content       []T
	number        int
	totalPages    int
	totalElements int64
	hasNext       bool
	hasPrevious   bool
	isFirst       bool
	isLast        bool
}

// NewPageData creates a page from its content and the pagination window.
//
// The number of pages is derived from pageSize and totalElements, and is
// zero if pageSize is not positive.
func NewPageData[T any](content []T, pageNumber, pageSize int, totalElements int64) *SimplePageData[T] {
	totalPages := 0
	if pageSize > 0 {
		size := int64(pageSize)
		totalPages = int((totalElements + size - 1) / size)
	}

	return &SimplePageData[T]{
		content:       content,
		number:        pageNumber,
		totalPages:    totalPages,
		totalElements: totalElements,
		hasNext:       pageNumber < totalPages-1,
		hasPrevious:   pageNumber > 0,
		isFirst:       pageNumber == 0,
		isLast:        pageNumber >= totalPages-1,
	}
}

// SinglePageData creates a page holding all items.
func SinglePageData[T any](content []T) *SimplePageData[T] {
	return &SimplePageData[T]{
		content:       content,
		number:        0,
		totalPages:    1,
		totalElements: int64(len(content)),
		hasNext:       false,
		hasPrevious:   false,
		isFirst:       true,
		isLast:        true,
	}
}

func (p *SimplePageData[T]) Content() []T         { return p.content }
func (p *SimplePageData[T]) Number() int          { return p.number }
func (p *SimplePageData[T]) TotalPages() int      { return p.totalPages }
func (p *SimplePageData[T]) TotalElements() int64 { return p.totalElements }
func (p *SimplePageData[T]) HasNext() bool        { return p.hasNext }
func (p *SimplePageData[T]) HasPrevious() bool    { return p.hasPrevious }
func (p *SimplePageData[T]) IsFirst() bool        { return p.isFirst }
func (p *SimplePageData[T]) IsLast() bool         { return p.isLast }

// ScrollData is the resolved value of a scroll prop.
type ScrollData[T any] struct {
	Items []T        `json:"items"`
	Meta  ScrollMeta `json:"meta"`
}

// ScrollMeta is the pagination metadata of a scroll prop.
type ScrollMeta struct {
	CurrentPage     int   `json:"currentPage"`
	TotalPages      int   `json:"totalPages"`
	TotalItems      int64 `json:"totalItems"`
	HasNextPage     bool  `json:"hasNextPage"`
	HasPreviousPage bool  `json:"hasPreviousPage"`
	IsFirstPage     bool  `json:"isFirstPage"`
	IsLastPage      bool  `json:"isLastPage"`
}

func newScrollData[T any](page PageData[T]) ScrollData[T] {
	return ScrollData[T]{
		Items: page.Content(),
		Meta: ScrollMeta{
			CurrentPage:     page.Number(),
			TotalPages:      page.TotalPages(),
			TotalItems:      page.TotalElements(),
			HasNextPage:     page.HasNext(),
			HasPreviousPage: page.HasPrevious(),
			IsFirstPage:     page.IsFirst(),
			IsLastPage:      page.IsLast(),
		},
	}
}
