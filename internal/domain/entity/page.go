package entity

// Page is one slice of a larger ordered result plus its position in the whole.
// It is built once per query and never changed afterwards.
type Page[T any] struct {
	items        []T
	currentPage  int
	itemsPerPage int
	totalItems   int
	totalPages   int
}

// NewPage builds a page. totalPages is derived from totalItems and itemsPerPage.
func NewPage[T any](items []T, currentPage, itemsPerPage, totalItems int) Page[T] {
	totalPages := 0
	if itemsPerPage > 0 {
		totalPages = totalItems / itemsPerPage
		if totalItems%itemsPerPage != 0 {
			totalPages++
		}
	}
	return Page[T]{
		items:        append(make([]T, 0, len(items)), items...),
		currentPage:  currentPage,
		itemsPerPage: itemsPerPage,
		totalItems:   totalItems,
		totalPages:   totalPages,
	}
}

// Items returns a copy of the page items
func (p Page[T]) Items() []T {
	return append(make([]T, 0, len(p.items)), p.items...)
}

func (p Page[T]) Len() int          { return len(p.items) }
func (p Page[T]) CurrentPage() int  { return p.currentPage }
func (p Page[T]) ItemsPerPage() int { return p.itemsPerPage }
func (p Page[T]) TotalItems() int   { return p.totalItems }
func (p Page[T]) TotalPages() int   { return p.totalPages }

// MapPage converts the items of a page and keeps its metadata
func MapPage[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, len(p.items))
	for i, item := range p.items {
		out[i] = fn(item)
	}
	return Page[U]{
		items:        out,
		currentPage:  p.currentPage,
		itemsPerPage: p.itemsPerPage,
		totalItems:   p.totalItems,
		totalPages:   p.totalPages,
	}
}
