package discovery

import (
	"dating-api/internal/domain/entity"
	"dating-api/internal/domain/errors"
)

// Paginate slices an already filtered and ordered collection. Pages past the
// end are empty but still carry the metadata of the whole collection.
func Paginate[T any](items []T, pageNumber, pageSize int) (entity.Page[T], error) {
	if pageSize <= 0 {
		return entity.Page[T]{}, errors.InvalidArgument("pageSize", "page size must be positive").WithContext("pageSize", pageSize)
	}
	if pageNumber < 1 {
		return entity.Page[T]{}, errors.InvalidArgument("pageNumber", "page number must be at least 1").WithContext("pageNumber", pageNumber)
	}

	total := len(items)
	start := total
	// compare before multiplying so huge page numbers cannot overflow
	if pageNumber-1 <= total/pageSize {
		start = min((pageNumber-1)*pageSize, total)
	}
	end := total
	if pageSize < total-start {
		end = start + pageSize
	}

	return entity.NewPage(items[start:end], pageNumber, pageSize, total), nil
}
