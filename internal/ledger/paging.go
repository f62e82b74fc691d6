package ledger

import "fmt"

// Page is one slice of an ordered result set.
type Page[T any] struct {
	Items      []T
	TotalCount int64
	Page       int
	PageSize   int
}

func NewPage[T any](items []T, total int64, page, pageSize int) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{Items: items, TotalCount: total, Page: page, PageSize: pageSize}
}

func (p Page[T]) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return int((p.TotalCount + int64(p.PageSize) - 1) / int64(p.PageSize))
}

func (p Page[T]) HasPrevious() bool { return p.Page > 1 }
func (p Page[T]) HasNext() bool     { return p.Page < p.TotalPages() }

func validatePage(page, pageSize int) error {
	if page <= 0 {
		return fmt.Errorf("%w: page number must be greater than zero", ErrInvalidPage)
	}
	if pageSize <= 0 {
		return fmt.Errorf("%w: page size must be greater than zero", ErrInvalidPage)
	}
	return nil
}

func offset(page, pageSize int) int {
	return (page - 1) * pageSize
}
