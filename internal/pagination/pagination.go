package pagination

import "strconv"

// PageSize is the fixed page length for every listing view.
const PageSize = 10

type Page[T any] struct {
	Items      []T  `json:"items"`
	Number     int  `json:"number"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// New slices a pre-sorted sequence into page `number`. Out-of-range numbers
// clamp to the nearest valid page instead of failing, so a request past the
// end returns the last page.
func New[T any](items []T, size, number int) Page[T] {
	if size < 1 {
		size = PageSize
	}

	total := (len(items) + size - 1) / size
	if total < 1 {
		total = 1
	}
	if number < 1 {
		number = 1
	}
	if number > total {
		number = total
	}

	start := (number - 1) * size
	end := start + size
	if start > len(items) {
		start = len(items)
	}
	if end > len(items) {
		end = len(items)
	}

	return Page[T]{
		Items:      items[start:end],
		Number:     number,
		TotalPages: total,
		HasNext:    number < total,
		HasPrev:    number > 1,
	}
}

// ParsePageNumber reads a page query value, defaulting to 1 on anything
// that is not a positive integer.
func ParsePageNumber(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
