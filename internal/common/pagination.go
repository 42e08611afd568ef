package common

import "strconv"

// DefaultPageSize is the fixed number of rows per list page.
const DefaultPageSize = 10

// Page describes one clamped page of a result set.
type Page struct {
	Number     int `json:"page"`
	Size       int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
	Offset     int `json:"-"`
}

// ClampPage resolves a raw page parameter against a known total row count.
// Malformed input is never an error: a non-integer or missing value yields
// page 1, anything past the end yields the last page, and an empty result
// set behaves as a single empty page.
func ClampPage(raw string, total, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}

	totalPages := (total + size - 1) / size
	if totalPages < 1 {
		totalPages = 1
	}

	number, err := strconv.Atoi(raw)
	if err != nil || number < 1 {
		number = 1
	}
	if number > totalPages {
		number = totalPages
	}

	return Page{
		Number:     number,
		Size:       size,
		Total:      total,
		TotalPages: totalPages,
		Offset:     (number - 1) * size,
	}
}
