// NSA-X Console - Analyst Triage Console for the NSA-X Pipeline
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nsa-x/console

package query

// Page is one page of a list resource.
//
// Total is the length of the returned page, not the true collection size:
// the backend list endpoints return bare arrays with no count envelope, so
// pagination past the current page cannot be derived from it. Kept as-is
// until the backend grows a count field.
type Page[T any] struct {
	Items  []T `json:"items"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func newPage[T any](items []T, limit, offset int) Page[T] {
	return Page[T]{
		Items:  items,
		Total:  len(items),
		Limit:  limit,
		Offset: offset,
	}
}
