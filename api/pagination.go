// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
)

const (
	DefaultPaginationCount = 100
	MaxPaginationCount     = 100
	PaginationOrderAsc     = "asc"
	PaginationOrderDesc    = "desc"
)

var ErrInvalidPaginationParameters = errors.New(
	"invalid pagination parameters",
)

// PaginationParams selects one page of a list endpoint's results. Page
// numbers start at 1
type PaginationParams struct {
	Count int
	Page  int
	Order string
}

// ParsePagination reads the count, page and order query parameters.
// Out of range numbers are clamped, while unparseable values are an error
func ParsePagination(r *http.Request) (PaginationParams, error) {
	query := r.URL.Query()
	count, err := intParam(query.Get("count"), DefaultPaginationCount)
	if err != nil {
		return PaginationParams{}, err
	}
	page, err := intParam(query.Get("page"), 1)
	if err != nil {
		return PaginationParams{}, err
	}
	order := PaginationOrderAsc
	if v := query.Get("order"); v != "" {
		order = strings.ToLower(v)
		if order != PaginationOrderAsc && order != PaginationOrderDesc {
			return PaginationParams{}, ErrInvalidPaginationParameters
		}
	}
	return PaginationParams{
		Count: min(max(count, 1), MaxPaginationCount),
		Page:  max(page, 1),
		Order: order,
	}, nil
}

func intParam(value string, def int) (int, error) {
	if value == "" {
		return def, nil
	}
	ret, err := strconv.Atoi(value)
	if err != nil {
		return 0, ErrInvalidPaginationParameters
	}
	return ret, nil
}

// SetPaginationHeaders reports the total item and page counts
func SetPaginationHeaders(
	w http.ResponseWriter,
	totalItems int,
	params PaginationParams,
) {
	totalItems = max(totalItems, 0)
	count := params.Count
	if count < 1 {
		count = DefaultPaginationCount
	}
	totalPages := (totalItems + count - 1) / count
	w.Header().Set("X-Pagination-Count-Total", strconv.Itoa(totalItems))
	w.Header().Set("X-Pagination-Page-Total", strconv.Itoa(totalPages))
}

// Paginate returns the page of items selected by params. Items are in
// ascending order, so a descending page is taken from the reversed list
func Paginate[T any](items []T, params PaginationParams) []T {
	if params.Order == PaginationOrderDesc {
		items = slices.Clone(items)
		slices.Reverse(items)
	}
	start := (params.Page - 1) * params.Count
	if start >= len(items) {
		return []T{}
	}
	end := min(start+params.Count, len(items))
	return items[start:end]
}

// writePage writes one page of items along with the pagination headers
func writePage[T any](
	w http.ResponseWriter,
	items []T,
	params PaginationParams,
) {
	SetPaginationHeaders(w, len(items), params)
	writeJSON(w, http.StatusOK, Paginate(items, params))
}
