// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package slice compliments the standard [slices] package by providing functional
programming utilities (Map, Filter) leveraging generics.
*/
package slice

import "strings"

// Map maps a slice of type T to a slice of type U using the provided transformation function.
func Map[T any, U any](input []T, transform func(T) U) []U {
	if input == nil {
		return nil
	}

	result := make([]U, len(input))
	for i, v := range input {
		result[i] = transform(v)
	}

	return result
}

// Filter filters a slice, returning only elements where the predicate function evaluates to true.
func Filter[T any](input []T, predicate func(T) bool) []T {
	if input == nil {
		return nil
	}

	// Not pre-allocating to full length to avoid excessive memory on heavy filters
	var result []T
	for _, v := range input {
		if predicate(v) {
			result = append(result, v)
		}
	}

	return result
}

// Reduce reduces a slice into a single accumulated result using the reducer function.
func Reduce[T any, U any](input []T, initial U, reducer func(accumulator U, current T) U) U {
	result := initial
	for _, v := range input {
		result = reducer(result, v)
	}
	return result
}

// UnionFold appends the values from addition to base, skipping entries whose
// case-insensitive trimmed form is already present. Order of base is preserved.
//
// It is the canonical helper for merging multi-valued fields (alternate names,
// genres, alternate titles) during entity merges.
func UnionFold(base []string, addition ...string) []string {
	seen := make(map[string]struct{}, len(base))
	for _, v := range base {
		seen[foldKey(v)] = struct{}{}
	}

	result := base
	for _, v := range addition {
		key := foldKey(v)
		if key == "" {
			continue
		}
		if _, found := seen[key]; found {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, strings.TrimSpace(v))
	}

	return result
}

// ContainsFold reports whether the slice contains the value, compared
// case-insensitively on trimmed forms.
func ContainsFold(input []string, value string) bool {
	key := foldKey(value)
	for _, v := range input {
		if foldKey(v) == key {
			return true
		}
	}
	return false
}

func foldKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
