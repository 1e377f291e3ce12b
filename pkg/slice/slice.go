// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package slice complements the standard [slices] package with a generic Map
for shaping domain records into response views.
*/
package slice

// Map transforms every element of input.
//
// The result is never nil, so an empty input encodes as [] in JSON.
func Map[T any, U any](input []T, transform func(T) U) []U {
	result := make([]U, 0, len(input))
	for _, v := range input {
		result = append(result, transform(v))
	}
	return result
}
