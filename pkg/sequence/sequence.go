// Package sequence holds small generic collection helpers.
package sequence

import "sort"

// Keys returns the keys of m in unspecified order.
func Keys[K comparable, V any](m map[K]V) []K {
	out := make([]K, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// SortedKeys returns the keys of m in ascending order. Used where map
// content must export deterministically.
func SortedKeys[K ordered, V any](m map[K]V) []K {
	out := Keys(m)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Map applies fn to every element of in.
func Map[T, U any](in []T, fn func(T) U) []U {
	out := make([]U, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}

// Filter returns the elements of in for which keep returns true.
func Filter[T any](in []T, keep func(T) bool) []T {
	var out []T
	for _, v := range in {
		if keep(v) {
			out = append(out, v)
		}
	}
	return out
}

type ordered interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64 | ~string
}
