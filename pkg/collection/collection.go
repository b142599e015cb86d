// Package collection holds the few generic slice helpers the services
// share.
//
//	ids := collection.Unique(collection.Map(lines, func(l cart.Line) string { return l.Product.ID }))
//	byID := collection.KeyBy(products, func(p models.Product) string { return p.ID })
package collection

// Map transforms each element of s. The result is never nil, so it encodes
// as [] rather than null.
func Map[T, R any](s []T, fn func(T) R) []R {
	out := make([]R, len(s))
	for i, v := range s {
		out[i] = fn(v)
	}
	return out
}

// Unique drops repeated elements, keeping first occurrences in order.
func Unique[T comparable](s []T) []T {
	seen := make(map[T]struct{}, len(s))
	out := make([]T, 0, len(s))
	for _, v := range s {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// KeyBy indexes s by fn. On duplicate keys the last element wins.
func KeyBy[T any, K comparable](s []T, fn func(T) K) map[K]T {
	out := make(map[K]T, len(s))
	for _, v := range s {
		out[fn(v)] = v
	}
	return out
}
