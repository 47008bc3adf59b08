package set

import (
	"cmp"
	"iter"
	"slices"
)

type Set[T comparable] map[T]struct{}

func New[T comparable](items ...T) Set[T] {
	s := make(Set[T], len(items))
	for _, item := range items {
		s[item] = struct{}{}
	}
	return s
}

// Add adds items to the set
func (s Set[T]) Add(items ...T) {
	for _, item := range items {
		s[item] = struct{}{}
	}
}

// Remove removes an item from the set
func (s Set[T]) Remove(item T) {
	delete(s, item)
}

// Contains checks if an item exists in the set
func (s Set[T]) Contains(item T) bool {
	_, exists := s[item]
	return exists
}

func (s Set[T]) ContainsAll(items ...T) bool {
	for _, item := range items {
		if !s.Contains(item) {
			return false
		}
	}
	return true
}

// Size returns the number of items in the set
func (s Set[T]) Size() int {
	return len(s)
}

// Items returns all items in the set as a sequence, in no particular order.
func (s Set[T]) Items() iter.Seq[T] {
	return func(yield func(T) bool) {
		for item := range s {
			if !yield(item) {
				return
			}
		}
	}
}

func (s Set[T]) Clone() Set[T] {
	result := make(Set[T], len(s))
	for item := range s {
		result[item] = struct{}{}
	}
	return result
}

func (s Set[T]) Equal(other Set[T]) bool {
	return len(s) == len(other) && s.ContainsAll(other.Slice()...)
}

func (s Set[T]) Slice() []T {
	items := make([]T, 0, len(s))
	for item := range s {
		items = append(items, item)
	}
	return items
}

// Union returns a new set containing all items from both sets
func (s Set[T]) Union(other Set[T]) Set[T] {
	result := s.Clone()
	for item := range other {
		result[item] = struct{}{}
	}
	return result
}

// Intersection returns a new set containing items present in both sets
func (s Set[T]) Intersection(other Set[T]) Set[T] {
	result := make(Set[T])
	for item := range s {
		if other.Contains(item) {
			result[item] = struct{}{}
		}
	}
	return result
}

// Difference returns a new set containing items in s that are not in other
func (s Set[T]) Difference(other Set[T]) Set[T] {
	result := make(Set[T], len(s))
	for item := range s {
		if !other.Contains(item) {
			result[item] = struct{}{}
		}
	}
	return result
}

// Sorted returns the items of s in ascending order. Every enumeration that
// ends up in a rendered automaton goes through here.
func Sorted[T cmp.Ordered](s Set[T]) []T {
	items := s.Slice()
	slices.Sort(items)
	return items
}
