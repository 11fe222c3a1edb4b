// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package vartype provides a value wrapper that knows whether it was ever set.
package vartype

import (
	"fmt"
)

// Variable holds an optional value. The zero Variable is unset.
type Variable[T any] struct {
	value T
	isset bool
}

// NewVariable returns a Variable that is set to value.
func NewVariable[T any](value T) Variable[T] {
	return Variable[T]{
		isset: true,
		value: value,
	}
}

// Reset clears the value and marks the Variable as unset.
func (v *Variable[T]) Reset() {
	var zero T
	v.value = zero
	v.isset = false
}

// Set assigns val and marks the Variable as set.
func (v *Variable[T]) Set(val T) {
	v.value = val
	v.isset = true
}

// Value returns the stored value, or the zero value of T if unset.
func (v Variable[T]) Value() T {
	return v.value
}

// Get returns the stored value and whether it is set.
func (v Variable[T]) Get() (T, bool) {
	return v.value, v.isset
}

// IsSet reports whether the Variable holds a value.
func (v Variable[T]) IsSet() bool {
	return v.isset
}

func (v Variable[T]) String() string {
	if !v.isset {
		return "<unset>"
	}
	return fmt.Sprint(v.value)
}
