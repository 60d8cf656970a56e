// Package safemath provides overflow-checked arithmetic over the three
// unsigned widths the engine stores: uint64 for genomes, ids and fee
// balances, uint32 for levels and uint16 for combat counters. Silent
// wraparound is never allowed; every violation is reported as an error.
package safemath

import "errors"

var (
	ErrOverflow       = errors.New("arithmetic overflow")
	ErrUnderflow      = errors.New("arithmetic underflow")
	ErrDivisionByZero = errors.New("division by zero")
)

// Unsigned constrains operations to the widths used by engine state.
type Unsigned interface {
	~uint16 | ~uint32 | ~uint64
}

// Add returns a+b or ErrOverflow when the exact sum exceeds the width's
// maximum.
func Add[T Unsigned](a, b T) (T, error) {
	sum := a + b
	if sum < a {
		return 0, ErrOverflow
	}
	return sum, nil
}

// Sub returns a-b or ErrUnderflow when b exceeds a.
func Sub[T Unsigned](a, b T) (T, error) {
	if b > a {
		return 0, ErrUnderflow
	}
	return a - b, nil
}

// Mul returns a*b or ErrOverflow when the exact product exceeds the
// width's maximum.
func Mul[T Unsigned](a, b T) (T, error) {
	if a == 0 {
		return 0, nil
	}
	prod := a * b
	if prod/a != b {
		return 0, ErrOverflow
	}
	return prod, nil
}

// Div returns a/b or ErrDivisionByZero when b is zero.
func Div[T Unsigned](a, b T) (T, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	return a / b, nil
}

// Mod returns a%b or ErrDivisionByZero when b is zero.
func Mod[T Unsigned](a, b T) (T, error) {
	if b == 0 {
		return 0, ErrDivisionByZero
	}
	return a % b, nil
}
