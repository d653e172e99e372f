package scan

import "math"

// Operator is an associative binary operation with a neutral element.
// Combine(a, b) is always called with a preceding b in traversal order.
type Operator[T any] interface {
	Identity() T
	Combine(a, b T) T
}

// Integer is the set of integer element types.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uintptr
}

// Number is the set of element types with built-in arithmetic.
type Number interface {
	Integer | ~float32 | ~float64
}

// Real lists the element types Min and Max know the bounds of.
type Real interface {
	int | int8 | int16 | int32 | int64 |
		uint | uint8 | uint16 | uint32 | uint64 |
		float32 | float64
}

// Add is the sum operator.
type Add[T Number] struct{}

func (Add[T]) Identity() T      { return 0 }
func (Add[T]) Combine(a, b T) T { return a + b }

// Mul is the product operator.
type Mul[T Number] struct{}

func (Mul[T]) Identity() T      { return 1 }
func (Mul[T]) Combine(a, b T) T { return a * b }

// Min keeps the smaller value. Its identity is the largest value of T (+Inf for floats).
type Min[T Real] struct{}

func (Min[T]) Identity() T { return upper[T]() }
func (Min[T]) Combine(a, b T) T {
	if b < a {
		return b
	}
	return a
}

// Max keeps the larger value. Its identity is the smallest value of T (-Inf for floats).
type Max[T Real] struct{}

func (Max[T]) Identity() T { return lower[T]() }
func (Max[T]) Combine(a, b T) T {
	if b > a {
		return b
	}
	return a
}

// Or is bitwise or.
type Or[T Integer] struct{}

func (Or[T]) Identity() T      { return 0 }
func (Or[T]) Combine(a, b T) T { return a | b }

// And is bitwise and.
type And[T Integer] struct{}

func (And[T]) Identity() T      { return ^T(0) }
func (And[T]) Combine(a, b T) T { return a & b }

// Func adapts a plain function to Operator. Fn must be associative and Zero must be
// neutral for it.
type Func[T any] struct {
	Zero T
	Fn   func(a, b T) T
}

func (f Func[T]) Identity() T      { return f.Zero }
func (f Func[T]) Combine(a, b T) T { return f.Fn(a, b) }

func upper[T Real]() T {
	var z T
	var v any
	switch any(z).(type) {
	case int:
		v = int(math.MaxInt)
	case int8:
		v = int8(math.MaxInt8)
	case int16:
		v = int16(math.MaxInt16)
	case int32:
		v = int32(math.MaxInt32)
	case int64:
		v = int64(math.MaxInt64)
	case uint:
		v = uint(math.MaxUint)
	case uint8:
		v = uint8(math.MaxUint8)
	case uint16:
		v = uint16(math.MaxUint16)
	case uint32:
		v = uint32(math.MaxUint32)
	case uint64:
		v = uint64(math.MaxUint64)
	case float32:
		v = float32(math.Inf(1))
	case float64:
		v = math.Inf(1)
	}
	return v.(T)
}

func lower[T Real]() T {
	var z T
	var v any
	switch any(z).(type) {
	case int:
		v = int(math.MinInt)
	case int8:
		v = int8(math.MinInt8)
	case int16:
		v = int16(math.MinInt16)
	case int32:
		v = int32(math.MinInt32)
	case int64:
		v = int64(math.MinInt64)
	case float32:
		v = float32(math.Inf(-1))
	case float64:
		v = math.Inf(-1)
	default: // unsigned
		return z
	}
	return v.(T)
}
