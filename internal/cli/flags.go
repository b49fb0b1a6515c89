package cli

import (
	"fmt"
	"strconv"
	"time"
)

// optional records a flag value and whether the flag was given at all, so
// only explicit flags override settings from other sources.
type optional[T time.Duration | int | string | bool] struct {
	value T
	set   bool
}

func (o *optional[T]) Set(s string) error {
	v, err := parse[T](s)
	if err != nil {
		return err
	}
	o.value = v
	o.set = true
	return nil
}

func (o *optional[T]) String() string {
	if o == nil || !o.set {
		return ""
	}
	return fmt.Sprint(o.value)
}

// Value returns the parsed value and whether the flag was set.
func (o *optional[T]) Value() (T, bool) {
	return o.value, o.set
}

// Ptr returns a pointer to the value when set, nil otherwise.
func (o *optional[T]) Ptr() *T {
	if !o.set {
		return nil
	}
	v := o.value
	return &v
}

func parse[T time.Duration | int | string | bool](s string) (T, error) {
	var zero T
	var (
		v   any
		err error
	)
	switch any(zero).(type) {
	case time.Duration:
		v, err = time.ParseDuration(s)
	case int:
		v, err = strconv.Atoi(s)
	case bool:
		v, err = strconv.ParseBool(s)
	default:
		v = s
	}
	if err != nil {
		return zero, err
	}
	return v.(T), nil
}

// OptionalDuration records a duration flag and whether it was set.
type OptionalDuration = optional[time.Duration]

// OptionalInt records an int flag and whether it was set.
type OptionalInt = optional[int]

// OptionalString records a string flag and whether it was set.
type OptionalString = optional[string]

// OptionalBool records a bool flag and whether it was set.
type OptionalBool struct {
	optional[bool]
}

func (o *OptionalBool) IsBoolFlag() bool {
	return true
}
