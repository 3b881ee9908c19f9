package cache

import "errors"

var (
	// ErrCacheMiss is returned by Get when (vertex, key) is not resident.
	ErrCacheMiss = errors.New("cache: miss")

	// ErrNoLoader is returned by GetOrCompute when no Loader was configured.
	ErrNoLoader = errors.New("cache: no Loader provided")
)

// IsCacheMiss reports whether err is (or wraps) ErrCacheMiss.
func IsCacheMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}
