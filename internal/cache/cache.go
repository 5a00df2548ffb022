// Package cache holds the key-value stores behind the completion cache.
package cache

import "errors"

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")
