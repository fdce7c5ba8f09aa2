package redis

import "github.com/redis/rueidis"

// NewStoreForTest creates a Store over the provided rueidis client with no key prefix.
func NewStoreForTest(c rueidis.Client) *Store {
	return &Store{client: c}
}
