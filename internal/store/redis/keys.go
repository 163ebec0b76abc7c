package redis

const (
	// KeyPrefix namespaces every value huddle writes.
	KeyPrefix = "huddle:kv:"
)

// Key returns the Redis key holding the value stored under name.
func Key(name string) string {
	return KeyPrefix + name
}
