package partition

import "hash/fnv"

// Count is the fixed number of logical partitions.
const Count = 256

// For returns the partition ID for a routing key such as a product ID.
// The same key always maps to the same partition.
func For(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % Count)
}

// Lane folds a key's partition onto one of lanes workers. Keys sharing a
// partition always share a lane, so their work is applied in arrival order.
func Lane(key string, lanes int) int {
	if lanes <= 1 {
		return 0
	}
	return For(key) % lanes
}
