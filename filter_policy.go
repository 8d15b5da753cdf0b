package levelkv

import "github.com/aalhour/levelkv/internal/native"

// FilterPolicy is an engine filter used to skip reads of tables that cannot
// contain a key.
type FilterPolicy struct {
	res *resource
}

// NewBloomFilter creates a bloom filter policy with the given number of bits
// per key. 10 bits per key gives roughly a 1% false positive rate.
func NewBloomFilter(bitsPerKey int) (*FilterPolicy, error) {
	if err := ensureLoaded(); err != nil {
		return nil, err
	}
	if bitsPerKey <= 0 {
		return nil, newError(ErrOperation, "filter policy", "bits per key must be positive")
	}
	p := native.FilterPolicyBloom(int32(bitsPerKey))
	if p == 0 {
		return nil, newError(ErrOperation, "filter policy", "engine returned no filter policy")
	}
	return &FilterPolicy{res: newResource(p, native.FilterPolicyDestroy)}, nil
}

// Close destroys the policy once no open database references it.
func (f *FilterPolicy) Close() { f.res.close() }
