package host

// Hasher hashes and compares host objects for the concurrent collections.
//
// An object whose equality callback fails is compared by identity instead, so
// a misbehaving __eq__ cannot make a key unreachable.
type Hasher struct{}

// Hash implements the collection hasher contract.
func (Hasher) Hash(k Object) (uint64, error) {
	return Hash(k)
}

// Equal implements the collection hasher contract.
func (Hasher) Equal(a, b Object) bool {
	eq, err := Equal(a, b)
	if err != nil {
		return Same(a, b)
	}
	return eq
}
