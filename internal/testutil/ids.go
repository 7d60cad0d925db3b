package testutil

// FixedIDGenerator generates the same record identifier every time.
//
// Pair it with a text-keyed table to provoke duplicate-key failures: the
// second generated insert collides with the first.
//
// Thread-safety: FixedIDGenerator is stateless and safe for concurrent use.
type FixedIDGenerator struct {
	id string
}

// NewFixedIDGenerator creates a generator that always returns id.
//
// If id is empty, Generate() returns "fixed-id".
func NewFixedIDGenerator(id string) *FixedIDGenerator {
	if id == "" {
		id = "fixed-id"
	}
	return &FixedIDGenerator{id: id}
}

// Generate returns the fixed identifier.
//
// Implements crud.IDGenerator.
func (g *FixedIDGenerator) Generate() string {
	return g.id
}
