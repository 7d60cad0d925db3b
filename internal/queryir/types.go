package queryir

// Query is a sealed interface implemented by Select and Count.
type Query interface {
	queryNode()
}

// Predicate is a sealed interface implemented by Equals and And.
type Predicate interface {
	predicateNode()
}

// DefaultOrderBy is the identifier column every entity table carries.
// Reads without an explicit order use it so results are deterministic.
const DefaultOrderBy = "id"

// Select reads rows from a single table.
//
//	SELECT <columns | *> FROM <from> WHERE <filter> ORDER BY <order> ASC LIMIT <limit>
type Select struct {
	From    string    // Table name
	Columns []string  // Projected columns (empty = all)
	Filter  Predicate // WHERE conditions (nil = no filter)
	OrderBy string    // Ordering column (empty = DefaultOrderBy)
	Limit   int       // Maximum rows (0 = unlimited)
}

func (Select) queryNode() {}

// Count counts rows of a table matching Filter.
type Count struct {
	From   string
	Filter Predicate
}

func (Count) queryNode() {}

// Equals matches rows whose column equals Value.
// A nil or mv.Null value compiles to IS NULL. Sequences are encoded with the
// multivalue delimiter before binding.
type Equals struct {
	Field string
	Value any
}

func (Equals) predicateNode() {}

// And matches rows satisfying every predicate. An empty And matches all rows.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Where builds an And of Equals predicates from a criteria map, ordered by
// column name so the generated SQL is stable.
func Where(criteria map[string]any) Predicate {
	if len(criteria) == 0 {
		return nil
	}
	fields := make([]string, 0, len(criteria))
	for f := range criteria {
		fields = append(fields, f)
	}
	sortStrings(fields)

	preds := make([]Predicate, len(fields))
	for i, f := range fields {
		preds[i] = Equals{Field: f, Value: criteria[f]}
	}
	if len(preds) == 1 {
		return preds[0]
	}
	return And{Predicates: preds}
}
