// Package schema provides the value checks behind wizard fields.
//
// Each field kind maps to a Type that decides which raw values may enter the
// answer set:
//
//	t := schema.TypeFor(domain.Field{Key: "painSeverity", Kind: domain.KindRange, Range: &domain.Range{Max: 10}})
//	err := t.Validate(7) // nil
//
// Numbers are stored raw while the user types and converted once, at the payload
// boundary, by a Coercer:
//
//	c := schema.NewCoercer(answers)
//	age := c.Int("age")
//	pct := c.Float("aggregate_percentage")
//	if err := c.Err(); err != nil {
//	    // *AggregateError of *ValidationError, one per bad field
//	}
package schema
