package schema

import (
	"testing"

	"github.com/aretw0/homecare/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoercer_Valid(t *testing.T) {
	c := NewCoercer(domain.Answers{
		"age":         " 34 ",
		"years":       float64(5),
		"pct":         "78.5",
		"grad":        2019,
		"post_grad":   "",
		"post_grad_2": "2022",
	})

	assert.Equal(t, 34, c.Int("age"))
	assert.Equal(t, 5, c.Int("years"))
	assert.Equal(t, 78.5, c.Float("pct"))
	assert.Equal(t, 2019, c.Int("grad"))
	assert.Nil(t, c.OptionalInt("post_grad"))
	assert.Nil(t, c.OptionalInt("missing"))
	require.NotNil(t, c.OptionalInt("post_grad_2"))
	assert.Equal(t, 2022, *c.OptionalInt("post_grad_2"))
	assert.NoError(t, c.Err())
}

func TestCoercer_CollectsEveryFailure(t *testing.T) {
	c := NewCoercer(domain.Answers{
		"age":  "thirty",
		"pct":  "high",
		"year": 2019.5,
	})

	c.Int("age")
	c.Float("pct")
	c.Int("year")
	c.Int("absent")

	err := c.Err()
	require.Error(t, err)
	errs := ValidationErrors(err)
	require.Len(t, errs, 4)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "age", ve.Key)
	assert.Equal(t, "age: must be a whole number; pct: must be a number; year: must be a whole number; absent: must be a whole number",
		domain.UserMessage(err, "fallback"))
	assert.Contains(t, err.Error(), "4 answers need fixing:\n- field \"age\"")
}
