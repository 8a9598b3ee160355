package canonicalizer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/David-Botos/jobnorm/pkg/model"
)

func TestSalaryBounds(t *testing.T) {
	tests := []struct {
		raw  string
		want model.Value
	}{
		{"0", model.Present("0")},
		{"20,000,000", model.Present("20000000")},
		{"2400000000", model.Present("2400000000")},
		{"100000000000", model.Present("100000000000")},
		{"100000000001", model.Invalid()},
		{"1e20", model.Invalid()},
		{"Inf", model.Invalid()},
		{"NaN", model.Invalid()},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, standardizeSalary(tt.raw))
		})
	}
}
