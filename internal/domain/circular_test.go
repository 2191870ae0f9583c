package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func deg(d float64) float64 { return d * math.Pi / 180 }

func TestCircularMean(t *testing.T) {
	t.Run("wraps around north", func(t *testing.T) {
		// 1°, 359°, 2° straddle north; naive averaging would report ~120°.
		got := CircularMean([]float64{deg(1), deg(359), deg(2)})
		assert.InDelta(t, deg(0.6667), got, 1e-4)
	})

	t.Run("identical angles", func(t *testing.T) {
		got := CircularMean([]float64{deg(45), deg(45), deg(45)})
		assert.InDelta(t, deg(45), got, 1e-12)
	})

	t.Run("ignores NaN values", func(t *testing.T) {
		got := CircularMean([]float64{deg(90), math.NaN(), deg(90)})
		assert.InDelta(t, deg(90), got, 1e-12)
	})

	t.Run("all NaN", func(t *testing.T) {
		assert.True(t, math.IsNaN(CircularMean([]float64{math.NaN(), math.NaN()})))
	})

	t.Run("empty", func(t *testing.T) {
		assert.True(t, math.IsNaN(CircularMean(nil)))
	})
}

func TestCircularStd(t *testing.T) {
	t.Run("zero for aligned angles", func(t *testing.T) {
		got := CircularStd([]float64{deg(123), deg(123), deg(123)})
		assert.InDelta(t, 0, got, 1e-6)
	})

	t.Run("large finite for uniform spread", func(t *testing.T) {
		// Four angles at right angles cancel exactly; R hits the clamp
		// floor and the dispersion must stay finite.
		got := CircularStd([]float64{0, math.Pi / 2, math.Pi, 3 * math.Pi / 2})
		assert.False(t, math.IsInf(got, 0))
		assert.False(t, math.IsNaN(got))
		assert.Greater(t, got, 5.0)
	})

	t.Run("small spread", func(t *testing.T) {
		got := CircularStd([]float64{deg(44), deg(45), deg(46)})
		assert.Greater(t, got, 0.0)
		assert.Less(t, got, deg(2))
	})

	t.Run("all NaN", func(t *testing.T) {
		assert.True(t, math.IsNaN(CircularStd([]float64{math.NaN()})))
	})
}

func TestAngularDelta(t *testing.T) {
	tests := []struct {
		name string
		a, b float64
		want float64
	}{
		{"no wrap", deg(10), deg(5), deg(5)},
		{"wrap positive", deg(1), deg(359), deg(2)},
		{"wrap negative", deg(359), deg(1), deg(-2)},
		{"opposite", deg(180), 0, deg(180)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AngularDelta(tt.a, tt.b), 1e-9)
		})
	}
}

func TestCategoryCode(t *testing.T) {
	assert.Equal(t, "01", Category{ReasonNone, HighConfidence}.Code())
	assert.Equal(t, "00", Category{ReasonNone, LowConfidence}.Code())
	assert.Equal(t, "11", Category{ReasonDistance, HighConfidence}.Code())
	assert.Equal(t, "20", Category{ReasonBearing, LowConfidence}.Code())
	assert.Equal(t, "31", Category{ReasonBoth, HighConfidence}.Code())

	assert.True(t, Category{ReasonNone, LowConfidence}.Inlier())
	assert.True(t, InitialCategory.Inlier())
	assert.False(t, Category{ReasonDistance, HighConfidence}.Inlier())
}
