package editing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllocate(t *testing.T) {
	t.Run("balanced when slots cover the remainder", func(t *testing.T) {
		a := Allocate(10, 4, []float64{6})
		assert.Equal(t, 6.0, a.Allocated)
		assert.Equal(t, 6.0, a.Required)
		assert.Equal(t, 0.0, a.Remaining)
		assert.True(t, a.Balanced)
		assert.Empty(t, a.Violation())
	})

	t.Run("under-allocation reports the remainder", func(t *testing.T) {
		a := Allocate(10, 4, []float64{5})
		assert.False(t, a.Balanced)
		assert.Equal(t, 1.0, a.Remaining)
		assert.Equal(t, "1 remaining to allocate", a.Violation())
	})

	t.Run("over-allocation reports the excess", func(t *testing.T) {
		a := Allocate(10, 4, []float64{7.5})
		assert.False(t, a.Balanced)
		assert.Equal(t, -1.5, a.Remaining)
		assert.Equal(t, "over-allocated by 1.5", a.Violation())
	})

	t.Run("binary float artifacts cannot fail equality", func(t *testing.T) {
		assert.True(t, Allocate(0.3, 0, []float64{0.1, 0.2}).Balanced)

		tenths := make([]float64, 10)
		for i := range tenths {
			tenths[i] = 0.1
		}
		assert.True(t, Allocate(1, 0, tenths).Balanced)
	})

	t.Run("terms are rounded before comparison", func(t *testing.T) {
		a := Allocate(10, 4, []float64{5.995})
		assert.Equal(t, 6.0, a.Allocated)
		assert.True(t, a.Balanced)

		a = Allocate(10, 4, []float64{5.994})
		assert.Equal(t, 5.99, a.Allocated)
		assert.Equal(t, 0.01, a.Remaining)
		assert.False(t, a.Balanced)
		assert.Equal(t, "0.01 remaining to allocate", a.Violation())
	})

	t.Run("zero slots balance only when nothing remains", func(t *testing.T) {
		assert.True(t, Allocate(4, 4, nil).Balanced)
		assert.False(t, Allocate(4, 0, nil).Balanced)
	})

	t.Run("split across many slots", func(t *testing.T) {
		a := Allocate(100, 12.5, []float64{30, 30, 27.5})
		assert.Equal(t, 87.5, a.Allocated)
		assert.Equal(t, 87.5, a.Required)
		assert.True(t, a.Balanced)
	})
}
