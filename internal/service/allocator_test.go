package service_test

import (
	"regexp"
	"testing"

	"github.com/linemk/qris-shop/internal/service"
	"github.com/stretchr/testify/assert"
)

func TestAllocateUniqueAmount_Range(t *testing.T) {
	tests := []struct {
		base   int64
		digits int
		max    int64
	}{
		{base: 50000, digits: 3, max: 999},
		{base: 0, digits: 1, max: 9},
		{base: 75000, digits: 2, max: 99},
		{base: 1, digits: 4, max: 9999},
	}
	for _, tt := range tests {
		for i := 0; i < 2000; i++ {
			got := service.AllocateUniqueAmount(tt.base, tt.digits)
			delta := got - tt.base
			if delta < 1 || delta > tt.max {
				t.Fatalf("AllocateUniqueAmount(%d, %d) = %d, delta %d out of [1, %d]", tt.base, tt.digits, got, delta, tt.max)
			}
		}
	}
}

func TestAllocateUniqueAmount_Concrete(t *testing.T) {
	for i := 0; i < 1000; i++ {
		got := service.AllocateUniqueAmount(50000, 3)
		assert.GreaterOrEqual(t, got, int64(50001))
		assert.LessOrEqual(t, got, int64(50999))
	}
}

func TestNewOrderID_Format(t *testing.T) {
	re := regexp.MustCompile(`^OK-1740823200-[A-Z0-9]{6}$`)
	for i := 0; i < 100; i++ {
		id := service.NewOrderID("OK", baseTime)
		assert.Regexp(t, re, id)
	}
}
