package ring_buffer

import (
	"math"
	"testing"
)

func TestRingBuffer_Add(t *testing.T) {
	t.Run("fill ring buffer with digits until it loops, and test that it works", func(t *testing.T) {
		ringBuffer := New(10)

		for i := 0; i < 20; i++ {
			ringBuffer.Add([]float64{float64(i)})
		}

		expected := []float64{10, 11, 12, 13, 14, 15, 16, 17, 18, 19}
		actual := ringBuffer.Read()

		for i := 0; i < 10; i++ {
			if expected[i] != actual[i] {
				t.Errorf("expected %f, got %f", expected[i], actual[i])
			}
		}
	})
}

func TestRingBuffer_Mean(t *testing.T) {
	t.Run("mean over the retained window", func(t *testing.T) {
		ringBuffer := New(4)

		ringBuffer.Add([]float64{1, 2, 3, 4, 5, 6})

		// window holds 3, 4, 5, 6
		expected := 4.5
		actual := ringBuffer.Mean()

		if math.Abs(expected-actual) > 1e-12 {
			t.Errorf("expected %f, got %f", expected, actual)
		}
	})
}
