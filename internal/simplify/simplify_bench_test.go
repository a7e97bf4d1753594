package simplify

import (
	"context"
	"testing"
)

// The straight/curvy pair documents the algorithm's spread between its
// near-linear average case and its quadratic worst case at the same n.

func BenchmarkSimplifyStraight85k(b *testing.B) {
	track := straightTrack(85000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Simplify(context.Background(), track, 10); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSimplifyCurvy85k(b *testing.B) {
	track := zigzagTrack(85000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Simplify(context.Background(), track, 5); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSimplifyCurvy85kPreFiltered(b *testing.B) {
	track := zigzagTrack(85000)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		filtered := PreFilter(track, 5)
		if _, err := Simplify(context.Background(), filtered, 5); err != nil {
			b.Fatal(err)
		}
	}
}
