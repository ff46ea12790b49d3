package analyzer

import (
	"context"
	"path/filepath"
	"testing"
)

func BenchmarkAnalyze_Monolith(b *testing.B) {
	src, err := LoadSource(filepath.Join("testdata", "monolith.py"))
	if err != nil {
		b.Fatal(err)
	}
	a := New(nil)
	ctx := context.Background()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		analysis, err := a.Analyze(ctx, src)
		if err != nil {
			b.Fatal(err)
		}
		if analysis.Buckets.Len() == 0 {
			b.Fatal("no fragments")
		}
	}
}
