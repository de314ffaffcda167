package repository

import (
	"path/filepath"
	"testing"

	"github.com/tempizhere/avbv/internal/codec"
	"github.com/tempizhere/avbv/internal/models"
	"go.uber.org/zap"
)

// BenchmarkMemoryRepository_Save измеряет производительность сохранения в memory репозитории
func BenchmarkMemoryRepository_Save(b *testing.B) {
	repo := NewMemoryRepository()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		aid := uint64(i)
		if err := repo.Save(models.Video{AID: aid, BVID: codec.MustEncode(aid), UserID: "bench-user"}); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkMemoryRepository_Get измеряет производительность получения из memory репозитория
func BenchmarkMemoryRepository_Get(b *testing.B) {
	repo := NewMemoryRepository()
	if err := repo.Save(models.Video{AID: 170001, BVID: "BV17x411w7KC", UserID: "bench-user"}); err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, exists := repo.Get("BV17x411w7KC"); !exists {
			b.Fatal("video not found")
		}
	}
}

// BenchmarkFileRepository_Save измеряет производительность дозаписи в файл
func BenchmarkFileRepository_Save(b *testing.B) {
	repo, err := NewFileRepository(filepath.Join(b.TempDir(), "bench.json"), zap.NewNop())
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		aid := uint64(i)
		if err := repo.Save(models.Video{AID: aid, BVID: codec.MustEncode(aid), UserID: "bench-user"}); err != nil {
			b.Fatal(err)
		}
	}
}
