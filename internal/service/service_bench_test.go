package service

import (
	"strconv"
	"testing"

	"github.com/tempizhere/avbv/internal/repository"
)

// BenchmarkService_Resolve измеряет стоимость разбора и преобразования без хранилища
func BenchmarkService_Resolve(b *testing.B) {
	svc := NewService(repository.NewMemoryRepository(), "https://www.bilibili.com", "bench", nil)
	defer svc.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.Resolve("av" + strconv.Itoa(i)); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkService_Convert измеряет преобразование с записью в историю
func BenchmarkService_Convert(b *testing.B) {
	svc := NewService(repository.NewMemoryRepository(), "https://www.bilibili.com", "bench", nil)
	defer svc.Close()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := svc.Convert(strconv.Itoa(i), "bench-user"); err != nil {
			b.Fatal(err)
		}
	}
}
