// Package repository содержит хранилища истории преобразований идентификаторов.
package repository

import (
	"database/sql"
	"errors"

	"github.com/tempizhere/avbv/internal/models"
)

// ErrVideoExists возвращается при попытке повторно сохранить уже записанный BV
var ErrVideoExists = errors.New("video already exists")

//go:generate mockgen -destination=mock_database.go -package=repository github.com/tempizhere/avbv/internal/repository Database

// Repository определяет интерфейс для работы с историей преобразований
type Repository interface {
	// Save сохраняет запись; для уже записанного BV возвращает ErrVideoExists
	Save(video models.Video) error
	// Get возвращает запись по BV и флаг существования
	Get(bvid string) (models.Video, bool)
	// Clear очищает все данные в хранилище
	Clear()
	// BatchSave сохраняет несколько записей за один раз
	BatchSave(videos []models.Video) error
	// GetVideosByUserID возвращает неудалённые записи пользователя
	GetVideosByUserID(userID string) ([]models.Video, error)
	// BatchDelete помечает записи пользователя как удалённые
	BatchDelete(userID string, bvids []string) error
	// GetStats возвращает количество записей и уникальных пользователей
	GetStats() (int, int, error)
}

// Database определяет интерфейс для работы с базой данных
type Database interface {
	// Ping проверяет соединение с базой данных
	Ping() error
	// Close закрывает соединение с базой данных
	Close() error
	// Exec выполняет SQL-команду без возврата результатов
	Exec(query string, args ...interface{}) (sql.Result, error)
	// Query выполняет SQL-запрос и возвращает результаты
	Query(query string, args ...interface{}) (*sql.Rows, error)
	// QueryRow выполняет SQL-запрос и возвращает одну строку результата
	QueryRow(query string, args ...interface{}) *sql.Row
	// Begin начинает новую транзакцию
	Begin() (*sql.Tx, error)
}
