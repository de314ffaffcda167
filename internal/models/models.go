// Package models содержит структуры данных, которыми обмениваются слои сервиса.
package models

import "time"

// Video представляет запись истории: пару av/BV и пользователя, запросившего её первым
type Video struct {
	AID         uint64    `json:"aid" db:"aid"`
	BVID        string    `json:"bvid" db:"bvid"`
	UserID      string    `json:"user_id" db:"user_id"`
	DeletedFlag bool      `json:"is_deleted" db:"is_deleted"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// ConvertRequest представляет запрос на преобразование одного идентификатора (av, BV или ссылка на видео)
type ConvertRequest struct {
	ID string `json:"id"`
}

// ConvertResponse представляет результат преобразования
type ConvertResponse struct {
	AID  uint64 `json:"aid"`
	BVID string `json:"bvid"`
	URL  string `json:"url"`
}

type BatchRequest struct {
	CorrelationID string `json:"correlation_id"`
	ID            string `json:"id"`
}

type BatchResponse struct {
	CorrelationID string `json:"correlation_id"`
	AID           uint64 `json:"aid"`
	BVID          string `json:"bvid"`
	URL           string `json:"url"`
}

// StatsResponse содержит агрегированную статистику истории
type StatsResponse struct {
	Videos int `json:"videos"`
	Users  int `json:"users"`
}
