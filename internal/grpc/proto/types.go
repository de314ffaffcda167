// Package proto содержит сообщения и описание gRPC сервиса преобразования идентификаторов
package proto

// ConvertRequest представляет запрос на преобразование идентификатора в любой форме (av, BV, ссылка)
type ConvertRequest struct {
	ID string `json:"id"`
}

// ConvertResponse содержит пару av/BV и ссылка на страницу видео
type ConvertResponse struct {
	AID  uint64 `json:"aid"`
	BVID string `json:"bvid"`
	URL  string `json:"url"`
}

// BatchItem представляет элемент пакетного запроса
type BatchItem struct {
	CorrelationID string `json:"correlation_id"`
	ID            string `json:"id"`
}

// BatchResult представляет элемент пакетного ответа
type BatchResult struct {
	CorrelationID string `json:"correlation_id"`
	AID           uint64 `json:"aid"`
	BVID          string `json:"bvid"`
	URL           string `json:"url"`
}

// BatchConvertRequest представляет запрос пакетного преобразования
type BatchConvertRequest struct {
	Items []*BatchItem `json:"items"`
}

// BatchConvertResponse представляет ответ пакетного преобразования
type BatchConvertResponse struct {
	Items []*BatchResult `json:"items"`
}

type GetUserVideosRequest struct{}

// GetUserVideosResponse содержит историю преобразований пользователя
type GetUserVideosResponse struct {
	Videos []*ConvertResponse `json:"videos"`
}

// DeleteUserVideosRequest содержит идентификаторы для асинхронного удаления из истории
type DeleteUserVideosRequest struct {
	IDs []string `json:"ids"`
}

type DeleteUserVideosResponse struct {
	Accepted bool `json:"accepted"`
}

type PingRequest struct{}

// PingResponse сообщает, доступна ли база данных
type PingResponse struct {
	DatabaseAvailable bool `json:"database_available"`
}

type GetStatsRequest struct{}

// GetStatsResponse содержит количество записей истории и уникальных пользователей
type GetStatsResponse struct {
	Videos int64 `json:"videos"`
	Users  int64 `json:"users"`
}
