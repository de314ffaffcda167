package repository

import (
	"sort"

	"github.com/tempizhere/avbv/internal/models"
)

// countStats считает неудалённые записи и уникальных пользователей среди них
func countStats(store map[string]models.Video) (int, int, error) {
	videos := 0
	users := make(map[string]struct{})
	for _, video := range store {
		if video.DeletedFlag {
			continue
		}
		videos++
		if video.UserID != "" {
			users[video.UserID] = struct{}{}
		}
	}
	return videos, len(users), nil
}

// sortVideos упорядочивает записи по времени создания, затем по aid
func sortVideos(videos []models.Video) {
	sort.Slice(videos, func(i, j int) bool {
		if !videos[i].CreatedAt.Equal(videos[j].CreatedAt) {
			return videos[i].CreatedAt.Before(videos[j].CreatedAt)
		}
		return videos[i].AID < videos[j].AID
	})
}
