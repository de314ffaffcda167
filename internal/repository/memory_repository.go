package repository

import (
	"sync"
	"time"

	"github.com/tempizhere/avbv/internal/models"
)

// MemoryRepository реализует интерфейс Repository с использованием map
type MemoryRepository struct {
	store map[string]models.Video // bvid -> запись
	mutex sync.RWMutex
	now   func() time.Time
}

// NewMemoryRepository создаёт новый экземпляр MemoryRepository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		store: make(map[string]models.Video),
		now:   time.Now,
	}
}

// put записывает видео; вызывается под мьютексом
func (r *MemoryRepository) put(video models.Video) error {
	if existing, exists := r.store[video.BVID]; exists && !existing.DeletedFlag {
		return ErrVideoExists
	}
	if video.CreatedAt.IsZero() {
		video.CreatedAt = r.now()
	}
	video.DeletedFlag = false
	r.store[video.BVID] = video
	return nil
}

// Save сохраняет запись в хранилище
func (r *MemoryRepository) Save(video models.Video) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.put(video)
}

// Get возвращает запись по BV, если она существует
func (r *MemoryRepository) Get(bvid string) (models.Video, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	video, exists := r.store[bvid]
	return video, exists
}

// Clear очищает хранилище
func (r *MemoryRepository) Clear() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.store = make(map[string]models.Video)
}

// BatchSave сохраняет несколько записей. Новые записи сохраняются даже при
// конфликте, в этом случае возвращается ErrVideoExists.
func (r *MemoryRepository) BatchSave(videos []models.Video) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var conflict error
	for _, video := range videos {
		if err := r.put(video); err != nil {
			conflict = err
		}
	}
	return conflict
}

// GetVideosByUserID возвращает все неудалённые записи пользователя
func (r *MemoryRepository) GetVideosByUserID(userID string) ([]models.Video, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var videos []models.Video
	for _, video := range r.store {
		if video.UserID == userID && !video.DeletedFlag {
			videos = append(videos, video)
		}
	}
	sortVideos(videos)
	return videos, nil
}

// BatchDelete помечает записи пользователя как удалённые
func (r *MemoryRepository) BatchDelete(userID string, bvids []string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for _, bvid := range bvids {
		if video, exists := r.store[bvid]; exists && video.UserID == userID {
			video.DeletedFlag = true
			r.store[bvid] = video
		}
	}
	return nil
}

// GetStats возвращает количество неудалённых записей и уникальных пользователей
func (r *MemoryRepository) GetStats() (int, int, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return countStats(r.store)
}
