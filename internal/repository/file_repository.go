package repository

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tempizhere/avbv/internal/models"
	"go.uber.org/zap"
)

// VideoRecord представляет строку в JSON-файле
type VideoRecord struct {
	AID       uint64    `json:"aid"`
	BVID      string    `json:"bvid"`
	UserID    string    `json:"user_id"`
	IsDeleted bool      `json:"is_deleted"`
	CreatedAt time.Time `json:"created_at"`
}

// FileRepository реализует интерфейс Repository поверх журнала JSON-строк.
// Удаление дописывает запись с is_deleted, при чтении побеждает последняя запись.
type FileRepository struct {
	store    map[string]models.Video
	filePath string
	logger   *zap.Logger
	mutex    sync.RWMutex
}

// NewFileRepository создаёт новый экземпляр FileRepository и восстанавливает данные из файла
func NewFileRepository(filePath string, logger *zap.Logger) (*FileRepository, error) {
	repo := &FileRepository{
		store:    make(map[string]models.Video),
		filePath: filePath,
		logger:   logger,
	}

	// Создаём директорию, если не существует
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			newFile, err := os.Create(filePath)
			if err != nil {
				return nil, err
			}
			return repo, newFile.Close()
		}
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		var record VideoRecord
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			// Пропускаем некорректные строки и логируем это
			repo.logger.Warn("Skipping invalid JSON line", zap.String("line", string(scanner.Bytes())), zap.Error(err))
			continue
		}
		if record.BVID == "" {
			repo.logger.Warn("Skipping record without bvid", zap.Uint64("aid", record.AID))
			continue
		}
		repo.store[record.BVID] = record.toVideo()
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return repo, nil
}

func (rec VideoRecord) toVideo() models.Video {
	return models.Video{
		AID:         rec.AID,
		BVID:        rec.BVID,
		UserID:      rec.UserID,
		DeletedFlag: rec.IsDeleted,
		CreatedAt:   rec.CreatedAt,
	}
}

func newVideoRecord(video models.Video) VideoRecord {
	return VideoRecord{
		AID:       video.AID,
		BVID:      video.BVID,
		UserID:    video.UserID,
		IsDeleted: video.DeletedFlag,
		CreatedAt: video.CreatedAt,
	}
}

// appendRecords дописывает записи в конец файла; вызывается под мьютексом
func (r *FileRepository) appendRecords(videos []models.Video) error {
	if len(videos) == 0 {
		return nil
	}
	file, err := os.OpenFile(r.filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	for _, video := range videos {
		data, err := json.Marshal(newVideoRecord(video))
		if err != nil {
			return err
		}
		data = append(data, '\n')
		if _, err := writer.Write(data); err != nil {
			return err
		}
	}
	return writer.Flush()
}

// accept проверяет конфликт и дополняет запись; вызывается под мьютексом
func (r *FileRepository) accept(video models.Video) (models.Video, error) {
	if existing, exists := r.store[video.BVID]; exists && !existing.DeletedFlag {
		r.logger.Info("Video already exists", zap.String("bvid", video.BVID), zap.String("user_id", existing.UserID))
		return video, ErrVideoExists
	}
	if video.CreatedAt.IsZero() {
		video.CreatedAt = time.Now().UTC()
	}
	video.DeletedFlag = false
	return video, nil
}

// Save сохраняет запись в память и дописывает её в файл
func (r *FileRepository) Save(video models.Video) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	video, err := r.accept(video)
	if err != nil {
		return err
	}
	if err := r.appendRecords([]models.Video{video}); err != nil {
		r.logger.Error("Failed to append record", zap.String("bvid", video.BVID), zap.Error(err))
		return err
	}
	r.store[video.BVID] = video
	return nil
}

// Get возвращает запись по BV, если она существует
func (r *FileRepository) Get(bvid string) (models.Video, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	video, exists := r.store[bvid]
	return video, exists
}

// Clear очищает хранилище и файл
func (r *FileRepository) Clear() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.store = make(map[string]models.Video)
	if err := os.Truncate(r.filePath, 0); err != nil {
		r.logger.Error("Failed to truncate storage file", zap.String("path", r.filePath), zap.Error(err))
	}
}

// BatchSave сохраняет несколько записей; при конфликте новые записи всё равно сохраняются
func (r *FileRepository) BatchSave(videos []models.Video) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var conflict error
	accepted := make([]models.Video, 0, len(videos))
	seen := make(map[string]struct{}, len(videos))
	for _, video := range videos {
		if _, dup := seen[video.BVID]; dup {
			conflict = ErrVideoExists
			continue
		}
		v, err := r.accept(video)
		if err != nil {
			conflict = err
			continue
		}
		seen[v.BVID] = struct{}{}
		accepted = append(accepted, v)
	}

	if err := r.appendRecords(accepted); err != nil {
		r.logger.Error("Failed to append batch", zap.Int("count", len(accepted)), zap.Error(err))
		return err
	}
	for _, video := range accepted {
		r.store[video.BVID] = video
	}
	return conflict
}

// GetVideosByUserID возвращает все неудалённые записи пользователя
func (r *FileRepository) GetVideosByUserID(userID string) ([]models.Video, error) {
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

// BatchDelete помечает записи удалёнными и дописывает отметки в файл
func (r *FileRepository) BatchDelete(userID string, bvids []string) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var deleted []models.Video
	for _, bvid := range bvids {
		video, exists := r.store[bvid]
		if !exists || video.UserID != userID || video.DeletedFlag {
			continue
		}
		video.DeletedFlag = true
		deleted = append(deleted, video)
	}

	if err := r.appendRecords(deleted); err != nil {
		r.logger.Error("Failed to append delete marks", zap.String("user_id", userID), zap.Error(err))
		return err
	}
	for _, video := range deleted {
		r.store[video.BVID] = video
	}
	return nil
}

// GetStats возвращает количество неудалённых записей и уникальных пользователей
func (r *FileRepository) GetStats() (int, int, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return countStats(r.store)
}
