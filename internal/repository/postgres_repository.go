package repository

import (
	"database/sql"
	"errors"

	"github.com/tempizhere/avbv/internal/models"
	"go.uber.org/zap"
)

const (
	// Повторная вставка оживляет только удалённую запись, иначе строка не затрагивается
	insertVideoQuery = `INSERT INTO videos (aid, bvid, user_id) VALUES ($1, $2, $3) ` +
		`ON CONFLICT (bvid) DO UPDATE SET user_id = EXCLUDED.user_id, is_deleted = FALSE, created_at = CURRENT_TIMESTAMP ` +
		`WHERE videos.is_deleted`
	selectVideoQuery  = `SELECT aid, bvid, user_id, is_deleted, created_at FROM videos WHERE bvid = $1`
	selectByUserQuery = `SELECT aid, bvid, user_id, is_deleted, created_at FROM videos WHERE user_id = $1 AND NOT is_deleted ORDER BY created_at, aid`
	deleteVideoQuery  = `UPDATE videos SET is_deleted = TRUE WHERE user_id = $1 AND bvid = $2`
	statsQuery        = `SELECT COUNT(*), COUNT(DISTINCT user_id) FROM videos WHERE NOT is_deleted`
	truncateQuery     = `TRUNCATE TABLE videos RESTART IDENTITY`
)

// PostgresRepository реализует интерфейс Repository с использованием PostgreSQL
type PostgresRepository struct {
	db     Database
	logger *zap.Logger
}

// NewPostgresRepository создаёт новый экземпляр PostgresRepository
func NewPostgresRepository(db Database, logger *zap.Logger) (*PostgresRepository, error) {
	if db == nil {
		return nil, errors.New("database is not configured")
	}
	return &PostgresRepository{
		db:     db,
		logger: logger,
	}, nil
}

// Save сохраняет запись в базе данных
func (r *PostgresRepository) Save(video models.Video) error {
	res, err := r.db.Exec(insertVideoQuery, video.AID, video.BVID, video.UserID)
	if err != nil {
		r.logger.Error("Failed to save video to database", zap.String("bvid", video.BVID), zap.Error(err))
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrVideoExists
	}
	return nil
}

// scanner покрывает *sql.Row и *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanVideo(s scanner) (models.Video, error) {
	var video models.Video
	var userID sql.NullString
	if err := s.Scan(&video.AID, &video.BVID, &userID, &video.DeletedFlag, &video.CreatedAt); err != nil {
		return models.Video{}, err
	}
	video.UserID = userID.String
	return video, nil
}

// Get возвращает запись по BV, если она существует
func (r *PostgresRepository) Get(bvid string) (models.Video, bool) {
	video, err := scanVideo(r.db.QueryRow(selectVideoQuery, bvid))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Video{}, false
	}
	if err != nil {
		r.logger.Error("Failed to get video from database", zap.String("bvid", bvid), zap.Error(err))
		return models.Video{}, false
	}
	return video, true
}

// Clear очищает таблицу videos
func (r *PostgresRepository) Clear() {
	if _, err := r.db.Exec(truncateQuery); err != nil {
		r.logger.Error("Failed to clear database", zap.Error(err))
	}
}

// BatchSave сохраняет несколько записей в одной транзакции
func (r *PostgresRepository) BatchSave(videos []models.Video) error {
	tx, err := r.db.Begin()
	if err != nil {
		r.logger.Error("Failed to start transaction", zap.Error(err))
		return err
	}

	var conflict error
	for _, video := range videos {
		res, err := tx.Exec(insertVideoQuery, video.AID, video.BVID, video.UserID)
		if err != nil {
			r.logger.Error("Failed to save video in transaction", zap.String("bvid", video.BVID), zap.Error(err))
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.Error("Failed to rollback transaction", zap.Error(rbErr))
			}
			return err
		}
		if affected, err := res.RowsAffected(); err == nil && affected == 0 {
			conflict = ErrVideoExists
		}
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("Failed to commit transaction", zap.Error(err))
		return err
	}
	return conflict
}

// GetVideosByUserID возвращает неудалённые записи пользователя
func (r *PostgresRepository) GetVideosByUserID(userID string) ([]models.Video, error) {
	rows, err := r.db.Query(selectByUserQuery, userID)
	if err != nil {
		r.logger.Error("Failed to query user videos", zap.String("user_id", userID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, err
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return videos, nil
}

// BatchDelete помечает записи пользователя как удалённые
func (r *PostgresRepository) BatchDelete(userID string, bvids []string) error {
	tx, err := r.db.Begin()
	if err != nil {
		r.logger.Error("Failed to start transaction", zap.Error(err))
		return err
	}
	for _, bvid := range bvids {
		if _, err := tx.Exec(deleteVideoQuery, userID, bvid); err != nil {
			r.logger.Error("Failed to delete video", zap.String("bvid", bvid), zap.Error(err))
			if rbErr := tx.Rollback(); rbErr != nil {
				r.logger.Error("Failed to rollback transaction", zap.Error(rbErr))
			}
			return err
		}
	}
	return tx.Commit()
}

// GetStats возвращает количество неудалённых записей и уникальных пользователей
func (r *PostgresRepository) GetStats() (int, int, error) {
	var videos, users int
	if err := r.db.QueryRow(statsQuery).Scan(&videos, &users); err != nil {
		r.logger.Error("Failed to get stats", zap.Error(err))
		return 0, 0, err
	}
	return videos, users, nil
}
