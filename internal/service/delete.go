package service

import (
	"go.uber.org/zap"
)

// BatchDeleteAsync ставит удаление записей пользователя в очередь.
// Идентификаторы могут быть в любой поддерживаемой форме, некорректные пропускаются.
func (s *Service) BatchDeleteAsync(userID string, ids []string) error {
	bvids := make([]string, 0, len(ids))
	for _, id := range ids {
		video, err := s.Resolve(id)
		if err != nil {
			s.logger.Warn("Skipping invalid id in delete request", zap.String("id", id), zap.Error(err))
			continue
		}
		bvids = append(bvids, video.BVID)
	}
	if len(bvids) == 0 {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrServiceClosed
	}
	s.deleteCh <- deleteTask{userID: userID, bvids: bvids}
	return nil
}

// deleteWorker обрабатывает очередь удалений до закрытия канала
func (s *Service) deleteWorker() {
	defer s.wg.Done()
	for task := range s.deleteCh {
		if err := s.repo.BatchDelete(task.userID, task.bvids); err != nil {
			s.logger.Error("Failed to delete videos",
				zap.String("user_id", task.userID),
				zap.Int("count", len(task.bvids)),
				zap.Error(err))
			continue
		}
		s.logger.Info("Videos deleted", zap.String("user_id", task.userID), zap.Int("count", len(task.bvids)))
	}
}

// Close закрывает очередь и дожидается обработки уже поставленных удалений
func (s *Service) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.deleteCh)
	}
	s.mu.Unlock()
	s.wg.Wait()
}
