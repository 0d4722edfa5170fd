// services/presence/status_cache.go
package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/smena/smena_backend/internal/services/timeclock"
)

// statusTTL с запасом покрывает самую длинную смену: запись не может
// надолго пережить реальность, даже если обновление потерялось.
const statusTTL = 16 * time.Hour

// WorkerStatus — запись живого статуса сотрудника по текущей смене.
type WorkerStatus struct {
	UserID    int              `json:"user_id"`
	ShiftID   int              `json:"shift_id"`
	Status    timeclock.Status `json:"status"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Store — Redis-проекция производных статусов. Это кэш: пересчитывается
// при каждой clock-записи и никогда не правится руками.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func statusKey(workspaceID, userID int) string {
	return fmt.Sprintf("presence:status:%d:%d", workspaceID, userID)
}

// SetStatus записывает статус сотрудника. COMPLETED убирает запись:
// закончивший смену сотрудник пропадает с живой доски.
func (s *Store) SetStatus(ctx context.Context, workspaceID, userID, shiftID int, status timeclock.Status) error {
	key := statusKey(workspaceID, userID)
	if status == timeclock.StatusCompleted {
		return s.client.Del(ctx, key).Err()
	}

	data, err := json.Marshal(WorkerStatus{
		UserID:    userID,
		ShiftID:   shiftID,
		Status:    status,
		UpdatedAt: time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, statusTTL).Err()
}

// WorkspaceStatuses возвращает живые статусы всех сотрудников пространства.
func (s *Store) WorkspaceStatuses(ctx context.Context, workspaceID int) ([]WorkerStatus, error) {
	pattern := fmt.Sprintf("presence:status:%d:*", workspaceID)
	keys, err := s.client.Keys(ctx, pattern).Result()
	if err != nil {
		return nil, err
	}

	var statuses []WorkerStatus
	for _, key := range keys {
		data, err := s.client.Get(ctx, key).Bytes()
		if err != nil {
			continue
		}
		var st WorkerStatus
		if err := json.Unmarshal(data, &st); err != nil {
			continue
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}
