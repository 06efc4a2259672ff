package lock

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// MySQLLocker uses MySQL named locks.
// GET_LOCK is connection-scoped, so the lock and its release run on one pinned connection.
type MySQLLocker struct {
	db *gorm.DB
}

// NewMySQLLocker creates a locker backed by GET_LOCK.
func NewMySQLLocker(db *gorm.DB) *MySQLLocker {
	return &MySQLLocker{db: db}
}

// WithLock implements Locker. The zero timeout makes acquisition non-blocking.
func (l *MySQLLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	return l.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		var acquired int
		if err := conn.Raw("SELECT COALESCE(GET_LOCK(?, 0), 0)", key).Scan(&acquired).Error; err != nil {
			return fmt.Errorf("failed to acquire lock %s: %w", key, err)
		}
		if acquired != 1 {
			return ErrNotObtained
		}

		defer func() {
			var released int
			_ = conn.WithContext(context.WithoutCancel(ctx)).
				Raw("SELECT COALESCE(RELEASE_LOCK(?), 0)", key).
				Scan(&released).Error
		}()

		return fn(ctx)
	})
}
