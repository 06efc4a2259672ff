// Package lock provides non-blocking advisory locks used to guarantee that at most one
// synchronization runs per organization at a time.
//
// Three backends implement Locker:
//
//   - MySQLLocker: GET_LOCK/RELEASE_LOCK on a dedicated connection. This is the default when the
//     store runs on MySQL, so the lock lives next to the data it protects.
//   - RedisLocker: bsm/redislock with a refreshed TTL, for deployments that already share Redis.
//   - LocalLocker: an in-process key set for sqlite and tests.
//
// Acquisition never waits: when the key is held WithLock returns ErrNotObtained immediately and fn
// is not called.
//
// # Usage
//
//	locker, _ := lock.New(cfg.Lock, db, rdb)
//	err := locker.WithLock(ctx, lock.Key("ticketing-sync", orgID), func(ctx context.Context) error {
//	    return run(ctx)
//	})
//	if errors.Is(err, lock.ErrNotObtained) {
//	    // somebody else is synchronizing
//	}
package lock
