package kvstore

import "github.com/spacemeshos/go-evmbridge/sql"

const sequenceKey = "global_sequence"

// SetSequence stores the next global sequence of the scheduler.
func SetSequence(db sql.Executor, next uint64) error {
	return addKeyValue(db, sequenceKey, next)
}

// GetSequence returns the stored next global sequence, 0 if none was stored.
func GetSequence(db sql.Executor) (uint64, error) {
	var next uint64
	if err := getKeyValue(db, sequenceKey, &next); err != nil {
		if sql.IsNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	return next, nil
}
