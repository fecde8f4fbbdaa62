package repositories

import (
	"agora/domain/agora"
	"agora/errors"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// Keys embed 19-digit zero padded ids so that prefix scans come back in id order.
func agoraKey(id agora.ID) []byte {
	return []byte(fmt.Sprintf("agora:%019d", id))
}

func membershipPrefix(id agora.ID) []byte {
	return []byte(fmt.Sprintf("member:%019d:", id))
}

func membershipKey(id agora.ID, userID agora.UserID) []byte {
	return []byte(fmt.Sprintf("member:%019d:%019d", id, userID))
}

func chatPrefix(id agora.ID) []byte {
	return []byte(fmt.Sprintf("chat:%019d:", id))
}

func chatKey(id agora.ID, chatID int64) []byte {
	return []byte(fmt.Sprintf("chat:%019d:%019d", id, chatID))
}

func categoryKey(id agora.CategoryID) []byte {
	return []byte(fmt.Sprintf("category:%019d", id))
}

func userKey(id agora.UserID) []byte {
	return []byte(fmt.Sprintf("user:%019d", id))
}

const sequenceBandwidth = 100

// nextID wraps a badger sequence, which starts at 0, into ids starting at 1.
func nextID(seq *badger.Sequence) (int64, error) {
	n, err := seq.Next()
	if err != nil {
		return 0, fmt.Errorf("sequence failed: %w", err)
	}
	return int64(n) + 1, nil
}

// updateWithRetry runs fn in a read-write transaction and replays it when
// badger reports a conflict with a concurrent transaction. Callers only ever
// see a definitive outcome.
func updateWithRetry(db *badger.DB, fn func(txn *badger.Txn) error) error {
	for {
		err := db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
}

func getJSON(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return txn.Set(key, data)
}

func countPrefix(txn *badger.Txn, prefix []byte) int {
	options := badger.DefaultIteratorOptions
	options.PrefetchValues = false
	options.Prefix = prefix
	it := txn.NewIterator(options)
	defer it.Close()

	count := 0
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		count++
	}
	return count
}

func scanJSON[T any](txn *badger.Txn, prefix []byte) ([]T, error) {
	options := badger.DefaultIteratorOptions
	options.Prefix = prefix
	it := txn.NewIterator(options)
	defer it.Close()

	var res []T
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var v T
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &v)
		}); err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, nil
}
