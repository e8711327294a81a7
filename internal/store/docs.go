package store

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
)

// getDoc decodes the JSON document at key into v. A missing key is
// ErrNotFound.
func getDoc(txn *badger.Txn, key string, v interface{}) error {
	item, err := txn.Get([]byte(key))
	if err == badger.ErrKeyNotFound {
		return ErrNotFound
	} else if err != nil {
		return errors.Wrapf(err, "get %s", key)
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

// setDoc stores v as JSON at key.
func setDoc(txn *badger.Txn, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "encode %s", key)
	}
	return txn.Set([]byte(key), data)
}

// scanDocs decodes every document whose key starts with prefix, in key order.
// Documents that fail to decode are skipped.
func scanDocs(txn *badger.Txn, prefix string, decode func(val []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := txn.NewIterator(opts)
	defer it.Close()

	for it.Rewind(); it.Valid(); it.Next() {
		err := it.Item().Value(func(val []byte) error {
			decode(val)
			return nil
		})
		if err != nil {
			return errors.Wrapf(err, "scan %s", prefix)
		}
	}
	return nil
}

// claimUnique points the unique key at id, failing with ErrConflict when the
// key already belongs to another document. Badger tracks the read, so of two
// concurrent claims one commit conflicts; on retry it sees the winner's key.
func claimUnique(txn *badger.Txn, key, id string) error {
	item, err := txn.Get([]byte(key))
	switch {
	case err == badger.ErrKeyNotFound:
	case err != nil:
		return errors.Wrapf(err, "get %s", key)
	default:
		owner, err := item.ValueCopy(nil)
		if err != nil {
			return errors.Wrapf(err, "read %s", key)
		}
		if string(owner) != id {
			return ErrConflict
		}
	}
	return txn.Set([]byte(key), []byte(id))
}

// maxTxnAttempts bounds how often update re-runs a transaction that lost a
// write conflict.
const maxTxnAttempts = 64

// update runs fn in a read-write transaction, retrying it from scratch while
// Badger reports a conflict with a concurrent commit. fn must not keep state
// across attempts other than what it reassigns.
func update(ctx context.Context, db *badger.DB, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxTxnAttempts; attempt++ {
		err = db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return err
}

// commit maps the outcome of a read-write transaction. A conflict that
// outlasted every retry is reported as conflictErr when one is given.
func commit(err error, conflictErr error) error {
	if conflictErr != nil && errors.Is(err, badger.ErrConflict) {
		return conflictErr
	}
	return translate(err)
}

// translate passes the package sentinels through and attaches a stack to
// anything else.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict),
		errors.Is(err, ErrNotFoundOrUnauthorized), errors.Is(err, ErrCommentNotFound):
		return err
	}
	return errors.WithStack(err)
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
