package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/go-crypt/x/blake2b"
	"github.com/poiesic/docstore/storage"
)

const (
	// checksumSize is the BLAKE2b digest length stored next to each blob.
	checksumSize = 16
)

// Backend wraps a BadgerDB instance and implements storage.Backend.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

var _ storage.Backend = (*Backend)(nil)

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Info(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens a BadgerDB database at the specified path.
// Creates the directory if it doesn't exist.
func OpenBackend(filePath string, inMemory bool) (*Backend, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		// Ensure directory exists
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	opts.Logger = &badgerLoggerAdapter{logger: slog.Default()}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Backend{
		db:     db,
		logger: slog.Default(),
	}, nil
}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// WithTx executes a function within a BadgerDB transaction.
// If isWrite is true, creates a read-write transaction.
// The transaction is automatically discarded if fn returns an error.
func (b *Backend) WithTx(fn func(tx *badger.Txn) error, isWrite bool) error {
	if b.db.IsClosed() {
		return storage.ErrStorageClosed
	}
	tx := b.db.NewTransaction(isWrite)
	defer tx.Discard()
	return fn(tx)
}

// GetItem returns the blob stored under key, verifying it against the digest
// written alongside it. Blobs stored without a digest are returned as is.
func (b *Backend) GetItem(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, storage.ErrEmptyKey
	}

	var blob []byte
	err := b.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeBlobKey(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		blob, err = item.ValueCopy(nil)
		if err != nil {
			return err
		}

		sumItem, err := tx.Get(makeChecksumKey(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				b.logger.Debug("blob stored without checksum", "key", key)
				return nil
			}
			return err
		}
		stored, err := sumItem.ValueCopy(nil)
		if err != nil {
			return err
		}
		sum, err := checksum(blob)
		if err != nil {
			return err
		}
		if !bytes.Equal(stored, sum) {
			return fmt.Errorf("%w: key %q", storage.ErrChecksumMismatch, key)
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	return blob, nil
}

// SetItem stores blob under key together with its digest, in one transaction.
func (b *Backend) SetItem(ctx context.Context, key string, blob []byte) error {
	if key == "" {
		return storage.ErrEmptyKey
	}

	sum, err := checksum(blob)
	if err != nil {
		return err
	}

	return b.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set(makeBlobKey(key), blob); err != nil {
			return err
		}
		if err := tx.Set(makeChecksumKey(key), sum); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// checksum returns the BLAKE2b digest of blob.
func checksum(blob []byte) ([]byte, error) {
	h, err := blake2b.New(checksumSize, nil)
	if err != nil {
		return nil, err
	}
	h.Write(blob)
	return h.Sum(nil), nil
}
