package badger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/compliq/storage"
)

// maxEntryPrealloc caps slice preallocation driven by a stored manifest's
// entry count. Larger counts still load; they just grow incrementally.
const maxEntryPrealloc = 1 << 16

// IndexRepository implements storage.IndexStore for BadgerDB. It holds at
// most one embedding index; the manifest record is committed after all
// entries so an interrupted save reads back as a cache miss.
type IndexRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.IndexStore = (*IndexRepository)(nil)

// NewIndexRepository creates a new IndexRepository.
func NewIndexRepository(backend *Backend) *IndexRepository {
	return &IndexRepository{
		backend: backend,
		logger:  slog.Default().With("component", "index-store"),
	}
}

// Close is a no-op; the repository holds no resources beyond the backend,
// which is closed by its owner.
func (r *IndexRepository) Close() error {
	return nil
}

// Load returns the stored index if its fingerprint matches.
func (r *IndexRepository) Load(ctx context.Context, fingerprint string) (*storage.IndexManifest, []storage.IndexEntry, error) {
	if r.backend.IsClosed() {
		return nil, nil, storage.ErrStorageClosed
	}

	var manifest *storage.IndexManifest
	var entries []storage.IndexEntry

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(indexManifestKey))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		if err := item.Value(func(val []byte) error {
			manifest, err = storage.UnmarshalManifest(val)
			return err
		}); err != nil {
			return err
		}

		if manifest.Fingerprint != fingerprint {
			r.logger.Info("stored index fingerprint differs",
				"stored", manifest.Fingerprint, "wanted", fingerprint)
			manifest = nil
			return storage.ErrNotFound
		}

		// EntryCount comes from an untrusted on-disk record; cap the
		// preallocation so a corrupt manifest cannot exhaust memory.
		capHint := manifest.EntryCount
		if capHint > maxEntryPrealloc {
			capHint = maxEntryPrealloc
		}
		entries = make([]storage.IndexEntry, 0, capHint)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = entryPrefix()
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var entry *storage.IndexEntry
			if err := iter.Item().Value(func(val []byte) error {
				entry, err = storage.UnmarshalIndexEntry(val)
				return err
			}); err != nil {
				return err
			}
			entries = append(entries, *entry)
		}

		if len(entries) != manifest.EntryCount {
			return fmt.Errorf("%w: manifest says %d entries, found %d",
				storage.ErrTruncatedData, manifest.EntryCount, len(entries))
		}
		return nil
	}, false)

	if err != nil {
		return nil, nil, err
	}
	return manifest, entries, nil
}

// Save replaces any stored index with the given one. Entries are written
// through a write batch (a single transaction could exceed Badger's size
// limit at catalog scale); the manifest is committed last.
func (r *IndexRepository) Save(ctx context.Context, manifest *storage.IndexManifest, entries []storage.IndexEntry) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}
	if manifest.EntryCount != len(entries) {
		return fmt.Errorf("%w: manifest entry count %d does not match %d entries",
			storage.ErrSerializationFailed, manifest.EntryCount, len(entries))
	}

	if err := r.Drop(ctx); err != nil {
		return err
	}

	batch := r.backend.NewWriteBatch()
	defer batch.Cancel()
	for i := range entries {
		if err := batch.Set(makeEntryKey(i), storage.MarshalIndexEntry(&entries[i])); err != nil {
			return err
		}
	}
	if err := batch.Flush(); err != nil {
		return err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set([]byte(indexManifestKey), storage.MarshalManifest(manifest)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}

	r.logger.Info("persisted embedding index",
		"fingerprint", manifest.Fingerprint, "entries", manifest.EntryCount, "dimension", manifest.Dimension)
	return nil
}

// Drop removes the stored index, manifest first so a concurrent reader
// never observes a manifest without its entries.
func (r *IndexRepository) Drop(ctx context.Context) error {
	if r.backend.IsClosed() {
		return storage.ErrStorageClosed
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete([]byte(indexManifestKey)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}

	return r.backend.DropPrefix(entryPrefix())
}
