package cache

import (
	"io"
	"os"
	"path/filepath"

	"github.com/FireworkMC/mapsforge/tile"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/valyala/bytebufferpool"
	"github.com/yehan2002/errors"
)

// storePath returns the path of the artifact for the job.
func storePath(job tile.Job, ext string) string {
	return filepath.FromSlash(job.Key()) + ext
}

// FileStore a read only TileCache backed by a directory of persisted artifacts.
// Artifacts are never evicted and Put is ignored. Use StoreWriter to populate the store.
type FileStore struct {
	fs        afero.Fs
	ext       string
	observers observers
	log       logrus.FieldLogger
}

var _ TileCache = &FileStore{}

// NewFileStore opens a store.
func NewFileStore(opt ...StoreSettings) *FileStore {
	settings := getStoreSettings(opt)
	return &FileStore{fs: settings.Fs, ext: settings.Extension, log: settings.Logger}
}

// Get reads the artifact for the job from the store.
// Missing or unreadable artifacts are reported as a miss.
func (s *FileStore) Get(job tile.Job) (Artifact, bool) {
	p, err := s.read(job)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.WithError(err).WithField("job", job).Warn("cache: unable to read stored artifact")
		}
		return nil, false
	}
	p.IncrementRefCount()
	return p, true
}

func (s *FileStore) read(job tile.Job) (*Payload, error) {
	f, err := s.fs.Open(storePath(job, s.ext))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var method [1]byte
	if _, err = io.ReadFull(f, method[:]); err != nil {
		return nil, errors.CauseStr(ErrCorrupted, "missing compression method")
	}

	buf := bytebufferpool.Get()
	if err = CompressMethod(method[0]).decompress(buf, f); err != nil {
		bytebufferpool.Put(buf)
		return nil, errors.CauseStr(ErrCorrupted, err.Error())
	}
	return newPayload(buf), nil
}

// Put does nothing. The store is read only.
func (s *FileStore) Put(job tile.Job, a Artifact) error { return checkPut(job, a) }

// Contains checks if the store contains an artifact for the job.
func (s *FileStore) Contains(job tile.Job) bool {
	info, err := s.fs.Stat(storePath(job, s.ext))
	return err == nil && !info.IsDir()
}

// SetWorkingSet does nothing. Artifacts are never evicted.
func (s *FileStore) SetWorkingSet([]tile.Job) {}

// SetCapacity does nothing. The store is unbounded.
func (s *FileStore) SetCapacity(int) {}

// AddObserver registers an observer.
// Observers are only notified when a StoreWriter sharing this store writes an artifact.
func (s *FileStore) AddObserver(o Observer) (remove func()) { return s.observers.add(o) }

// Purge does nothing. The store is read only.
func (s *FileStore) Purge() {}

// StoreWriter writes artifacts to the directory layout read by FileStore.
type StoreWriter struct {
	fs     afero.Fs
	ext    string
	method CompressMethod
	log    logrus.FieldLogger

	// store is notified after every write.
	store *FileStore
}

// NewStoreWriter creates a writer for the store described by the settings.
func NewStoreWriter(opt ...StoreSettings) *StoreWriter {
	settings := getStoreSettings(opt)
	return &StoreWriter{fs: settings.Fs, ext: settings.Extension, method: settings.Compression, log: settings.Logger}
}

// Notify makes the writer notify the observers of s after every write.
func (w *StoreWriter) Notify(s *FileStore) { w.store = s }

// Write stores p as the artifact for the job.
func (w *StoreWriter) Write(job tile.Job, p []byte) error {
	if !job.Tile.Valid() {
		return ErrInvalidJob
	}

	path := storePath(job, w.ext)
	if err := w.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.Wrap("cache: unable to create directory", err)
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	buf.WriteByte(byte(w.method))
	if err := w.method.compress(buf, p); err != nil {
		return err
	}

	if err := afero.WriteFile(w.fs, path, buf.B, 0644); err != nil {
		return errors.Wrap("cache: unable to write artifact", err)
	}

	w.log.WithFields(logrus.Fields{"job": job, "size": len(p), "compressed": buf.Len()}).Debug("cache: stored artifact")
	if w.store != nil {
		w.store.observers.notify()
	}
	return nil
}
