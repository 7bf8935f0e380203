package storecache

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/andybalholm/brotli"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/Davincible/rx-utils/env"
)

const (
	formatPlain  byte = 'M' // msgpack
	formatBrotli byte = 'B' // brotli compressed msgpack

	defaultBrotliLevel = 4
	defaultBufferSize  = 64 << 10
)

// FileConfig configures a FileStorage
type FileConfig struct {
	Path          string // File holding the whole store
	Compress      bool   // Brotli compress the file
	CompressLevel int    // Brotli level 0-11, 4 when unset
	BufferSize    int    // Size of I/O buffers
}

// FileConfigFromEnv reads <prefix>_FILE_PATH, <prefix>_FILE_COMPRESS and
// <prefix>_FILE_COMPRESS_LEVEL.
func FileConfigFromEnv(prefix string) FileConfig {
	return FileConfig{
		Path:          env.GetEnv(prefix + "_FILE_PATH"),
		Compress:      env.GetEnvBool(prefix + "_FILE_COMPRESS"),
		CompressLevel: env.GetEnvInt(prefix+"_FILE_COMPRESS_LEVEL", defaultBrotliLevel),
	}
}

// FileStorage is a Storage kept in memory and written through to a single
// file on every change. The file holds a MessagePack map, optionally brotli
// compressed, and is replaced atomically.
type FileStorage struct {
	cfg   FileConfig
	mu    sync.RWMutex
	items map[string]string
}

// OpenFile opens the store at cfg.Path, loading it if the file exists.
func OpenFile(cfg FileConfig) (*FileStorage, error) {
	if cfg.Path == "" {
		return nil, WrapStorageError("open", "", ErrInvalidConfig)
	}

	if cfg.CompressLevel <= 0 || cfg.CompressLevel > brotli.BestCompression {
		cfg.CompressLevel = defaultBrotliLevel
	}

	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, WrapStorageError("open", cfg.Path, err)
	}

	s := &FileStorage{
		cfg:   cfg,
		items: make(map[string]string),
	}

	if err := s.load(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *FileStorage) load() error {
	file, err := os.Open(s.cfg.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return WrapStorageError("load", s.cfg.Path, err)
	}
	defer file.Close()

	reader := bufio.NewReaderSize(file, s.cfg.BufferSize)

	format, err := reader.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return WrapStorageError("load", s.cfg.Path, err)
	}

	var src io.Reader
	switch format {
	case formatPlain:
		src = reader
	case formatBrotli:
		src = brotli.NewReader(reader)
	default:
		return WrapStorageError("load", s.cfg.Path, fmt.Errorf("%w: unknown format byte %q", ErrStorageCorrupted, format))
	}

	items := make(map[string]string)
	if err := msgpack.NewDecoder(src).Decode(&items); err != nil {
		return WrapStorageError("decode", s.cfg.Path, fmt.Errorf("%w: %w", ErrStorageCorrupted, err))
	}

	s.items = items

	return nil
}

// flush writes the store to a temporary file and renames it over the target.
// The caller must hold mu.
func (s *FileStorage) flush() error {
	tempPath := s.cfg.Path + ".tmp"

	file, err := os.OpenFile(tempPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return WrapStorageError("save", tempPath, err)
	}
	defer func() {
		file.Close()
		os.Remove(tempPath) // Clean up temp file in case of failure
	}()

	writer := bufio.NewWriterSize(file, s.cfg.BufferSize)

	format := formatPlain
	if s.cfg.Compress {
		format = formatBrotli
	}

	if err := writer.WriteByte(format); err != nil {
		return WrapStorageError("write", tempPath, err)
	}

	if s.cfg.Compress {
		bw := brotli.NewWriterLevel(writer, s.cfg.CompressLevel)
		if err := msgpack.NewEncoder(bw).Encode(s.items); err != nil {
			return WrapStorageError("encode", tempPath, err)
		}
		if err := bw.Close(); err != nil {
			return WrapStorageError("compress", tempPath, err)
		}
	} else if err := msgpack.NewEncoder(writer).Encode(s.items); err != nil {
		return WrapStorageError("encode", tempPath, err)
	}

	if err := writer.Flush(); err != nil {
		return WrapStorageError("flush", tempPath, err)
	}

	if err := file.Sync(); err != nil {
		return WrapStorageError("sync", tempPath, err)
	}

	if err := file.Close(); err != nil {
		return WrapStorageError("close", tempPath, err)
	}

	if err := os.Rename(tempPath, s.cfg.Path); err != nil {
		return WrapStorageError("rename", s.cfg.Path, err)
	}

	return nil
}

func (s *FileStorage) Keys(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.items))
	for k := range s.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys, nil
}

func (s *FileStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.items[key]

	return val, ok, nil
}

func (s *FileStorage) SetItem(ctx context.Context, key, val string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.items[key]
	s.items[key] = val

	if err := s.flush(); err != nil {
		// keep memory in line with what is on disk
		if existed {
			s.items[key] = prev
		} else {
			delete(s.items, key)
		}
		return err
	}

	return nil
}

func (s *FileStorage) RemoveItem(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.items[key]
	if !ok {
		return nil
	}

	delete(s.items, key)

	if err := s.flush(); err != nil {
		s.items[key] = prev
		return err
	}

	return nil
}

// Path returns the backing file path.
func (s *FileStorage) Path() string {
	return s.cfg.Path
}

var _ Storage = (*FileStorage)(nil)
