package notification

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// MemoryStorage хранит данные в памяти процесса.
type MemoryStorage struct {
	mu   sync.RWMutex
	data []byte
}

// NewMemoryStorage создает пустое хранилище в памяти.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (m *MemoryStorage) Read(_ context.Context) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.data == nil {
		return nil, nil
	}
	return append([]byte(nil), m.data...), nil
}

func (m *MemoryStorage) Write(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]byte(nil), data...)
	return nil
}

// FileStorage хранит список в одном файле. Запись атомарна:
// данные пишутся во временный файл рядом и переименовываются.
type FileStorage struct {
	path string
}

// NewFileStorage создает хранилище в файле path.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

// Path путь к файлу хранилища.
func (f *FileStorage) Path() string {
	return f.path
}

func (f *FileStorage) Read(ctx context.Context) ([]byte, error) {
	const op = "notification.FileStorage.Read"
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return data, nil
}

func (f *FileStorage) Write(ctx context.Context, data []byte) error {
	const op = "notification.FileStorage.Write"
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	tmpName := tmp.Name()
	defer func() {
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

var unsafeKeyChars = strings.NewReplacer(":", "_", "/", "_", "\\", "_", "..", "_")

// FileFactory возвращает фабрику файловых хранилищ: один JSON-файл на ключ в dir.
func FileFactory(dir string) StorageFactory {
	return func(key string) Storage {
		return NewFileStorage(filepath.Join(dir, unsafeKeyChars.Replace(key)+".json"))
	}
}

// MemoryFactory возвращает фабрику хранилищ в памяти: один MemoryStorage
// на ключ на всё время жизни фабрики.
func MemoryFactory() StorageFactory {
	var (
		mu       sync.Mutex
		storages = make(map[string]*MemoryStorage)
	)
	return func(key string) Storage {
		mu.Lock()
		defer mu.Unlock()
		m, ok := storages[key]
		if !ok {
			m = NewMemoryStorage()
			storages[key] = m
		}
		return m
	}
}
