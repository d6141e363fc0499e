package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	appLog "sharedcal/internal/log"
)

// FileKV persists each key as one JSON file under a data directory. Writes
// go through a temp file in the same directory followed by a rename, so a
// concurrent reader (or another process sharing the directory) never sees a
// partial value. External changes are observed via fsnotify, the process
// analogue of the browser's cross-tab storage event.
type FileKV struct {
	dir string
}

// NewFileKV opens (creating if needed, 0700) the data directory.
func NewFileKV(dir string) (*FileKV, error) {
	if dir == "" {
		return nil, errors.New("data directory is empty")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &FileKV{dir: dir}, nil
}

func (f *FileKV) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *FileKV) Get(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Set writes atomically via temp file + rename with 0600 perms.
func (f *FileKV) Set(key string, value []byte) error {
	tmp, err := os.CreateTemp(f.dir, "."+key+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, f.path(key))
}

func (f *FileKV) Delete(key string) error {
	err := os.Remove(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Watch observes the data directory and reports the key for every settled
// write to a *.json file. Temp files are skipped; only the post-rename name
// counts, so callbacks line up with complete values.
func (f *FileKV) Watch(onChange func(key string)) (stop func(), err error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(f.dir); err != nil {
		w.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				name := filepath.Base(ev.Name)
				if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".json") {
					continue
				}
				onChange(strings.TrimSuffix(name, ".json"))
			case werr, ok := <-w.Errors:
				if !ok {
					return
				}
				appLog.Error("filekv watch error", werr, "dir", f.dir)
			}
		}
	}()

	return func() {
		w.Close()
		<-done
	}, nil
}
