package state

import (
	"io/ioutil"
	"os"
	"path/filepath"
)

type FullReader interface {
	Normalize(key string) string
	// nil,nil = not found
	ReadAll(key string) ([]byte, error)
}

type OsFullReader struct {
	base string
}

func NewOsFullReader() *OsFullReader { return &OsFullReader{} }

func (fs *OsFullReader) SetBase(dir string) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		panic("config base dir: " + err.Error())
	}
	fs.base = abs
}

func (fs *OsFullReader) Normalize(path string) string {
	return filepath.Clean(filepath.Join(fs.base, path))
}

func (*OsFullReader) ReadAll(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	b, err := ioutil.ReadAll(f)
	f.Close()
	return b, err
}

type MockFullReader struct {
	Map map[string]string
}

func NewMockFullReader(sources map[string]string) *MockFullReader {
	return &MockFullReader{Map: sources}
}

func (fs *MockFullReader) Normalize(name string) string {
	return filepath.Clean(name)
}

func (fs *MockFullReader) ReadAll(name string) ([]byte, error) {
	if s, ok := fs.Map[name]; ok {
		return []byte(s), nil
	}
	return nil, nil
}
