package testable

import (
	"io/fs"
	"os"
)

// MockFileSystem is a test double for FileSystem. Each method has a
// corresponding function field. When the field is non-nil, the mock calls it;
// otherwise, it falls through to OsFileSystem (real OS behavior).
//
// This design lets tests override only the methods they care about, such as
// failing a baseline write or substituting an analyzer report, while keeping
// realistic behavior for everything else.
type MockFileSystem struct {
	StatFn      func(name string) (os.FileInfo, error)
	ReadFileFn  func(name string) ([]byte, error)
	WriteFileFn func(name string, data []byte, perm os.FileMode) error
	WalkDirFn   func(root string, fn fs.WalkDirFunc) error
}

var real OsFileSystem

// Stat calls StatFn if set, otherwise delegates to OsFileSystem.
func (m *MockFileSystem) Stat(name string) (os.FileInfo, error) {
	if m.StatFn != nil {
		return m.StatFn(name)
	}
	return real.Stat(name)
}

// ReadFile calls ReadFileFn if set, otherwise delegates to OsFileSystem.
func (m *MockFileSystem) ReadFile(name string) ([]byte, error) {
	if m.ReadFileFn != nil {
		return m.ReadFileFn(name)
	}
	return real.ReadFile(name)
}

// WriteFile calls WriteFileFn if set, otherwise delegates to OsFileSystem.
func (m *MockFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	if m.WriteFileFn != nil {
		return m.WriteFileFn(name, data, perm)
	}
	return real.WriteFile(name, data, perm)
}

// WalkDir calls WalkDirFn if set, otherwise delegates to OsFileSystem.
func (m *MockFileSystem) WalkDir(root string, fn fs.WalkDirFunc) error {
	if m.WalkDirFn != nil {
		return m.WalkDirFn(root, fn)
	}
	return real.WalkDir(root, fn)
}

// Compile-time interface check.
var _ FileSystem = (*MockFileSystem)(nil)
