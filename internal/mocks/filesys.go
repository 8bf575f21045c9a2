// Package mocks holds testify mocks shared by package tests.
package mocks

import (
	"io/fs"
	"os"

	"github.com/stretchr/testify/mock"

	"github.com/lc/dnsfan/internal/filesys"
)

var (
	_ filesys.ReadFS  = (*MockOsFS)(nil)
	_ filesys.FileOps = (*MockOsFS)(nil)
)

// MockOsFS is a testify mock of the filesys.ReadFS and filesys.FileOps seams.
type MockOsFS struct {
	mock.Mock
}

// Stat mocks the Stat method.
func (m *MockOsFS) Stat(p string) (fs.FileInfo, error) {
	args := m.Called(p)
	var fileInfo fs.FileInfo
	if args.Get(0) != nil {
		fileInfo = args.Get(0).(fs.FileInfo)
	}
	return fileInfo, args.Error(1)
}

// Open mocks the Open method.
func (m *MockOsFS) Open(p string) (*os.File, error) {
	args := m.Called(p)
	var file *os.File
	if args.Get(0) != nil {
		file = args.Get(0).(*os.File)
	}
	return file, args.Error(1)
}

// CreateTemp mocks the CreateTemp method.
func (m *MockOsFS) CreateTemp(dir, pat string) (*os.File, error) {
	args := m.Called(dir, pat)
	var file *os.File
	if args.Get(0) != nil {
		file = args.Get(0).(*os.File)
	}
	return file, args.Error(1)
}

// Rename mocks the Rename method.
func (m *MockOsFS) Rename(old, newPath string) error {
	args := m.Called(old, newPath)
	return args.Error(0)
}

// Remove mocks the Remove method.
func (m *MockOsFS) Remove(p string) error {
	args := m.Called(p)
	return args.Error(0)
}

// Chmod mocks the Chmod method.
func (m *MockOsFS) Chmod(p string, mode os.FileMode) error {
	args := m.Called(p, mode)
	return args.Error(0)
}
