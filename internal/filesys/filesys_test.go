package filesys_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/lc/dnsfan/internal/filesys"
	"github.com/lc/dnsfan/internal/mocks"
)

type AtomicWriteTestSuite struct {
	suite.Suite
	dir string
}

func (s *AtomicWriteTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

func (s *AtomicWriteTestSuite) TestWritesFile() {
	dst := filepath.Join(s.dir, "report.json")

	err := filesys.AtomicWrite(filesys.OS(), dst, []byte(`{"ok":true}`), 0o640)
	s.Require().NoError(err)

	data, err := os.ReadFile(dst)
	s.Require().NoError(err)
	s.Equal(`{"ok":true}`, string(data))

	info, err := os.Stat(dst)
	s.Require().NoError(err)
	s.Equal(os.FileMode(0o640), info.Mode().Perm())
}

func (s *AtomicWriteTestSuite) TestReplacesExistingFile() {
	dst := filepath.Join(s.dir, "report.txt")
	s.Require().NoError(os.WriteFile(dst, []byte("old"), 0o644))

	s.Require().NoError(filesys.AtomicWrite(filesys.OS(), dst, []byte("new"), 0o644))

	data, err := os.ReadFile(dst)
	s.Require().NoError(err)
	s.Equal("new", string(data))

	entries, err := os.ReadDir(s.dir)
	s.Require().NoError(err)
	s.Len(entries, 1, "temp file must not be left behind")
}

func (s *AtomicWriteTestSuite) TestCreateTempFailure() {
	m := new(mocks.MockOsFS)
	m.On("CreateTemp", s.dir, ".dnsfan-*").Return(nil, os.ErrPermission)

	err := filesys.AtomicWrite(m, filepath.Join(s.dir, "out"), []byte("x"), 0o644)
	s.ErrorIs(err, os.ErrPermission)
	m.AssertExpectations(s.T())
}

func (s *AtomicWriteTestSuite) TestRenameFailureRemovesTemp() {
	tmp, err := os.CreateTemp(s.dir, ".dnsfan-*")
	s.Require().NoError(err)
	boom := errors.New("rename failed")

	m := new(mocks.MockOsFS)
	m.On("CreateTemp", s.dir, ".dnsfan-*").Return(tmp, nil)
	m.On("Chmod", tmp.Name(), os.FileMode(0o644)).Return(nil)
	m.On("Rename", tmp.Name(), mock.Anything).Return(boom)
	m.On("Remove", tmp.Name()).Return(nil)

	err = filesys.AtomicWrite(m, filepath.Join(s.dir, "out"), []byte("x"), 0o644)
	s.ErrorIs(err, boom)
	m.AssertExpectations(s.T())
	m.AssertNotCalled(s.T(), "Open", mock.Anything)
}

func TestAtomicWriteSuite(t *testing.T) {
	suite.Run(t, new(AtomicWriteTestSuite))
}
