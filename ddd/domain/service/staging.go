package service

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"derivative-service/pkg/errno"
	"derivative-service/pkg/logger"
)

const hlsSubdir = "hls"

// StagingArea 单次调用独占的本地工作目录
type StagingArea struct {
	Root string
}

// SourcePath 源文件下载位置
func (a *StagingArea) SourcePath(fileName string) string {
	return filepath.Join(a.Root, "source-"+filepath.Base(fileName))
}

// OutputPath 单文件产物位置，各任务文件名互不相同
func (a *StagingArea) OutputPath(name string) string {
	return filepath.Join(a.Root, filepath.Base(name))
}

// HLSDir 切片子目录
func (a *StagingArea) HLSDir() string {
	return filepath.Join(a.Root, hlsSubdir)
}

// StagingManager 管理工作目录的创建与回收
type StagingManager interface {
	Acquire(invocationID string) (*StagingArea, error)
	// Release removes the whole tree. A nil area or a missing path is a no-op.
	Release(area *StagingArea) error
}

type stagingManagerImpl struct {
	logger *logger.Logger
	root   string
}

// NewStagingManager 创建工作目录管理器，root 为空时使用系统临时目录
func NewStagingManager(log *logger.Logger, root string) StagingManager {
	if root == "" {
		root = os.TempDir()
	}
	return &stagingManagerImpl{logger: log, root: root}
}

func (m *stagingManagerImpl) Acquire(invocationID string) (*StagingArea, error) {
	if invocationID == "" {
		invocationID = uuid.NewString()
	}
	area := &StagingArea{Root: filepath.Join(m.root, "derive-"+invocationID)}
	if err := os.MkdirAll(area.HLSDir(), 0o755); err != nil {
		// 可能已建出部分目录
		_ = os.RemoveAll(area.Root)
		return nil, errno.Wrap(errno.ErrStagingCreate, err)
	}
	m.logger.Debugf("Staging acquired root=%s", area.Root)
	return area, nil
}

func (m *stagingManagerImpl) Release(area *StagingArea) error {
	if area == nil || area.Root == "" {
		return nil
	}
	if _, err := os.Stat(area.Root); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := os.RemoveAll(area.Root); err != nil {
		m.logger.Warnf("Staging release failed root=%s error=%v", area.Root, err)
		return errno.Wrap(errno.ErrLocalCleanup, err)
	}
	m.logger.Debugf("Staging released root=%s", area.Root)
	return nil
}

// removeIfExists 删除文件，不存在不视为错误
func removeIfExists(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := os.RemoveAll(path); err != nil {
		return err
	}
	return nil
}
