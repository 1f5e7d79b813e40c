package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/jigar48949/Files-and-folder-directory/internal/domain"
	"github.com/jigar48949/Files-and-folder-directory/internal/fileset"
	"github.com/jigar48949/Files-and-folder-directory/internal/infra/fsx"
)

const (
	sessionName = "session.json"
	lockName    = "dirtool.lock"
)

// Store 管数据目录下的持久化文件：session.json、history.json、templates.yaml，
// 以及跨进程互斥的文件锁。目录不存在时 Open 会创建。
type Store struct {
	dir string
	lk  *flock.Flock
}

// DefaultDir 返回默认数据目录：$DIRTOOL_HOME 优先，否则 ~/.dirtool。
func DefaultDir() (string, error) {
	if v := strings.TrimSpace(os.Getenv("DIRTOOL_HOME")); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("无法确定用户主目录：%w", err)
	}
	return filepath.Join(home, ".dirtool"), nil
}

// Open 打开（必要时创建）数据目录。
func Open(dir string) (*Store, error) {
	dir = filepath.Clean(strings.TrimSpace(dir))
	if dir == "" || dir == "." {
		return nil, errors.New("数据目录不能为空")
	}
	if err := fsx.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("准备数据目录失败：%w", err)
	}
	return &Store{
		dir: dir,
		lk:  flock.New(filepath.Join(dir, lockName)),
	}, nil
}

func (s *Store) Dir() string { return s.dir }

// Lock 非阻塞地拿跨进程独占锁。
// 拿不到说明另一个 dirtool 进程正在操作，返回 OpInProgressError。
func (s *Store) Lock() error {
	ok, err := s.lk.TryLock()
	if err != nil {
		return fmt.Errorf("获取数据目录锁失败：%w", err)
	}
	if !ok {
		return &domain.OpInProgressError{Name: "另一个 dirtool 进程"}
	}
	return nil
}

func (s *Store) Unlock() error {
	return s.lk.Unlock()
}

// SessionState 是 session.json 的持久化形态：结构文本、骨架槽位（含绑定）、
// 暂存区、文件池和基础目录。CLI 的每条命令都是 load→改→save。
type SessionState struct {
	StructureText string           `json:"structure_text"`
	Skeleton      *domain.Skeleton `json:"skeleton"`
	Staged        *fileset.List    `json:"staged"`
	Pool          *fileset.List    `json:"pool"`
	BaseDir       string           `json:"base_dir"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// LoadSession 读出会话。文件不存在返回 ok=false，不算错误。
func (s *Store) LoadSession() (SessionState, bool, error) {
	var st SessionState
	b, err := os.ReadFile(filepath.Join(s.dir, sessionName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return st, false, nil
		}
		return st, false, fmt.Errorf("读取会话失败：%w", err)
	}
	if err := json.Unmarshal(b, &st); err != nil {
		return st, false, fmt.Errorf("解析会话文件失败（%s）：%w", filepath.Join(s.dir, sessionName), err)
	}
	return st, true, nil
}

// SaveSession 原子落盘会话，时间戳统一 UTC。
func (s *Store) SaveSession(st SessionState) error {
	st.UpdatedAt = time.Now().UTC()
	b, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化会话失败：%w", err)
	}
	if err := fsx.WriteFileAtomicReplace(s.dir, sessionName, b); err != nil {
		return fmt.Errorf("写入会话失败：%w", err)
	}
	return nil
}

// ClearSession 删除会话文件。不存在视为已清。
func (s *Store) ClearSession() error {
	err := os.Remove(filepath.Join(s.dir, sessionName))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("删除会话失败：%w", err)
	}
	return nil
}
