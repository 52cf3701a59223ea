// Package config 管理 mylzip 的凭证、部署记录和用户交互。
// 部署记录（state.json）保存最近一次成功上传的文件列表，供 mylzip status 查看。
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	StateFileVersion = "1.0"
	StateDirName     = ".mylzip"    // 状态目录，位于用户 home 下
	StateFileName    = "state.json" // 状态文件名
)

var (
	ErrStateNotFound  = errors.New("state file not found")
	ErrStateCorrupted = errors.New("state file corrupted")
)

// UploadedFile 一次成功的 STOR
type UploadedFile struct {
	RemotePath string `json:"remote_path"`
	Size       int64  `json:"size"`
}

// State 最近一次部署记录，序列化为 ~/.mylzip/state.json
type State struct {
	Version   string         `json:"version"`
	UpdatedAt string         `json:"updated_at"`
	Command   string         `json:"command"` // upload-js / deploy
	Host      string         `json:"host"`
	Protocol  string         `json:"protocol"`
	RemoteDir string         `json:"remote_dir"`
	Uploaded  []UploadedFile `json:"uploaded"`
	Skipped   []string       `json:"skipped,omitempty"`
}

// NewState 创建新的部署记录（自动填充版本号和时间）
func NewState(command string, cred *Credentials, remoteDir string) *State {
	s := &State{
		Version:   StateFileVersion,
		UpdatedAt: time.Now().UTC().Format(time.RFC3339),
		Command:   command,
		RemoteDir: remoteDir,
	}
	if cred != nil {
		s.Host = cred.Host
		s.Protocol = cred.Protocol
	}
	return s
}

// TotalBytes 返回已上传文件的总字节数
func (s *State) TotalBytes() int64 {
	var total int64
	for _, f := range s.Uploaded {
		total += f.Size
	}
	return total
}

// GetStateDir 返回状态目录路径（~/.mylzip/）
func GetStateDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, StateDirName), nil
}

// LoadState 从默认目录加载部署记录
func LoadState() (*State, error) {
	stateDir, err := GetStateDir()
	if err != nil {
		return nil, err
	}
	return LoadStateFrom(stateDir)
}

// LoadStateFrom 从指定目录加载部署记录
func LoadStateFrom(dir string) (*State, error) {
	data, err := os.ReadFile(filepath.Join(dir, StateFileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrStateNotFound
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStateCorrupted, err)
	}
	return &state, nil
}

// SaveState 将部署记录写入默认目录
func SaveState(state *State) error {
	stateDir, err := GetStateDir()
	if err != nil {
		return err
	}
	return SaveStateTo(stateDir, state)
}

// SaveStateTo 将部署记录写入指定目录（自动创建目录 0700，文件 0600）
func SaveStateTo(dir string, state *State) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, StateFileName), data, 0600); err != nil {
		return fmt.Errorf("failed to write state file: %w", err)
	}
	return nil
}

// DeleteStateFrom 删除指定目录下的部署记录
func DeleteStateFrom(dir string) error {
	if err := os.Remove(filepath.Join(dir, StateFileName)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete state file: %w", err)
	}
	return nil
}
