package deploy

import (
	"errors"
	"fmt"
	"io"

	"github.com/hwuu/mylzip/internal/config"
)

// StatusRunner 展示最近一次部署记录（不访问网络）
type StatusRunner struct {
	Output   io.Writer
	StateDir string // 覆盖默认 state 目录（测试用）
}

func (s *StatusRunner) printf(format string, args ...interface{}) {
	fmt.Fprintf(s.Output, format, args...)
}

func (s *StatusRunner) loadState() (*config.State, error) {
	if s.StateDir != "" {
		return config.LoadStateFrom(s.StateDir)
	}
	return config.LoadState()
}

// Run 执行状态查询。没有记录不算错误，记录损坏则返回错误。
func (s *StatusRunner) Run() error {
	state, err := s.loadState()
	if errors.Is(err, config.ErrStateNotFound) {
		s.printf("No deployment recorded yet. Run mylzip upload-js or mylzip deploy first.\n")
		return nil
	}
	if err != nil {
		return err
	}

	s.printf("Last deployment\n")
	s.printf("─────────────────────────────────────────\n")
	s.printf("%-10s %s\n", "Command:", state.Command)
	s.printf("%-10s %s://%s\n", "Target:", state.Protocol, state.Host)
	s.printf("%-10s %s\n", "Remote:", state.RemoteDir)
	s.printf("%-10s %s\n", "Time:", state.UpdatedAt)
	s.printf("\n")

	s.printf("Uploaded (%d files, %d bytes):\n", len(state.Uploaded), state.TotalBytes())
	for _, f := range state.Uploaded {
		s.printf("  %-40s %d\n", f.RemotePath, f.Size)
	}
	if len(state.Skipped) > 0 {
		s.printf("Skipped:\n")
		for _, name := range state.Skipped {
			s.printf("  %s\n", name)
		}
	}
	s.printf("─────────────────────────────────────────\n")
	return nil
}
