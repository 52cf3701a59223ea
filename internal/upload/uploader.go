// Package upload 把站点前端的 JS 文件推送到 myl.zip 主机的 js/ 目录。
//
// 流程严格顺序执行：建立一个会话 → 逐个处理固定文件列表 → 退出会话。
// 本地缺失的文件只告警并跳过；传输失败立即中止剩余文件并返回错误。
// 无论成功与否，会话都会在返回前释放。
package upload

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/hwuu/mylzip/internal/remote"
)

const (
	DefaultLocalDir  = "../src/js"
	DefaultRemoteDir = "js"
)

// DefaultFiles 上传顺序即列表顺序
var DefaultFiles = []string{"cross-platform-chat.js", "setup-wizard.js", "main.js"}

// FileTask 单个文件的上传任务，每轮循环构造一次
type FileTask struct {
	Name       string
	LocalPath  string
	RemotePath string
	Exists     bool
	Size       int64
}

// Uploaded 已成功 STOR 的文件
type Uploaded struct {
	RemotePath string
	Size       int64
}

// Report 一次运行的结果，按文件列表顺序记录
type Report struct {
	LocalDir string
	Uploaded []Uploaded
	Skipped  []string
}

// Uploader JS 文件上传器，通过依赖注入支持测试
type Uploader struct {
	Dial      remote.DialFunc
	Output    io.Writer
	LocalDir  string   // 为空时使用 DefaultLocalDir，相对路径基于当前工作目录解析
	RemoteDir string   // 为空时使用 DefaultRemoteDir
	Files     []string // 为空时使用 DefaultFiles
	RateLimit int64    // 字节/秒，0 表示不限速
}

func (u *Uploader) printf(format string, args ...interface{}) {
	fmt.Fprintf(u.Output, format, args...)
}

// Run 执行上传。返回的 Report 在出错时也包含已完成的部分。
// ctx 取消后不再开始新的文件，已建立的会话照常释放。
func (u *Uploader) Run(ctx context.Context) (*Report, error) {
	client, err := u.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	u.printf("[OK] Connected!\n")

	released := false
	defer func() {
		if !released {
			_ = client.Quit()
		}
	}()

	localDir, err := filepath.Abs(u.localDir())
	if err != nil {
		return nil, fmt.Errorf("resolve local dir: %w", err)
	}
	u.printf("[UPLOAD] Uploading JS files from %s\n", localDir)

	report := &Report{LocalDir: localDir}
	for _, name := range u.files() {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		task := u.newTask(localDir, name)
		if !task.Exists {
			u.printf("[WARN] %s not found\n", task.Name)
			report.Skipped = append(report.Skipped, task.Name)
			continue
		}

		if err := u.store(ctx, client, task); err != nil {
			return report, err
		}
		u.printf("[OK] Uploaded %s\n", task.RemotePath)
		report.Uploaded = append(report.Uploaded, Uploaded{RemotePath: task.RemotePath, Size: task.Size})
	}

	u.printf("[OK] JS files uploaded!\n")

	released = true
	if err := client.Quit(); err != nil {
		return report, fmt.Errorf("quit: %w", err)
	}
	u.printf("[SUCCESS] JS files uploaded!\n")

	return report, nil
}

// newTask 目录或无法 stat 的路径都按不存在处理
func (u *Uploader) newTask(localDir, name string) *FileTask {
	task := &FileTask{
		Name:       name,
		LocalPath:  filepath.Join(localDir, name),
		RemotePath: path.Join(u.remoteDir(), name),
	}
	if info, err := os.Stat(task.LocalPath); err == nil && !info.IsDir() {
		task.Exists = true
		task.Size = info.Size()
	}
	return task
}

func (u *Uploader) store(ctx context.Context, client remote.Client, task *FileTask) error {
	f, err := os.Open(task.LocalPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", task.LocalPath, err)
	}
	defer f.Close()

	r := remote.NewThrottledReader(ctx, f, u.RateLimit)
	if err := client.Store(task.RemotePath, r); err != nil {
		return fmt.Errorf("upload %s: %w", task.RemotePath, err)
	}
	return nil
}

func (u *Uploader) localDir() string {
	if u.LocalDir != "" {
		return u.LocalDir
	}
	return DefaultLocalDir
}

func (u *Uploader) remoteDir() string {
	if u.RemoteDir != "" {
		return u.RemoteDir
	}
	return DefaultRemoteDir
}

func (u *Uploader) files() []string {
	if len(u.Files) > 0 {
		return u.Files
	}
	return DefaultFiles
}
