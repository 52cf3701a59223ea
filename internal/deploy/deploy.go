package deploy

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/hwuu/mylzip/internal/config"
	"github.com/hwuu/mylzip/internal/remote"
)

const (
	DefaultDeployLocalDir = "./staging-deploy"
	IndexFileName         = "index.html"
)

// Result 目录部署结果
type Result struct {
	Uploaded   []config.UploadedFile
	IndexFound bool
}

// Deployer 把本地站点目录整体上传到远程目录，保留子目录结构
type Deployer struct {
	Dial      remote.DialFunc
	Output    io.Writer
	LocalDir  string
	RemoteDir string
	RateLimit int64 // 字节/秒，0 表示不限速
}

func (d *Deployer) printf(format string, args ...interface{}) {
	fmt.Fprintf(d.Output, format, args...)
}

// Run 执行目录部署。任一文件失败立即中止；会话在返回前释放。
func (d *Deployer) Run(ctx context.Context) (*Result, error) {
	if d.RemoteDir == "" {
		return nil, fmt.Errorf("remote dir is required")
	}
	localDir, err := filepath.Abs(d.LocalDir)
	if err != nil {
		return nil, fmt.Errorf("resolve local dir: %w", err)
	}
	info, err := os.Stat(localDir)
	if err != nil {
		return nil, fmt.Errorf("local dir %s: %w", localDir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("local path %s is not a directory", localDir)
	}

	d.printf("[CONNECT] Connecting...\n")
	client, err := d.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer client.Quit()
	d.printf("[OK] Connected successfully!\n")

	if cwd, err := client.CurrentDir(); err == nil {
		d.printf("[DIR] Current directory: %s\n", cwd)
	}

	d.printf("[NAV] Navigating to %s...\n", d.RemoteDir)
	if err := client.MakeDirAll(d.RemoteDir); err != nil {
		return nil, err
	}

	d.printf("[UPLOAD] Uploading files from %s...\n", localDir)
	result := &Result{}
	err = filepath.WalkDir(localDir, func(p string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(localDir, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		remotePath := path.Join(d.RemoteDir, filepath.ToSlash(rel))

		if entry.IsDir() {
			d.printf("   [DIR] Creating %s...\n", filepath.ToSlash(rel))
			return client.MakeDirAll(remotePath)
		}
		if !entry.Type().IsRegular() {
			return nil
		}

		d.printf("   [FILE] Uploading %s...\n", filepath.ToSlash(rel))
		size, err := d.uploadFile(ctx, client, p, remotePath)
		if err != nil {
			return err
		}
		result.Uploaded = append(result.Uploaded, config.UploadedFile{RemotePath: remotePath, Size: size})
		return nil
	})
	if err != nil {
		return result, err
	}
	d.printf("[OK] All files uploaded successfully!\n")

	entries, err := client.List(d.RemoteDir)
	if err != nil {
		return result, err
	}
	d.printf("\n[LIST] Uploaded files:\n")
	for _, e := range entries {
		if e.IsDir {
			continue
		}
		d.printf("   [FILE] %s (%d bytes)\n", e.Name, e.Size)
		if e.Name == IndexFileName {
			result.IndexFound = true
		}
	}

	if result.IndexFound {
		d.printf("\n[OK] %s found - deployment looks good!\n", IndexFileName)
	} else {
		d.printf("\n[WARN] Warning: %s not found in uploaded files\n", IndexFileName)
	}

	return result, nil
}

func (d *Deployer) uploadFile(ctx context.Context, client remote.Client, localPath, remotePath string) (int64, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", localPath, err)
	}

	if err := client.Store(remotePath, remote.NewThrottledReader(ctx, f, d.RateLimit)); err != nil {
		return 0, fmt.Errorf("upload %s: %w", remotePath, err)
	}
	return info.Size(), nil
}
