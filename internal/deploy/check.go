package deploy

import (
	"context"
	"fmt"
	"io"

	"github.com/hwuu/mylzip/internal/remote"
)

const DefaultCheckDir = "/public_html"

// DirectoryChecker 列出远程目录内容并检查首页文件是否存在
type DirectoryChecker struct {
	Dial   remote.DialFunc
	Output io.Writer
	Dirs   []string // 依次检查，为空时检查 DefaultCheckDir
}

func (c *DirectoryChecker) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Output, format, args...)
}

// Run 返回每个目录是否包含 index.html
func (c *DirectoryChecker) Run(ctx context.Context) (map[string]bool, error) {
	dirs := c.Dirs
	if len(dirs) == 0 {
		dirs = []string{DefaultCheckDir}
	}

	client, err := c.Dial(ctx)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer client.Quit()
	c.printf("[OK] Connected successfully!\n")

	found := make(map[string]bool, len(dirs))
	for _, dir := range dirs {
		entries, err := client.List(dir)
		if err != nil {
			return found, err
		}

		c.printf("\n[LIST] Contents of %s:\n", dir)
		printEntries(c.Output, entries, true)

		for _, e := range entries {
			if !e.IsDir && e.Name == IndexFileName {
				found[dir] = true
			}
		}
		answer := "No"
		if found[dir] {
			answer = "Yes"
		}
		c.printf("[OK] %s found in %s: %s\n", IndexFileName, dir, answer)
	}
	return found, nil
}
