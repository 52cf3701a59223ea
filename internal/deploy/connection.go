package deploy

import (
	"context"
	"fmt"
	"io"

	"github.com/hwuu/mylzip/internal/config"
	"github.com/hwuu/mylzip/internal/remote"
)

// ConnectionTester 验证凭证是否可用：登录、列目录、确认远程目录可写
type ConnectionTester struct {
	Dial        remote.DialFunc
	Output      io.Writer
	Credentials *config.Credentials
	RemoteDir   string // 为空时跳过目录检查
}

func (c *ConnectionTester) printf(format string, args ...interface{}) {
	fmt.Fprintf(c.Output, format, args...)
}

// Run 执行连接测试；失败时输出排查建议并返回原始错误
func (c *ConnectionTester) Run(ctx context.Context) error {
	cred := c.Credentials
	c.printf("[CONNECT] Testing connection to %s...\n", cred.Addr())
	c.printf("   Host:     %s\n", cred.Host)
	c.printf("   Username: %s\n", cred.Username)
	c.printf("   Port:     %d\n", cred.Port)
	c.printf("   Protocol: %s\n", cred.Protocol)
	if cred.Secure != "" {
		c.printf("   Secure:   %s\n", cred.Secure)
	}
	c.printf("\n")

	if err := c.run(ctx); err != nil {
		c.printf("[ERROR] Connection test failed: %v\n", err)
		c.printf("\nTroubleshooting tips:\n")
		c.printf("   1. Check your credentials (mylzip init, or the MYLZIP_FTP_* variables)\n")
		c.printf("   2. Verify your hosting account is active\n")
		c.printf("   3. Check that %s is enabled in the hosting control panel\n", cred.Protocol)
		c.printf("   4. Try a different FTP client to test manually\n")
		return err
	}

	c.printf("\n[SUCCESS] All tests passed! Your credentials are working correctly.\n")
	return nil
}

func (c *ConnectionTester) run(ctx context.Context) error {
	client, err := c.Dial(ctx)
	if err != nil {
		return err
	}
	defer client.Quit()
	c.printf("[OK] Connection successful!\n")

	cwd, err := client.CurrentDir()
	if err != nil {
		return fmt.Errorf("PWD: %w", err)
	}
	c.printf("[DIR] Current directory: %s\n", cwd)

	entries, err := client.List("")
	if err != nil {
		return err
	}
	c.printf("\n[LIST] Files in current directory:\n")
	printEntries(c.Output, entries, false)

	if c.RemoteDir != "" {
		c.printf("\n[NAV] Testing navigation to %s...\n", c.RemoteDir)
		if err := client.MakeDirAll(c.RemoteDir); err != nil {
			return err
		}
		c.printf("[OK] Navigation successful!\n")
	}
	return nil
}

// printEntries 每行一项，withSize 时附带文件大小
func printEntries(w io.Writer, entries []remote.Entry, withSize bool) {
	for _, e := range entries {
		switch {
		case e.IsDir:
			fmt.Fprintf(w, "   [DIR] %s\n", e.Name)
		case withSize:
			fmt.Fprintf(w, "   [FILE] %s (%d bytes)\n", e.Name, e.Size)
		default:
			fmt.Fprintf(w, "   [FILE] %s\n", e.Name)
		}
	}
}
