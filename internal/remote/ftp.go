package remote

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/textproto"
	"path"
	"strconv"
	"strings"

	"github.com/jlaffaye/ftp"
)

// ftpServerConn 是 *ftp.ServerConn 中用到的方法子集，测试时可替换
type ftpServerConn interface {
	Login(user, password string) error
	Type(transferType ftp.TransferType) error
	Stor(path string, r io.Reader) error
	MakeDir(path string) error
	List(path string) ([]*ftp.Entry, error)
	CurrentDir() (string, error)
	Quit() error
}

// realFTPClient 基于 jlaffaye/ftp 的 Client 实现
type realFTPClient struct {
	conn ftpServerConn
}

// NewFTPDialFunc 创建 FTP 连接的 DialFunc：拨号 → 登录，登录失败会关闭连接
func NewFTPDialFunc(opts DialOptions) DialFunc {
	return func(ctx context.Context) (Client, error) {
		addr := net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))

		dialOpts := []ftp.DialOption{ftp.DialWithContext(ctx)}
		if opts.Timeout > 0 {
			dialOpts = append(dialOpts, ftp.DialWithTimeout(opts.Timeout))
		}
		tlsConfig := &tls.Config{
			ServerName:         opts.Host,
			InsecureSkipVerify: opts.InsecureSkipVerify,
			MinVersion:         tls.VersionTLS12,
		}
		switch opts.Secure {
		case SecureExplicit:
			dialOpts = append(dialOpts, ftp.DialWithExplicitTLS(tlsConfig))
		case SecureImplicit:
			dialOpts = append(dialOpts, ftp.DialWithTLS(tlsConfig))
		}
		if opts.DebugOutput != nil {
			dialOpts = append(dialOpts, ftp.DialWithDebugOutput(opts.DebugOutput))
		}

		conn, err := ftp.Dial(addr, dialOpts...)
		if err != nil {
			return nil, fmt.Errorf("FTP 连接失败 (%s): %w", addr, err)
		}

		return loginFTP(conn, opts.Username, opts.Password)
	}
}

func loginFTP(conn ftpServerConn, user, password string) (Client, error) {
	if err := conn.Login(user, password); err != nil {
		_ = conn.Quit()
		return nil, fmt.Errorf("FTP 登录失败 (user %s): %w", user, err)
	}
	return &realFTPClient{conn: conn}, nil
}

// Store 先切换到二进制模式（TYPE I），再 STOR
func (c *realFTPClient) Store(remotePath string, r io.Reader) error {
	if err := c.conn.Type(ftp.TransferTypeBinary); err != nil {
		return fmt.Errorf("切换二进制模式失败: %w", err)
	}
	if err := c.conn.Stor(remotePath, r); err != nil {
		return fmt.Errorf("STOR %s 失败: %w", remotePath, err)
	}
	return nil
}

// MakeDirAll 逐级 MKD。550 / 521 视为目录已存在（不同服务器返回码不一致）。
func (c *realFTPClient) MakeDirAll(dir string) error {
	dir = path.Clean(dir)
	if dir == "." || dir == "/" {
		return nil
	}

	prefix := ""
	if strings.HasPrefix(dir, "/") {
		prefix = "/"
	}
	current := prefix
	for _, part := range strings.Split(strings.TrimPrefix(dir, "/"), "/") {
		current = path.Join(current, part)
		if err := c.conn.MakeDir(current); err != nil && !isDirExists(err) {
			return fmt.Errorf("创建远程目录 %s 失败: %w", current, err)
		}
	}
	return nil
}

func isDirExists(err error) bool {
	var protoErr *textproto.Error
	if !errors.As(err, &protoErr) {
		return false
	}
	return protoErr.Code == ftp.StatusFileUnavailable || protoErr.Code == 521
}

func (c *realFTPClient) List(dir string) ([]Entry, error) {
	entries, err := c.conn.List(dir)
	if err != nil {
		return nil, fmt.Errorf("列出远程目录 %s 失败: %w", dir, err)
	}

	result := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Name == "." || e.Name == ".." {
			continue
		}
		result = append(result, Entry{
			Name:  e.Name,
			Size:  e.Size,
			IsDir: e.Type == ftp.EntryTypeFolder,
		})
	}
	return result, nil
}

func (c *realFTPClient) CurrentDir() (string, error) {
	return c.conn.CurrentDir()
}

func (c *realFTPClient) Quit() error {
	return c.conn.Quit()
}
