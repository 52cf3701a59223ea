// Package remote 抽象上传目标服务器（FTP / SFTP），部署流程只依赖 Client 接口，便于 mock 测试。
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

const (
	ProtocolFTP  = "ftp"
	ProtocolSFTP = "sftp"

	SecureExplicit = "explicit"
	SecureImplicit = "implicit"
)

var (
	ErrUnsupportedProtocol   = errors.New("unsupported protocol")
	ErrUnsupportedSecureMode = errors.New("unsupported secure mode")
)

// Entry 远程目录中的一项
type Entry struct {
	Name  string
	Size  uint64
	IsDir bool
}

// Client 一个已登录的会话。所有方法在同一控制连接上顺序执行，不可并发调用。
type Client interface {
	// Store 以二进制模式写入 remotePath（STOR），覆盖已有文件
	Store(remotePath string, r io.Reader) error
	// MakeDirAll 逐级创建目录，已存在的目录不报错
	MakeDirAll(dir string) error
	List(dir string) ([]Entry, error)
	CurrentDir() (string, error)
	// Quit 结束会话并释放连接
	Quit() error
}

// DialFunc 建立连接并完成登录
type DialFunc func(ctx context.Context) (Client, error)

// DialOptions 连接参数
type DialOptions struct {
	Protocol string // ftp / sftp
	Secure   string // ftp: "" / explicit / implicit
	Host     string
	Port     int
	Username string
	Password string

	// Timeout 为 0 时沿用底层库的默认行为（不超时）
	Timeout time.Duration
	// InsecureSkipVerify 跳过 TLS 证书校验（共享主机证书常与域名不符）
	InsecureSkipVerify bool
	// KnownHostsFile 为空时 SFTP 不校验主机密钥
	KnownHostsFile string
	// DebugOutput 非 nil 时输出 FTP 协议交互
	DebugOutput io.Writer
}

// NewDialFunc 按协议返回对应的 DialFunc
func NewDialFunc(opts DialOptions) (DialFunc, error) {
	switch opts.Protocol {
	case "", ProtocolFTP:
		switch opts.Secure {
		case "", SecureExplicit, SecureImplicit:
		default:
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedSecureMode, opts.Secure)
		}
		return NewFTPDialFunc(opts), nil
	case ProtocolSFTP:
		return NewSFTPDialFunc(opts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProtocol, opts.Protocol)
	}
}
