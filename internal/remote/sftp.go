package remote

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"strconv"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/knownhosts"
)

// realSFTPClient 基于 pkg/sftp 的 Client 实现
type realSFTPClient struct {
	sftpClient *sftp.Client
	sshClient  *ssh.Client // 测试中通过管道直连时为 nil
}

// NewSFTPDialFunc 创建 SFTP 连接的 DialFunc（SSH 密码认证）
func NewSFTPDialFunc(opts DialOptions) DialFunc {
	return func(ctx context.Context) (Client, error) {
		hostKeyCallback := ssh.InsecureIgnoreHostKey()
		if opts.KnownHostsFile != "" {
			cb, err := knownhosts.New(opts.KnownHostsFile)
			if err != nil {
				return nil, fmt.Errorf("读取 known_hosts 失败: %w", err)
			}
			hostKeyCallback = cb
		}

		config := &ssh.ClientConfig{
			User: opts.Username,
			Auth: []ssh.AuthMethod{
				ssh.Password(opts.Password),
			},
			HostKeyCallback: hostKeyCallback,
			Timeout:         opts.Timeout,
		}

		addr := net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port))
		var d net.Dialer
		d.Timeout = opts.Timeout
		netConn, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			return nil, fmt.Errorf("SSH 连接失败 (%s): %w", addr, err)
		}
		sshConn, chans, reqs, err := ssh.NewClientConn(netConn, addr, config)
		if err != nil {
			netConn.Close()
			return nil, fmt.Errorf("SSH 登录失败 (user %s): %w", opts.Username, err)
		}
		sshClient := ssh.NewClient(sshConn, chans, reqs)

		sftpConn, err := sftp.NewClient(sshClient)
		if err != nil {
			sshClient.Close()
			return nil, fmt.Errorf("SFTP 连接失败: %w", err)
		}

		return &realSFTPClient{
			sftpClient: sftpConn,
			sshClient:  sshClient,
		}, nil
	}
}

// NewSFTPClientFrom 包装已建立的 sftp.Client（调用方负责底层传输的生命周期）
func NewSFTPClientFrom(c *sftp.Client) Client {
	return &realSFTPClient{sftpClient: c}
}

// Store 写入远程文件；SFTP 没有文本模式，内容原样传输
func (c *realSFTPClient) Store(remotePath string, r io.Reader) error {
	f, err := c.sftpClient.OpenFile(remotePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC)
	if err != nil {
		return fmt.Errorf("创建远程文件 %s 失败: %w", remotePath, err)
	}
	defer f.Close()

	// 隐藏 (*sftp.File).ReadFrom：它把源端的 io.ErrUnexpectedEOF 当作正常结束
	if _, err := io.Copy(struct{ io.Writer }{f}, r); err != nil {
		return fmt.Errorf("写入远程文件 %s 失败: %w", remotePath, err)
	}
	return nil
}

func (c *realSFTPClient) MakeDirAll(dir string) error {
	dir = path.Clean(dir)
	if dir == "." || dir == "/" {
		return nil
	}
	if err := c.sftpClient.MkdirAll(dir); err != nil {
		return fmt.Errorf("创建远程目录 %s 失败: %w", dir, err)
	}
	return nil
}

func (c *realSFTPClient) List(dir string) ([]Entry, error) {
	if dir == "" {
		dir = "."
	}
	infos, err := c.sftpClient.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("列出远程目录 %s 失败: %w", dir, err)
	}

	result := make([]Entry, 0, len(infos))
	for _, fi := range infos {
		result = append(result, Entry{
			Name:  fi.Name(),
			Size:  uint64(fi.Size()),
			IsDir: fi.IsDir(),
		})
	}
	return result, nil
}

func (c *realSFTPClient) CurrentDir() (string, error) {
	return c.sftpClient.Getwd()
}

func (c *realSFTPClient) Quit() error {
	err := c.sftpClient.Close()
	if c.sshClient != nil {
		if sshErr := c.sshClient.Close(); err == nil {
			err = sshErr
		}
	}
	return err
}
