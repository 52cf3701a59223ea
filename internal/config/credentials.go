package config

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	CredentialsFileName = "credentials"

	DefaultHost     = "myl.zip"
	DefaultFTPPort  = 21
	DefaultSFTPPort = 22

	ProtocolFTP  = "ftp"
	ProtocolSFTP = "sftp"

	SecureNone     = ""
	SecureExplicit = "explicit" // AUTH TLS 升级控制连接
	SecureImplicit = "implicit" // 连接即 TLS
)

// 环境变量覆盖凭证文件中的同名字段
const (
	EnvHost     = "MYLZIP_FTP_HOST"
	EnvPort     = "MYLZIP_FTP_PORT"
	EnvUser     = "MYLZIP_FTP_USER"
	EnvPassword = "MYLZIP_FTP_PASSWORD"
	EnvProtocol = "MYLZIP_FTP_PROTOCOL"
	EnvSecure   = "MYLZIP_FTP_SECURE"
)

var (
	ErrMissingUsername = errors.New("FTP username is not set, run mylzip init or set " + EnvUser)
	ErrMissingPassword = errors.New("FTP password is not set, run mylzip init or set " + EnvPassword)
)

// Credentials FTP/SFTP 登录信息，从 ~/.mylzip/credentials 和环境变量加载
type Credentials struct {
	Host     string
	Port     int
	Username string
	Password string
	Protocol string // ftp / sftp
	Secure   string // 仅 ftp 有效："" / explicit / implicit
}

// LookupEnvFunc 与 os.LookupEnv 签名一致，测试时可替换
type LookupEnvFunc func(key string) (string, bool)

// DefaultCredentials 返回未填用户名密码的默认凭证（myl.zip:21，明文 FTP）
func DefaultCredentials() *Credentials {
	return &Credentials{
		Host:     DefaultHost,
		Protocol: ProtocolFTP,
	}
}

// Addr 返回 host:port
func (c *Credentials) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoadCredentials 从默认凭证文件和进程环境变量解析凭证
func LoadCredentials() (*Credentials, error) {
	stateDir, err := GetStateDir()
	if err != nil {
		return nil, err
	}
	return ResolveCredentials(filepath.Join(stateDir, CredentialsFileName), os.LookupEnv)
}

// ResolveCredentials 按 默认值 → 凭证文件 → 环境变量 的顺序合并，最后校验。
// 凭证文件不存在不算错误，只要环境变量补齐了用户名和密码即可。
func ResolveCredentials(path string, lookup LookupEnvFunc) (*Credentials, error) {
	cred := DefaultCredentials()

	kv, err := readKeyValueFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("读取凭证文件失败: %w", err)
	}
	if err := cred.apply(kv); err != nil {
		return nil, err
	}

	env := make(map[string]string)
	for key, envName := range map[string]string{
		"host":     EnvHost,
		"port":     EnvPort,
		"username": EnvUser,
		"password": EnvPassword,
		"protocol": EnvProtocol,
		"secure":   EnvSecure,
	} {
		if v, ok := lookup(envName); ok {
			env[key] = v
		}
	}
	if err := cred.apply(env); err != nil {
		return nil, err
	}

	if err := cred.Validate(); err != nil {
		return nil, err
	}
	return cred, nil
}

// LoadCredentialsFrom 只从指定文件加载凭证（文件必须存在）
func LoadCredentialsFrom(path string) (*Credentials, error) {
	kv, err := readKeyValueFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("凭证文件不存在，请先运行 mylzip init")
		}
		return nil, fmt.Errorf("读取凭证文件失败: %w", err)
	}

	cred := DefaultCredentials()
	if err := cred.apply(kv); err != nil {
		return nil, err
	}
	if err := cred.Validate(); err != nil {
		return nil, err
	}
	return cred, nil
}

// Validate 校验字段并填充协议对应的默认端口
func (c *Credentials) Validate() error {
	if c.Host == "" {
		return errors.New("host is required")
	}
	if c.Username == "" {
		return ErrMissingUsername
	}
	if c.Password == "" {
		return ErrMissingPassword
	}

	switch c.Protocol {
	case ProtocolFTP:
		switch c.Secure {
		case SecureNone, SecureExplicit, SecureImplicit:
		default:
			return fmt.Errorf("invalid secure mode %q (want explicit or implicit)", c.Secure)
		}
	case ProtocolSFTP:
		if c.Secure != SecureNone {
			return fmt.Errorf("secure mode %q only applies to ftp", c.Secure)
		}
	default:
		return fmt.Errorf("invalid protocol %q (want ftp or sftp)", c.Protocol)
	}

	if c.Port == 0 {
		c.Port = DefaultFTPPort
		if c.Protocol == ProtocolSFTP {
			c.Port = DefaultSFTPPort
		}
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port number %d", c.Port)
	}
	return nil
}

// apply 用 kv 中出现的字段覆盖当前值
func (c *Credentials) apply(kv map[string]string) error {
	if v, ok := kv["host"]; ok {
		c.Host = v
	}
	if v, ok := kv["port"]; ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid port %q: %w", v, err)
		}
		c.Port = port
	}
	if v, ok := kv["username"]; ok {
		c.Username = v
	}
	if v, ok := kv["password"]; ok {
		c.Password = v
	}
	if v, ok := kv["protocol"]; ok && v != "" {
		protocol := strings.ToLower(v)
		// 上一层的端口跟着旧协议走；同一层没给端口时改用新协议的默认端口
		if _, hasPort := kv["port"]; protocol != c.Protocol && !hasPort {
			c.Port = 0
		}
		c.Protocol = protocol
	}
	if v, ok := kv["secure"]; ok {
		c.Secure = strings.ToLower(v)
	}
	return nil
}

// readKeyValueFile 解析 key=value 文件（只取第一个 = 分割，忽略空行和 # 注释）
func readKeyValueFile(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	kv := make(map[string]string)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		value := strings.TrimSpace(line[idx+1:])
		kv[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return kv, nil
}

// SaveCredentials 将凭证保存到 ~/.mylzip/credentials，权限 600
func SaveCredentials(cred *Credentials) error {
	stateDir, err := GetStateDir()
	if err != nil {
		return err
	}
	return SaveCredentialsTo(filepath.Join(stateDir, CredentialsFileName), cred)
}

// SaveCredentialsTo 将凭证保存到指定路径，权限 600
func SaveCredentialsTo(path string, cred *Credentials) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	content := fmt.Sprintf("host=%s\nport=%d\nusername=%s\npassword=%s\nprotocol=%s\nsecure=%s\n",
		cred.Host, cred.Port, cred.Username, cred.Password, cred.Protocol, cred.Secure)

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("保存凭证文件失败: %w", err)
	}
	return nil
}
