// prompt.go 提供 CLI 交互式输入功能：文本输入、密码输入（掩码显示）、确认、选择，
// 以及 mylzip init 使用的凭证收集流程。
package config

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// Prompter 封装 CLI 交互式输入，通过 reader/writer 抽象支持 mock 测试
type Prompter struct {
	reader  io.Reader
	writer  io.Writer
	scanner *bufio.Scanner
}

// NewPrompter 创建 Prompter（指定输入输出流）
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	return &Prompter{
		reader:  reader,
		writer:  writer,
		scanner: bufio.NewScanner(reader),
	}
}

// Prompt 显示提示信息并读取一行输入
func (p *Prompter) Prompt(message string) (string, error) {
	fmt.Fprint(p.writer, message)
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", nil
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// PromptWithDefault 带默认值的输入提示，用户直接回车则使用默认值
func (p *Prompter) PromptWithDefault(message, defaultValue string) (string, error) {
	result, err := p.Prompt(fmt.Sprintf("%s [%s]: ", message, defaultValue))
	if err != nil {
		return "", err
	}
	if result == "" {
		return defaultValue, nil
	}
	return result, nil
}

// PromptPassword 密码输入，终端模式下每个字符显示为 *，支持退格删除。
// 非终端模式（管道输入、测试 mock）退化为普通文本读取。
func (p *Prompter) PromptPassword(message string) (string, error) {
	fmt.Fprint(p.writer, message)

	if f, ok := p.reader.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := p.readPassword(f)
		if err != nil {
			return "", err
		}
		fmt.Fprintln(p.writer)
		return string(password), nil
	}

	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", nil
	}
	return strings.TrimSpace(p.scanner.Text()), nil
}

// PromptConfirm 确认提示。defaultYes=true 时默认 yes [Y/n]，否则默认 no [y/N]
func (p *Prompter) PromptConfirm(message string, defaultYes bool) (bool, error) {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}
	result, err := p.Prompt(fmt.Sprintf("%s %s: ", message, hint))
	if err != nil {
		return false, err
	}
	result = strings.ToLower(strings.TrimSpace(result))
	if result == "" {
		return defaultYes, nil
	}
	return result == "y", nil
}

// PromptSelect 显示选项列表，返回用户选择的索引（0-based），直接回车选第一项
func (p *Prompter) PromptSelect(message string, options []string) (int, error) {
	return p.PromptSelectWithDefault(message, options, 0)
}

// PromptSelectWithDefault 同 PromptSelect，直接回车返回 defaultIdx
func (p *Prompter) PromptSelectWithDefault(message string, options []string, defaultIdx int) (int, error) {
	if defaultIdx < 0 || defaultIdx >= len(options) {
		defaultIdx = 0
	}
	fmt.Fprintln(p.writer, message)
	for i, opt := range options {
		fmt.Fprintf(p.writer, "  %d) %s\n", i+1, opt)
	}

	result, err := p.Prompt(fmt.Sprintf("Choice [%d]: ", defaultIdx+1))
	if err != nil {
		return 0, err
	}

	if result == "" {
		return defaultIdx, nil
	}

	var choice int
	if _, err := fmt.Sscanf(result, "%d", &choice); err != nil {
		return 0, fmt.Errorf("invalid choice: %s", result)
	}

	if choice < 1 || choice > len(options) {
		return 0, fmt.Errorf("choice out of range: %d", choice)
	}

	return choice - 1, nil
}

// readPassword 从终端 f 读取密码，每输入一个字符向 p.writer 回显 *，支持退格删除。
// 通过 term.MakeRaw 进入原始模式逐字符读取，退出时恢复终端状态。
func (p *Prompter) readPassword(f *os.File) ([]byte, error) {
	fd := int(f.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return term.ReadPassword(fd)
	}
	defer term.Restore(fd, oldState)

	var password []byte
	buf := make([]byte, 1)
	for {
		n, err := f.Read(buf)
		if err != nil || n == 0 {
			break
		}
		ch := buf[0]
		switch {
		case ch == '\r' || ch == '\n':
			return password, nil
		case ch == 3: // Ctrl+C
			return nil, fmt.Errorf("interrupted")
		case ch == 127 || ch == 8: // Backspace / Delete
			if len(password) > 0 {
				password = password[:len(password)-1]
				fmt.Fprint(p.writer, "\b \b")
			}
		default:
			password = append(password, ch)
			fmt.Fprint(p.writer, "*")
		}
	}
	return password, nil
}

// 协议选项顺序与 protocolChoice / credentialsFromChoice 对应
var protocolOptions = []string{"FTP", "FTP over TLS (explicit)", "FTP over TLS (implicit)", "SFTP"}

// protocolChoice 返回凭证对应的协议选项索引
func protocolChoice(c *Credentials) int {
	switch {
	case c.Protocol == ProtocolSFTP:
		return 3
	case c.Secure == SecureExplicit:
		return 1
	case c.Secure == SecureImplicit:
		return 2
	}
	return 0
}

func credentialsFromChoice(idx int) (protocol, secure string) {
	switch idx {
	case 1:
		return ProtocolFTP, SecureExplicit
	case 2:
		return ProtocolFTP, SecureImplicit
	case 3:
		return ProtocolSFTP, SecureNone
	}
	return ProtocolFTP, SecureNone
}

// PromptCredentials 交互式收集 FTP 登录信息，defaults 中的已有字段作为默认值。
// 端口默认值沿用 defaults.Port，协议改变时换成新协议的默认端口。
func (p *Prompter) PromptCredentials(defaults *Credentials) (*Credentials, error) {
	if defaults == nil {
		defaults = DefaultCredentials()
	}
	cred := &Credentials{}

	host, err := p.PromptWithDefault("Host", defaults.Host)
	if err != nil {
		return nil, err
	}
	cred.Host = host

	idx, err := p.PromptSelectWithDefault("Protocol:", protocolOptions, protocolChoice(defaults))
	if err != nil {
		return nil, err
	}
	cred.Protocol, cred.Secure = credentialsFromChoice(idx)

	defaultPort := DefaultFTPPort
	if cred.Protocol == ProtocolSFTP {
		defaultPort = DefaultSFTPPort
	}
	if defaults.Port != 0 && defaults.Protocol == cred.Protocol {
		defaultPort = defaults.Port
	}
	portStr, err := p.PromptWithDefault("Port", strconv.Itoa(defaultPort))
	if err != nil {
		return nil, err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port: %s", portStr)
	}
	cred.Port = port

	if defaults.Username != "" {
		cred.Username, err = p.PromptWithDefault("Username", defaults.Username)
	} else {
		cred.Username, err = p.Prompt("Username: ")
	}
	if err != nil {
		return nil, err
	}

	password, err := p.PromptPassword("Password: ")
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, errors.New("password must not be empty")
	}
	cred.Password = password

	if err := cred.Validate(); err != nil {
		return nil, err
	}
	return cred, nil
}
