package config_test

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"github.com/hwuu/mylzip/internal/config"
)

func TestPrompter_Prompt(t *testing.T) {
	output := &bytes.Buffer{}
	prompter := config.NewPrompter(strings.NewReader("test-input\n"), output)

	result, err := prompter.Prompt("Enter value: ")
	if err != nil {
		t.Fatalf("Prompt failed: %v", err)
	}
	if result != "test-input" {
		t.Errorf("got %q, want %q", result, "test-input")
	}
	if output.String() != "Enter value: " {
		t.Errorf("unexpected prompt output %q", output.String())
	}
}

func TestPrompter_PromptWithDefault(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		defaultValue string
		expected     string
	}{
		{"user input", "user-value\n", "default", "user-value"},
		{"empty input uses default", "\n", "default", "default"},
		{"eof uses default", "", "default", "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompter := config.NewPrompter(strings.NewReader(tt.input), &bytes.Buffer{})

			result, err := prompter.PromptWithDefault("Enter value", tt.defaultValue)
			if err != nil {
				t.Fatalf("PromptWithDefault failed: %v", err)
			}
			if result != tt.expected {
				t.Errorf("got %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestPrompter_PromptConfirm(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		defaultYes bool
		expected   bool
	}{
		{"yes lowercase", "y\n", false, true},
		{"yes uppercase", "Y\n", false, true},
		{"no", "n\n", false, false},
		{"empty default no", "\n", false, false},
		{"empty default yes", "\n", true, true},
		{"random", "foo\n", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompter := config.NewPrompter(strings.NewReader(tt.input), &bytes.Buffer{})

			result, err := prompter.PromptConfirm("Confirm?", tt.defaultYes)
			if err != nil {
				t.Fatalf("PromptConfirm failed: %v", err)
			}
			if result != tt.expected {
				t.Errorf("got %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestPrompter_PromptSelect(t *testing.T) {
	options := []string{"FTP", "SFTP"}

	tests := []struct {
		name        string
		input       string
		expectedIdx int
		wantErr     bool
	}{
		{"select first", "1\n", 0, false},
		{"select second", "2\n", 1, false},
		{"empty defaults to first", "\n", 0, false},
		{"out of range", "3\n", 0, true},
		{"not a number", "abc\n", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompter := config.NewPrompter(strings.NewReader(tt.input), &bytes.Buffer{})

			idx, err := prompter.PromptSelect("Choice:", options)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("PromptSelect failed: %v", err)
			}
			if idx != tt.expectedIdx {
				t.Errorf("got %d, want %d", idx, tt.expectedIdx)
			}
		})
	}
}

func TestPrompter_PromptPasswordNonTerminal(t *testing.T) {
	prompter := config.NewPrompter(strings.NewReader("h8r(secret\n"), &bytes.Buffer{})

	password, err := prompter.PromptPassword("Password: ")
	if err != nil {
		t.Fatalf("PromptPassword failed: %v", err)
	}
	if password != "h8r(secret" {
		t.Errorf("got %q", password)
	}
}

func TestPrompter_PromptCredentials(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected config.Credentials
	}{
		{
			name:  "plain ftp with defaults",
			input: "\n1\n\ndeploy@myl.zip\npw\n",
			expected: config.Credentials{
				Host: "myl.zip", Port: 21, Username: "deploy@myl.zip", Password: "pw",
				Protocol: config.ProtocolFTP,
			},
		},
		{
			name:  "explicit tls",
			input: "zaido.org\n2\n2121\nzaido\npw\n",
			expected: config.Credentials{
				Host: "zaido.org", Port: 2121, Username: "zaido", Password: "pw",
				Protocol: config.ProtocolFTP, Secure: config.SecureExplicit,
			},
		},
		{
			name:  "sftp default port",
			input: "\n4\n\ndeploy\npw\n",
			expected: config.Credentials{
				Host: "myl.zip", Port: 22, Username: "deploy", Password: "pw",
				Protocol: config.ProtocolSFTP,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompter := config.NewPrompter(strings.NewReader(tt.input), &bytes.Buffer{})

			cred, err := prompter.PromptCredentials(nil)
			if err != nil {
				t.Fatalf("PromptCredentials failed: %v", err)
			}
			if *cred != tt.expected {
				t.Errorf("got %+v, want %+v", *cred, tt.expected)
			}
		})
	}
}

func TestPrompter_PromptCredentialsKeepsUsername(t *testing.T) {
	defaults := &config.Credentials{Host: "myl.zip", Username: "saved-user"}
	prompter := config.NewPrompter(strings.NewReader("\n1\n\n\npw\n"), &bytes.Buffer{})

	cred, err := prompter.PromptCredentials(defaults)
	if err != nil {
		t.Fatalf("PromptCredentials failed: %v", err)
	}
	if cred.Username != "saved-user" {
		t.Errorf("expected saved username, got %q", cred.Username)
	}
}

func TestPrompter_PromptCredentialsEmptyPassword(t *testing.T) {
	prompter := config.NewPrompter(strings.NewReader("\n1\n\ndeploy\n\n"), &bytes.Buffer{})

	if _, err := prompter.PromptCredentials(nil); err == nil {
		t.Error("expected error for empty password")
	}
}

func TestPrompter_PromptCredentialsBadPort(t *testing.T) {
	prompter := config.NewPrompter(strings.NewReader("\n1\nftp\n"), &bytes.Buffer{})

	if _, err := prompter.PromptCredentials(nil); err == nil {
		t.Error("expected error for non-numeric port")
	}
}

func TestPrompter_PromptSelectWithDefault(t *testing.T) {
	output := &bytes.Buffer{}
	prompter := config.NewPrompter(strings.NewReader("\n"), output)

	idx, err := prompter.PromptSelectWithDefault("Choice:", []string{"FTP", "SFTP"}, 1)
	if err != nil {
		t.Fatalf("PromptSelectWithDefault failed: %v", err)
	}
	if idx != 1 {
		t.Errorf("got %d, want 1", idx)
	}
	if !strings.Contains(output.String(), "Choice [2]: ") {
		t.Errorf("expected default hint in output %q", output.String())
	}
}

func TestPrompter_PromptCredentialsKeepsProtocolAndPort(t *testing.T) {
	tests := []struct {
		name     string
		defaults config.Credentials
		input    string
		expected config.Credentials
	}{
		{
			name: "sftp setup kept on enter",
			defaults: config.Credentials{
				Host: "myl.zip", Port: 2200, Username: "deploy", Password: "old",
				Protocol: config.ProtocolSFTP,
			},
			input: "\n\n\n\nnew\n",
			expected: config.Credentials{
				Host: "myl.zip", Port: 2200, Username: "deploy", Password: "new",
				Protocol: config.ProtocolSFTP,
			},
		},
		{
			name: "implicit tls kept on enter",
			defaults: config.Credentials{
				Host: "myl.zip", Port: 990, Username: "deploy",
				Protocol: config.ProtocolFTP, Secure: config.SecureImplicit,
			},
			input: "\n\n\n\npw\n",
			expected: config.Credentials{
				Host: "myl.zip", Port: 990, Username: "deploy", Password: "pw",
				Protocol: config.ProtocolFTP, Secure: config.SecureImplicit,
			},
		},
		{
			name: "protocol change resets port",
			defaults: config.Credentials{
				Host: "myl.zip", Port: 2121, Username: "deploy",
				Protocol: config.ProtocolFTP,
			},
			input: "\n4\n\n\npw\n",
			expected: config.Credentials{
				Host: "myl.zip", Port: 22, Username: "deploy", Password: "pw",
				Protocol: config.ProtocolSFTP,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prompter := config.NewPrompter(strings.NewReader(tt.input), &bytes.Buffer{})

			defaults := tt.defaults
			cred, err := prompter.PromptCredentials(&defaults)
			if err != nil {
				t.Fatalf("PromptCredentials failed: %v", err)
			}
			if *cred != tt.expected {
				t.Errorf("got %+v, want %+v", *cred, tt.expected)
			}
		})
	}
}

func TestPrompter_PromptPasswordPipe(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if _, err := w.WriteString("piped-secret\n"); err != nil {
		t.Fatal(err)
	}
	w.Close()

	output := &bytes.Buffer{}
	prompter := config.NewPrompter(r, output)

	password, err := prompter.PromptPassword("Password: ")
	if err != nil {
		t.Fatalf("PromptPassword failed: %v", err)
	}
	if password != "piped-secret" {
		t.Errorf("got %q", password)
	}
	if output.String() != "Password: " {
		t.Errorf("prompt must go to the prompter's writer, got %q", output.String())
	}
}
