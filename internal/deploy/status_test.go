package deploy_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hwuu/mylzip/internal/config"
	"github.com/hwuu/mylzip/internal/deploy"
)

func TestStatus_NoState(t *testing.T) {
	output := &bytes.Buffer{}
	s := &deploy.StatusRunner{Output: output, StateDir: t.TempDir()}

	if err := s.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(output.String(), "No deployment recorded yet") {
		t.Errorf("unexpected output: %s", output.String())
	}
}

func TestStatus_WithState(t *testing.T) {
	stateDir := t.TempDir()
	state := config.NewState("upload-js", &config.Credentials{Host: "myl.zip", Protocol: "ftp"}, "js")
	state.Uploaded = []config.UploadedFile{
		{RemotePath: "js/cross-platform-chat.js", Size: 100},
		{RemotePath: "js/setup-wizard.js", Size: 50},
	}
	state.Skipped = []string{"main.js"}
	if err := config.SaveStateTo(stateDir, state); err != nil {
		t.Fatalf("SaveStateTo failed: %v", err)
	}

	output := &bytes.Buffer{}
	s := &deploy.StatusRunner{Output: output, StateDir: stateDir}
	if err := s.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := output.String()
	for _, expected := range []string{
		"upload-js",
		"ftp://myl.zip",
		"Uploaded (2 files, 150 bytes)",
		"js/setup-wizard.js",
		"Skipped:",
		"main.js",
	} {
		if !strings.Contains(out, expected) {
			t.Errorf("output missing %q\n%s", expected, out)
		}
	}
}

func TestStatus_CorruptedState(t *testing.T) {
	stateDir := t.TempDir()
	os.WriteFile(filepath.Join(stateDir, config.StateFileName), []byte("garbage"), 0600)

	s := &deploy.StatusRunner{Output: &bytes.Buffer{}, StateDir: stateDir}
	if err := s.Run(); !errors.Is(err, config.ErrStateCorrupted) {
		t.Errorf("expected ErrStateCorrupted, got %v", err)
	}
}
