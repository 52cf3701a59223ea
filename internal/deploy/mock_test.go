package deploy_test

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/hwuu/mylzip/internal/remote"
)

// mockClient 内存中的远程文件系统，记录命令序列
type mockClient struct {
	calls    []string
	files    map[string][]byte
	dirs     map[string]bool
	storeErr error
	listErr  error
	quits    int
}

func newMockClient() *mockClient {
	return &mockClient{files: make(map[string][]byte), dirs: make(map[string]bool)}
}

func (m *mockClient) Store(remotePath string, r io.Reader) error {
	m.calls = append(m.calls, "STOR "+remotePath)
	if m.storeErr != nil {
		return m.storeErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.files[remotePath] = data
	return nil
}

func (m *mockClient) MakeDirAll(dir string) error {
	m.calls = append(m.calls, "MKD "+dir)
	m.dirs[dir] = true
	return nil
}

func (m *mockClient) List(dir string) ([]remote.Entry, error) {
	m.calls = append(m.calls, "LIST "+dir)
	if m.listErr != nil {
		return nil, m.listErr
	}
	var entries []remote.Entry
	for p, data := range m.files {
		if path.Dir(p) == dir {
			entries = append(entries, remote.Entry{Name: path.Base(p), Size: uint64(len(data))})
		}
	}
	for d := range m.dirs {
		if path.Dir(d) == dir {
			entries = append(entries, remote.Entry{Name: path.Base(d), IsDir: true})
		}
	}
	return entries, nil
}

func (m *mockClient) CurrentDir() (string, error) {
	return "/home/site", nil
}

func (m *mockClient) Quit() error {
	m.calls = append(m.calls, "QUIT")
	m.quits++
	return nil
}

func (m *mockClient) count(prefix string) int {
	n := 0
	for _, c := range m.calls {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

func dialTo(client *mockClient) remote.DialFunc {
	return func(ctx context.Context) (remote.Client, error) {
		return client, nil
	}
}
