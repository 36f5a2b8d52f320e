package media

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

type call struct {
	name string
	args []string
}

// fakeRunner answers each command with the handler registered for its binary.
type fakeRunner struct {
	mu       sync.Mutex
	calls    []call
	handlers map[string]func(args []string) ([]byte, []byte, error)
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{handlers: map[string]func([]string) ([]byte, []byte, error){}}
}

func (f *fakeRunner) on(name string, h func(args []string) ([]byte, []byte, error)) {
	f.handlers[name] = h
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{name: name, args: args})
	h := f.handlers[name]
	f.mu.Unlock()
	if h == nil {
		return nil, []byte("command not found: " + name), errors.New("exit status 127")
	}
	return h(args)
}

func (f *fakeRunner) callsTo(name string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.name == name {
			out = append(out, c)
		}
	}
	return out
}

// argAfter returns the argument following flag.
func argAfter(args []string, flag string) string {
	for i, a := range args {
		if a == flag && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLastLine(t *testing.T) {
	assert.Equal(t, "ERROR: Video unavailable", lastLine([]byte("WARNING: x\nERROR: Video unavailable\n\n")))
	assert.Equal(t, "", lastLine(nil))
	assert.LessOrEqual(t, len(lastLine([]byte(strings.Repeat("e", 1000)))), 300)
	long := filepath.Join("/", strings.Repeat("d", 400), "v.mp4")
	assert.Equal(t, long, finalLine([]byte(long+"\n")))
}
