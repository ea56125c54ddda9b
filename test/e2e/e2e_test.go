package e2e

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	simfsBin string
	projRoot string
)

func TestMain(m *testing.M) {
	// Build the simfs binary once for all tests
	tmpBinDir, err := os.MkdirTemp("", "simfs-bin")
	if err != nil {
		panic(err)
	}

	simfsBin = filepath.Join(tmpBinDir, "simfs")

	// Determine project root
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		panic("cannot determine current file path")
	}
	projRoot = filepath.Join(filepath.Dir(thisFile), "..", "..")

	cmd := exec.Command("go", "build", "-o", simfsBin, "./cmd")
	cmd.Dir = projRoot
	if out, err := cmd.CombinedOutput(); err != nil {
		panic(string(out))
	}

	code := m.Run()
	if err := os.RemoveAll(tmpBinDir); err != nil {
		panic(err)
	}
	os.Exit(code)
}

// storeEnv is a file store in a private temp dir shared by every run of one test
type storeEnv struct {
	t   *testing.T
	dir string
}

func newStoreEnv(t *testing.T) *storeEnv {
	return &storeEnv{t: t, dir: t.TempDir()}
}

// run invokes the binary against the store with the given flags and args
func (e *storeEnv) run(stdin string, args ...string) string {
	e.t.Helper()
	full := append([]string{"--store", "file", "--store-path", filepath.Join(e.dir, "store"), "-v", "1"}, args...)
	cmd := exec.Command(simfsBin, full...)
	cmd.Stdin = strings.NewReader(stdin)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	require.NoError(e.t, err, "simfs %v failed: %s", args, stderr.String())
	return strings.TrimRight(stdout.String(), "\n")
}

func (e *storeEnv) exec(args ...string) string {
	e.t.Helper()
	return e.run("", append([]string{"exec"}, args...)...)
}

func TestE2EPersistsAcrossRuns(t *testing.T) {
	env := newStoreEnv(t)

	assert.Equal(t, "", env.exec("mkdir", "/home/notes"))
	assert.Equal(t, "", env.exec("touch", "/home/notes/todo.txt"))

	out := env.exec("ls", "/home/notes")
	assert.Contains(t, out, "todo.txt")
	assert.Contains(t, out, "-rw-r--r-- user")

	assert.Contains(t, env.exec("ls", "/home"), "notes/")
}

func TestE2EDefaultTree(t *testing.T) {
	env := newStoreEnv(t)

	assert.Equal(t, "#!/bin/sh\necho \"Hello from simfs\"", env.exec("cat", "/bin/hello.sh"))
	assert.Equal(t, "user", env.exec("whoami"))
}

func TestE2EPermissions(t *testing.T) {
	env := newStoreEnv(t)

	assert.Equal(t, "touch: create /system/notes.txt: permission denied", env.exec("touch", "/system/notes.txt"))
	assert.Equal(t, "", env.run("", "--admin", "exec", "touch", "/system/notes.txt"))
	assert.Contains(t, env.exec("ls", "/system"), "notes.txt")
}

func TestE2ESeedFromNodes(t *testing.T) {
	env := newStoreEnv(t)

	nodes := filepath.Join(env.dir, "nodes.yaml")
	require.NoError(t, os.WriteFile(nodes, []byte(`- path: /data/readme.txt
  type: file
  content: seeded
  perms: "640"
- path: /data/archive
  type: folder
`), 0o644))

	assert.Equal(t, "seeded", env.run("", "--nodes", nodes, "exec", "cat", "/data/readme.txt"))

	// The store now holds a tree, so the definitions are ignored
	require.NoError(t, os.WriteFile(nodes, []byte(`- path: /other
  type: folder
`), 0o644))
	out := env.run("", "--nodes", nodes, "exec", "ls", "/")
	assert.Contains(t, out, "data/")
	assert.NotContains(t, out, "other/")
}

func TestE2ESnapshotRestore(t *testing.T) {
	env := newStoreEnv(t)

	env.exec("snapshot")
	assert.Equal(t, "", env.exec("rm", "/home/documents"))
	assert.NotContains(t, env.exec("ls", "/home"), "documents/")

	env.exec("restore")
	assert.Contains(t, env.exec("ls", "/home"), "documents/")

	list := env.run("", "snapshot", "--list")
	assert.True(t, strings.HasPrefix(list, "0 "), "unexpected snapshot list %q", list)
}

func TestE2EShellScript(t *testing.T) {
	env := newStoreEnv(t)

	out := env.run("pwd\ncd /home\npwd\nmkdir scratch\nls\nexit\npwd\n", "shell")
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "/", lines[0])
	assert.Equal(t, "/home", lines[1])
	// Nothing after exit runs
	assert.True(t, strings.HasSuffix(lines[4], "scratch/"), "unexpected last line %q", lines[4])
}

func TestE2EUnknownCommand(t *testing.T) {
	env := newStoreEnv(t)
	assert.Equal(t, "frobnicate: command not found", env.exec("frobnicate"))
}
