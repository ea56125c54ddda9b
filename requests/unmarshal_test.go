package requests

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brettbedarf/simfs"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetNodeType(t *testing.T) {
	t.Parallel()

	typ, err := GetNodeType([]byte(`{"type":"folder","path":"/a"}`))
	require.NoError(t, err)
	assert.Equal(t, simfs.FolderNodeType, typ)

	_, err = GetNodeType([]byte(`not json`))
	assert.Error(t, err)
}

func TestUnmarshalNodeRequest_Defaults(t *testing.T) {
	t.Parallel()

	req, err := UnmarshalNodeRequest([]byte(`{"path":"/notes/a.txt","type":"file"}`))
	require.NoError(t, err)
	assert.Equal(t, "/notes/a.txt", req.Path)
	assert.Equal(t, simfs.FileNodeType, req.Type)
	assert.Empty(t, req.Perms)
	assert.Empty(t, req.Owner)
	assert.Equal(t, []byte{}, req.Content)
	_, err = uuid.Parse(req.UUID)
	assert.NoError(t, err, "default id should be a uuid")
}

func TestUnmarshalNodeRequest_AllFields(t *testing.T) {
	t.Parallel()

	req, err := UnmarshalNodeRequest([]byte(`{
		"path": "/bin/run.sh",
		"type": "file",
		"uuid": "run-id",
		"content": "echo hi\n",
		"perms": "0755",
		"owner": "root"
	}`))
	require.NoError(t, err)
	assert.Equal(t, &simfs.CreateRequest{
		Path:    "/bin/run.sh",
		Type:    simfs.FileNodeType,
		UUID:    "run-id",
		Content: []byte("echo hi\n"),
		Perms:   "0755",
		Owner:   "root",
	}, req)
}

func TestUnmarshalNodeRequest_FolderIgnoresContent(t *testing.T) {
	t.Parallel()

	req, err := UnmarshalNodeRequest([]byte(`{"path":"/d","type":"folder","content":"x"}`))
	require.NoError(t, err)
	assert.Nil(t, req.Content)
}

func TestUnmarshalNodeRequest_Invalid(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"missing path": `{"type":"file"}`,
		"blank path":   `{"path":"  ","type":"file"}`,
		"unknown type": `{"path":"/x","type":"symlink"}`,
		"missing type": `{"path":"/x"}`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := UnmarshalNodeRequest([]byte(raw))
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestUnmarshalNodeRequests_YAML(t *testing.T) {
	t.Parallel()

	yamlData := `
- path: /projects
  type: folder
  perms: rwxr-x---
- path: /projects/readme.md
  type: file
  content: |
    # Projects
  owner: alice
`
	reqs, err := UnmarshalNodeRequests([]byte(yamlData), "yaml")
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "rwxr-x---", reqs[0].Perms)
	assert.Equal(t, simfs.FolderNodeType, reqs[0].Type)
	assert.Equal(t, []byte("# Projects\n"), reqs[1].Content)
	assert.Equal(t, "alice", reqs[1].Owner)
}

func TestUnmarshalNodeRequests_Errors(t *testing.T) {
	t.Parallel()

	_, err := UnmarshalNodeRequests([]byte(`[{"path":"/a","type":"file"},{"type":"file"}]`), "json")
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.ErrorContains(t, err, "node request 1")

	_, err = UnmarshalNodeRequests([]byte(`{`), "json")
	assert.Error(t, err)

	_, err = UnmarshalNodeRequests([]byte(`[]`), "toml")
	assert.ErrorContains(t, err, "unsupported")
}

func TestLoadNodeRequestsFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "nodes.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"path":"/a","type":"folder"},{"path":"/a/b.txt","type":"file","content":"b"}]`), 0o644))
	ymlPath := filepath.Join(dir, "nodes.YML")
	require.NoError(t, os.WriteFile(ymlPath, []byte("- path: /c\n  type: folder\n"), 0o644))

	reqs, err := LoadNodeRequestsFile(jsonPath)
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, []byte("b"), reqs[1].Content)

	reqs, err = LoadNodeRequestsFile(ymlPath)
	require.NoError(t, err)
	require.Len(t, reqs, 1)

	_, err = LoadNodeRequestsFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
