package adapters

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brettbedarf/simfs"
	"github.com/brettbedarf/simfs/config"
)

// testGatewayContract exercises the behavior every gateway shares
func testGatewayContract(t *testing.T, gw simfs.Gateway) {
	t.Helper()
	ctx := context.Background()

	_, err := gw.Load(ctx, simfs.RootKey)
	assert.ErrorIs(t, err, simfs.ErrKeyNotFound)

	// Last write wins
	require.NoError(t, gw.Save(ctx, simfs.RootKey, []byte(`{"v":1}`)))
	require.NoError(t, gw.Save(ctx, simfs.RootKey, []byte(`{"v":2}`)))
	got, err := gw.Load(ctx, simfs.RootKey)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"v":2}`), got)

	recs, err := gw.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.Empty(t, recs)

	require.NoError(t, gw.PutSnapshot(ctx, "snap-a", []byte(`"a"`)))
	require.NoError(t, gw.PutSnapshot(ctx, "snap-b", []byte(`"b"`)))
	require.NoError(t, gw.PutSnapshot(ctx, "snap-b", []byte(`"b2"`)))
	recs, err = gw.ListSnapshots(ctx)
	require.NoError(t, err)
	slices.SortFunc(recs, func(a, b simfs.SnapshotRecord) int { return strings.Compare(a.ID, b.ID) })
	assert.Equal(t, []simfs.SnapshotRecord{
		{ID: "snap-a", Data: []byte(`"a"`)},
		{ID: "snap-b", Data: []byte(`"b2"`)},
	}, recs)

	require.NoError(t, gw.DeleteSnapshot(ctx, "snap-a"))
	require.NoError(t, gw.DeleteSnapshot(ctx, "never-stored"))
	recs, err = gw.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "snap-b", recs[0].ID)

	assert.NoError(t, gw.Close())
}

func TestMemoryGateway(t *testing.T) {
	t.Parallel()
	testGatewayContract(t, NewMemoryGateway())
}

func TestMemoryGateway_CopiesValues(t *testing.T) {
	t.Parallel()

	gw := NewMemoryGateway()
	value := []byte("abc")
	require.NoError(t, gw.Save(context.Background(), "k", value))
	value[0] = 'X'

	got, err := gw.Load(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}

func TestFileGateway(t *testing.T) {
	t.Parallel()

	gw, err := NewFileGateway(afero.NewMemMapFs(), "/var/simfs")
	require.NoError(t, err)
	testGatewayContract(t, gw)
}

func TestFileGateway_Layout(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	gw, err := NewFileGateway(fs, "/store")
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, gw.Save(ctx, simfs.RootKey, []byte("tree")))
	require.NoError(t, gw.PutSnapshot(ctx, "s1", []byte("snap")))

	data, err := afero.ReadFile(fs, "/store/root.json")
	require.NoError(t, err)
	assert.Equal(t, []byte("tree"), data)
	exists, err := afero.Exists(fs, "/store/snapshots/s1.json")
	require.NoError(t, err)
	assert.True(t, exists)

	// No temporary files are left behind
	exists, err = afero.Exists(fs, "/store/root.json.next")
	require.NoError(t, err)
	assert.False(t, exists)

	// Stray files in the snapshot folder are ignored
	require.NoError(t, afero.WriteFile(fs, "/store/snapshots/notes.txt", []byte("x"), 0o600))
	recs, err := gw.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}

func TestFileGateway_OsFs(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "store")
	gw, err := NewFileGateway(afero.NewOsFs(), dir)
	require.NoError(t, err)
	testGatewayContract(t, gw)
}

func TestFileGateway_RequiresPath(t *testing.T) {
	t.Parallel()

	_, err := NewFileGateway(afero.NewMemMapFs(), "")
	assert.Error(t, err)
}

func TestSQLGateway_SQLite(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "simfs.db")
	gw, err := OpenSQLGateway(ctx, SQLite, dbPath)
	require.NoError(t, err)
	testGatewayContract(t, gw)

	// Data survives reopening the database
	gw, err = OpenSQLGateway(ctx, SQLite, dbPath)
	require.NoError(t, err)
	defer gw.Close()
	got, err := gw.Load(ctx, simfs.RootKey)
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"v":2}`), got)
}

func TestSQLGateway_RequiresDSN(t *testing.T) {
	t.Parallel()

	_, err := OpenSQLGateway(context.Background(), Postgres, "")
	assert.ErrorContains(t, err, "postgres store requires")
}

// fakeS3 is an in-memory s3API with single page listings
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: map[string][]byte{}}
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("missing")}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(slices.Clone(data)))}, nil
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[aws.ToString(in.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for key := range f.objects {
		if strings.HasPrefix(key, aws.ToString(in.Prefix)) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(key)})
		}
	}
	return out, nil
}

func TestS3Gateway(t *testing.T) {
	t.Parallel()
	testGatewayContract(t, newS3Gateway(newFakeS3(), "bucket", "/simfs/"))
}

func TestS3Gateway_Keys(t *testing.T) {
	t.Parallel()

	client := newFakeS3()
	gw := newS3Gateway(client, "bucket", "team/a")
	ctx := context.Background()
	require.NoError(t, gw.Save(ctx, simfs.RootKey, []byte("tree")))
	require.NoError(t, gw.PutSnapshot(ctx, "s1", []byte("snap")))

	assert.Contains(t, client.objects, "team/a/root.json")
	assert.Contains(t, client.objects, "team/a/snapshots/s1.json")

	// Without a prefix keys sit at the bucket root
	gw = newS3Gateway(client, "bucket", "")
	require.NoError(t, gw.Save(ctx, simfs.RootKey, []byte("tree")))
	assert.Contains(t, client.objects, "root.json")
}

func TestNewS3Gateway_RequiresBucket(t *testing.T) {
	t.Parallel()

	_, err := NewS3Gateway(context.Background(), config.StoreConfig{Type: S3StoreType})
	assert.Error(t, err)
}
