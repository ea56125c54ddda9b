package adapters

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/brettbedarf/simfs"
	"github.com/brettbedarf/simfs/config"
)

// s3API is the subset of *s3.Client the gateway uses
type s3API interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Gateway implements [simfs.Gateway] on an S3 (or S3 compatible) bucket:
// <prefix>/<key>.json for values and <prefix>/snapshots/<id>.json for snapshots.
type S3Gateway struct {
	client s3API
	bucket string
	prefix string
}

// NewS3Gateway builds a client from the default AWS configuration chain.
// A non-empty Endpoint switches to path-style addressing for MinIO and
// similar servers; static keys replace the default credentials when set.
func NewS3Gateway(ctx context.Context, cfg config.StoreConfig) (simfs.Gateway, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 store requires a bucket")
	}
	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3Gateway(client, cfg.Bucket, cfg.Prefix), nil
}

func newS3Gateway(client s3API, bucket, prefix string) *S3Gateway {
	return &S3Gateway{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (g *S3Gateway) objectKey(parts ...string) string {
	return path.Join(append([]string{g.prefix}, parts...)...) + jsonExt
}

func (g *S3Gateway) snapshotPrefix() string {
	return path.Join(g.prefix, snapshotDir) + "/"
}

// isNotFound reports whether err is S3's missing key error
func isNotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && (apiErr.ErrorCode() == "NoSuchKey" || apiErr.ErrorCode() == "NotFound")
}

func (g *S3Gateway) get(ctx context.Context, key string) ([]byte, error) {
	out, err := g.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (g *S3Gateway) put(ctx context.Context, key string, data []byte) error {
	_, err := g.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(g.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	return err
}

func (g *S3Gateway) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := g.get(ctx, g.objectKey(key))
	if isNotFound(err) {
		return nil, simfs.ErrKeyNotFound
	} else if err != nil {
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	return data, nil
}

func (g *S3Gateway) Save(ctx context.Context, key string, value []byte) error {
	if err := g.put(ctx, g.objectKey(key), value); err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}
	return nil
}

func (g *S3Gateway) PutSnapshot(ctx context.Context, id string, data []byte) error {
	if err := g.put(ctx, g.objectKey(snapshotDir, id), data); err != nil {
		return fmt.Errorf("put snapshot %s: %w", id, err)
	}
	return nil
}

func (g *S3Gateway) DeleteSnapshot(ctx context.Context, id string) error {
	_, err := g.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(g.objectKey(snapshotDir, id)),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("delete snapshot %s: %w", id, err)
	}
	return nil
}

func (g *S3Gateway) ListSnapshots(ctx context.Context) ([]simfs.SnapshotRecord, error) {
	prefix := g.snapshotPrefix()
	pager := s3.NewListObjectsV2Paginator(g.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(g.bucket),
		Prefix: aws.String(prefix),
	})

	var recs []simfs.SnapshotRecord
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if !strings.HasSuffix(key, jsonExt) {
				continue
			}
			data, err := g.get(ctx, key)
			if err != nil {
				return nil, fmt.Errorf("get snapshot %s: %w", key, err)
			}
			id := strings.TrimSuffix(strings.TrimPrefix(key, prefix), jsonExt)
			recs = append(recs, simfs.SnapshotRecord{ID: id, Data: data})
		}
	}
	return recs, nil
}

func (g *S3Gateway) Close() error {
	return nil
}

var _ simfs.Gateway = (*S3Gateway)(nil)
