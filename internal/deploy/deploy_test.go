package deploy

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/movement-pass/passctl/internal/config"
)

type putCall struct {
	key          string
	contentType  string
	cacheControl string
	body         string
}

type fakeS3 struct {
	puts []putCall
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, _ := io.ReadAll(in.Body)
	f.puts = append(f.puts, putCall{
		key:          aws.ToString(in.Key),
		contentType:  aws.ToString(in.ContentType),
		cacheControl: aws.ToString(in.CacheControl),
		body:         string(body),
	})
	return &s3.PutObjectOutput{}, nil
}

type fakeCloudFront struct {
	calls []*cloudfront.CreateInvalidationInput
}

func (f *fakeCloudFront) CreateInvalidation(_ context.Context, in *cloudfront.CreateInvalidationInput, _ ...func(*cloudfront.Options)) (*cloudfront.CreateInvalidationOutput, error) {
	f.calls = append(f.calls, in)
	return &cloudfront.CreateInvalidationOutput{}, nil
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDeployUploadsTreeAndInvalidates(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.html", "<html></html>")
	writeFile(t, dir, "static/js/main.abc123.js", "console.log(1)")
	writeFile(t, dir, "favicon.ico", "icon")

	s3c := &fakeS3{}
	cf := &fakeCloudFront{}
	d := &Deployer{
		s3:         s3c,
		cloudfront: cf,
		cfg: config.DeployConfig{
			Bucket:         "site-bucket",
			DistributionID: "E123",
			RootDocument:   "index.html",
		},
		logger: zap.NewNop(),
	}

	require.NoError(t, d.Deploy(context.Background(), dir))
	require.Len(t, s3c.puts, 3)

	byKey := map[string]putCall{}
	for _, p := range s3c.puts {
		byKey[p.key] = p
	}

	root := byKey["index.html"]
	assert.Equal(t, rootCacheControl, root.cacheControl)
	assert.Contains(t, root.contentType, "text/html")

	asset := byKey["static/js/main.abc123.js"]
	assert.Equal(t, assetCacheControl, asset.cacheControl)
	assert.Equal(t, "console.log(1)", asset.body)

	require.Len(t, cf.calls, 1)
	assert.Equal(t, "E123", aws.ToString(cf.calls[0].DistributionId))
	assert.Equal(t, []string{"/*"}, cf.calls[0].InvalidationBatch.Paths.Items)
}

func TestDeploySkipsInvalidationWithoutDistribution(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.html", "<html></html>")

	cf := &fakeCloudFront{}
	d := &Deployer{
		s3:         &fakeS3{},
		cloudfront: cf,
		cfg:        config.DeployConfig{Bucket: "site-bucket", RootDocument: "index.html"},
		logger:     zap.NewNop(),
	}

	require.NoError(t, d.Deploy(context.Background(), dir))
	assert.Empty(t, cf.calls)
}

func TestDeployRejectsEmptyDirectory(t *testing.T) {
	d := &Deployer{
		s3:         &fakeS3{},
		cloudfront: &fakeCloudFront{},
		cfg:        config.DeployConfig{Bucket: "site-bucket"},
		logger:     zap.NewNop(),
	}

	err := d.Deploy(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no files found")
}
