package deploy

import (
	"context"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	cftypes "github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/movement-pass/passctl/internal/config"
)

// Cache policies per object class. Fingerprinted assets are immutable;
// the root document must always be revalidated so releases show up.
const (
	assetCacheControl = "public,max-age=31536000,immutable"
	rootCacheControl  = "no-cache"
)

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type invalidator interface {
	CreateInvalidation(ctx context.Context, in *cloudfront.CreateInvalidationInput, opts ...func(*cloudfront.Options)) (*cloudfront.CreateInvalidationOutput, error)
}

// Deployer publishes a built site directory to S3 and invalidates the
// CloudFront distribution in front of it.
type Deployer struct {
	s3         objectPutter
	cloudfront invalidator
	cfg        config.DeployConfig
	logger     *zap.Logger
}

// New builds a Deployer from the ambient AWS credential chain.
func New(ctx context.Context, cfg config.DeployConfig, logger *zap.Logger) (*Deployer, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("deploy bucket is not configured")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &Deployer{
		s3:         s3.NewFromConfig(awsCfg),
		cloudfront: cloudfront.NewFromConfig(awsCfg),
		cfg:        cfg,
		logger:     logger,
	}, nil
}

// Deploy uploads every file under dir, then invalidates the distribution
// so the new release is visible immediately.
func (d *Deployer) Deploy(ctx context.Context, dir string) error {
	uploaded := 0
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}

		key, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		key = filepath.ToSlash(key)

		if err := d.putFile(ctx, path, key); err != nil {
			return fmt.Errorf("upload %s: %w", key, err)
		}
		uploaded++
		return nil
	})
	if err != nil {
		return err
	}
	if uploaded == 0 {
		return fmt.Errorf("no files found under %s", dir)
	}

	d.logger.Info("site uploaded",
		zap.String("bucket", d.cfg.Bucket),
		zap.Int("files", uploaded))

	return d.invalidate(ctx)
}

func (d *Deployer) putFile(ctx context.Context, path, key string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	contentType := mime.TypeByExtension(filepath.Ext(key))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	cacheControl := assetCacheControl
	if key == d.cfg.RootDocument || strings.HasSuffix(key, ".html") {
		cacheControl = rootCacheControl
	}

	_, err = d.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(d.cfg.Bucket),
		Key:          aws.String(key),
		Body:         file,
		ContentType:  aws.String(contentType),
		CacheControl: aws.String(cacheControl),
	})
	return err
}

func (d *Deployer) invalidate(ctx context.Context) error {
	if d.cfg.DistributionID == "" {
		d.logger.Warn("no distribution configured, skipping invalidation")
		return nil
	}

	_, err := d.cloudfront.CreateInvalidation(ctx, &cloudfront.CreateInvalidationInput{
		DistributionId: aws.String(d.cfg.DistributionID),
		InvalidationBatch: &cftypes.InvalidationBatch{
			CallerReference: aws.String(fmt.Sprintf("passctl-%d", time.Now().UnixNano())),
			Paths: &cftypes.Paths{
				Quantity: aws.Int32(1),
				Items:    []string{"/*"},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("invalidate distribution: %w", err)
	}

	d.logger.Info("distribution invalidated",
		zap.String("distribution_id", d.cfg.DistributionID))
	return nil
}
