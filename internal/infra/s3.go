package infra

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"onegov.dev/electionday/internal/app/appconfig"
)

// S3 returns the client of the archive bucket, or nil when archiving is
// disabled.
func S3(conf *appconfig.Config) (*s3.Client, error) {
	if conf.ArchiveBucket == "" {
		log.Warn().Msg("Archiving of uploads is disabled due to missing bucket.")
		return nil, nil
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(conf.ArchiveRegion),
	}
	if conf.ArchiveAccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(conf.ArchiveAccessKeyID, conf.ArchiveSecretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load aws config")
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if conf.ArchiveEndpoint != "" {
			o.BaseEndpoint = aws.String(conf.ArchiveEndpoint)
			o.UsePathStyle = true
		}
	}), nil
}
