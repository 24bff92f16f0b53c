package service

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"onegov.dev/electionday/internal/app/appconfig"
	"onegov.dev/electionday/internal/pkg/archiver"
)

const ArchiveS3Prefix = "imports/"

// Archive keeps the raw files of accepted uploads. It does nothing when no
// bucket is configured.
type Archive struct {
	archiver *archiver.Archiver
}

func NewArchive(conf *appconfig.Config, client *s3.Client) *Archive {
	if client == nil {
		return &Archive{}
	}
	return &Archive{
		archiver: &archiver.Archiver{
			S3Client: client,
			S3Bucket: conf.ArchiveBucket,
			S3Prefix: ArchiveS3Prefix,
		},
	}
}

func (s *Archive) Enabled() bool {
	return s.archiver != nil
}

func (s *Archive) Put(ctx context.Context, electionID uuid.UUID, fingerprint string, objects []archiver.Object) error {
	if !s.Enabled() {
		return nil
	}
	return s.archiver.Archive(ctx, electionID.String(), fingerprint, objects)
}
