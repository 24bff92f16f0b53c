// Package archiver keeps the raw files of every accepted upload in S3.
package archiver

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const FileExt = ".gz"

var ErrFileAlreadyExists = errors.New("file already exists")

// Object is a single file to archive.
type Object struct {
	Name     string
	Mimetype string
	Data     []byte
}

type Archiver struct {
	S3Client *s3.Client
	S3Bucket string

	// S3Prefix is for the files in the bucket with no leading slash but optionally (typically) with trailing slash
	// e.g. "imports/" or simply "" (empty string)
	S3Prefix string

	logger *zerolog.Logger
}

func (a *Archiver) initLogger() {
	if a.logger == nil {
		logger := log.With().
			Str("module", "archiver").
			Str("bucket", a.S3Bucket).
			Logger()
		a.logger = &logger
	}
}

// Key is the object key of a file of the upload with the given fingerprint.
func (a *Archiver) Key(electionID, fingerprint, name string) string {
	return fmt.Sprintf("%s%s/%s/%s%s", a.S3Prefix, electionID, fingerprint, name, FileExt)
}

// Archive uploads the gzipped objects. Objects already archived with the same
// fingerprint are skipped, so archiving a repeated upload is a no-op.
func (a *Archiver) Archive(ctx context.Context, electionID, fingerprint string, objects []Object) error {
	a.initLogger()

	for _, o := range objects {
		key := a.Key(electionID, fingerprint, o.Name)

		err := a.assertS3FileNonExistence(ctx, key)
		if errors.Is(err, ErrFileAlreadyExists) {
			a.logger.Debug().Str("key", key).Msg("skipping archived file")
			continue
		} else if err != nil {
			return errors.Wrap(err, "failed to assertS3FileNonExistence")
		}

		if err := a.upload(ctx, key, o); err != nil {
			return errors.Wrapf(err, "failed to upload %s", o.Name)
		}
		a.logger.Trace().Str("key", key).Msg("uploaded to S3")
	}
	return nil
}

func (a *Archiver) assertS3FileNonExistence(ctx context.Context, key string) error {
	input := &s3.HeadObjectInput{
		Bucket: aws.String(a.S3Bucket),
		Key:    aws.String(key),
	}
	object, err := a.S3Client.HeadObject(ctx, input)
	if err != nil {
		var ae smithy.APIError
		if errors.As(err, &ae) {
			if ae.ErrorCode() == "NotFound" {
				return nil
			}
		}
		return errors.Wrap(err, "failed to invoke HeadObject")
	}
	return errors.Wrap(ErrFileAlreadyExists, fmt.Sprintf("file \"%s\" already exists in s3 with LastModified \"%s\"", key, object.LastModified))
}

func compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (a *Archiver) upload(ctx context.Context, key string, o Object) error {
	body, err := compress(o.Data)
	if err != nil {
		return errors.Wrap(err, "failed to compress file")
	}

	if _, err := a.S3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:            aws.String(a.S3Bucket),
		Key:               aws.String(key),
		Body:              bytes.NewReader(body),
		ContentType:       aws.String(o.Mimetype),
		ContentEncoding:   aws.String("gzip"),
		StorageClass:      types.StorageClassStandardIa,
		ChecksumAlgorithm: types.ChecksumAlgorithmSha256,
	}); err != nil {
		return errors.Wrap(err, "failed to invoke PutObject")
	}
	return nil
}
