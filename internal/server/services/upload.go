package services

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/dmitrijs2005/ingestgate/internal/common"
	"github.com/dmitrijs2005/ingestgate/internal/logging"
	"github.com/dmitrijs2005/ingestgate/internal/server/ingest"
	"github.com/dmitrijs2005/ingestgate/internal/server/storage"
)

// UploadService authenticates a submitter, validates the upload and writes
// the accepted payload to storage.
type UploadService struct {
	creds    CredentialStore
	pipeline *ingest.Pipeline
	writer   storage.Writer
	logger   logging.Logger
}

func NewUploadService(creds CredentialStore, p *ingest.Pipeline, w storage.Writer, l logging.Logger) *UploadService {
	if l == nil {
		l = logging.NewNop()
	}
	return &UploadService{creds: creds, pipeline: p, writer: w, logger: l}
}

// Upload handles one request. The returned outcome is never nil and its
// payload has already been released.
func (s *UploadService) Upload(ctx context.Context, req ingest.Request, secret string) *ingest.Outcome {
	out := s.upload(ctx, req, secret)
	defer out.Close()

	args := []any{
		"identity", req.Identity,
		"method", req.Method,
		"stage", string(out.Stage),
		"status", out.Status,
	}
	if out.Error != nil {
		args = append(args, "kind", string(out.Error.Kind), "error", out.Error.Error())
		if out.Error.Kind == ingest.Internal {
			s.logger.Error(ctx, "upload failed", args...)
		} else {
			s.logger.Info(ctx, "upload rejected", args...)
		}
		return out
	}
	args = append(args, "destination", out.Destination, "filename", out.Payload.Filename)
	s.logger.Info(ctx, "upload accepted", args...)
	return out
}

func (s *UploadService) upload(ctx context.Context, req ingest.Request, secret string) *ingest.Outcome {
	ok, err := s.creds.Authenticate(ctx, req.Identity, secret)
	if err != nil {
		out := failed(ingest.Internal, ingest.StageReceived, common.FieldUsername, "authentication unavailable", err)
		out.Checksum = s.checksum(ctx, req)
		return out
	}
	if !ok {
		out := failed(ingest.AuthenticationFailed, ingest.StageReceived, common.FieldSecret, "invalid username or secret", nil)
		out.Checksum = s.checksum(ctx, req)
		return out
	}

	out := s.pipeline.Run(ctx, req)
	if !out.Accepted {
		return out
	}

	p := out.Payload
	if err := s.writer.Write(ctx, out.Destination, p.Filename, p.Body, p.Size); err != nil {
		out.Payload.Close()
		out.Accepted = false
		out.Error = &ingest.Error{
			Kind:     ingest.Internal,
			Field:    common.FieldFile,
			Messages: []string{storageMessage(err)},
			Err:      err,
		}
		out.Status = out.Error.Status()
	}
	return out
}

// checksum hashes the body of a request rejected before the pipeline ran,
// so the answer still echoes it.
func (s *UploadService) checksum(ctx context.Context, req ingest.Request) string {
	if req.Body == nil {
		return ""
	}
	sum, err := ingest.Checksum(req.Body)
	if err != nil {
		s.logger.Warn(ctx, "hashing rejected upload", "error", err)
		return ""
	}
	return sum
}

func failed(kind ingest.Kind, stage ingest.Stage, field, msg string, err error) *ingest.Outcome {
	e := &ingest.Error{Kind: kind, Field: field, Messages: []string{msg}, Err: err}
	return &ingest.Outcome{Stage: stage, Error: e, Status: e.Status()}
}

func storageMessage(err error) string {
	switch {
	case errors.Is(err, storage.ErrPermissionDenied), errors.Is(err, storage.ErrAuthInvalid):
		return "storage refused the write"
	case errors.Is(err, storage.ErrBucketNotFound):
		return "storage destination does not exist"
	case errors.Is(err, storage.ErrUnavailable):
		return "storage unavailable"
	case errors.Is(err, storage.ErrInvalidPath):
		return "invalid storage path"
	default:
		return "storage write failed"
	}
}
