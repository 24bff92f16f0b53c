package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redsync/redsync/v4"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/oklog/ulid/v2"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/vmihailenco/msgpack/v5"
	"go.opentelemetry.io/otel"
	"go.uber.org/fx"
	"gopkg.in/guregu/null.v3"

	"onegov.dev/electionday/internal/app/appconfig"
	"onegov.dev/electionday/internal/importer"
	"onegov.dev/electionday/internal/model"
	"onegov.dev/electionday/internal/pkg/apperr"
	"onegov.dev/electionday/internal/pkg/archiver"
	"onegov.dev/electionday/internal/pkg/cache"
	"onegov.dev/electionday/internal/pkg/observability"
	"onegov.dev/electionday/internal/principal"
	"onegov.dev/electionday/internal/repo"
	"onegov.dev/electionday/internal/tally"
	"onegov.dev/electionday/internal/util/plausibility"
)

const (
	ImportSubjectWabstiC = "IMPORT.wabstic"

	ImportFormatWabsti  = "wabsti"
	ImportFormatWabstiC = "wabstic"

	// fingerprints dedupe uploads for as long as JetStream does
	importDedupeWindow = time.Minute * 10
)

var tracer = otel.Tracer("service.import")

type ImportDeps struct {
	fx.In

	Config          *appconfig.Config
	DB              *bun.DB
	Redis           *redis.Client
	RedSync         *redsync.Redsync
	JetStream       nats.JetStreamContext
	Principal       *principal.Principal
	Verifiers       *plausibility.Chain
	ElectionRepo    *repo.Election
	ElectionService *Election
	ArchiveService  *Archive
}

type Import struct {
	ImportDeps

	tasks        *cache.Set[ImportTaskStatus]
	fingerprints *cache.Set[string]
}

func NewImport(deps ImportDeps) *Import {
	return &Import{
		ImportDeps:   deps,
		tasks:        cache.NewSet[ImportTaskStatus](deps.Redis, "import-task"),
		fingerprints: cache.NewSet[string](deps.Redis, "import-fingerprint"),
	}
}

type ImportResult struct {
	ElectionID  uuid.UUID   `json:"electionId"`
	Fingerprint string      `json:"fingerprint"`
	Counted     int         `json:"counted"`
	Total       int         `json:"total"`
	Status      null.String `json:"status"`
}

// rejection is an import refused because of the uploaded data.
type rejection struct {
	errs []importer.FileImportError
}

func (r *rejection) Error() string {
	return fmt.Sprintf("import rejected with %d error(s)", len(r.errs))
}

func (r *rejection) AppErr() *apperr.Error {
	return apperr.ErrImportRejected.WithExtras(apperr.Extras{
		"errors": r.errs,
	})
}

func (s *Import) lock(ctx context.Context, electionID uuid.UUID) (*redsync.Mutex, error) {
	mutex := s.RedSync.NewMutex("mutex:import:"+electionID.String(),
		redsync.WithExpiry(time.Minute*5),
		redsync.WithTries(20),
		redsync.WithRetryDelay(time.Millisecond*500))
	if err := mutex.LockContext(ctx); err != nil {
		log.Warn().
			Err(err).
			Str("evt.name", "import.lock.failed").
			Str("electionId", electionID.String()).
			Msg("failed to lock election for import")
		return nil, apperr.ErrConflict.Msg("another import of this election is running")
	}
	return mutex, nil
}

func unlock(mutex *redsync.Mutex) {
	if _, err := mutex.Unlock(); err != nil {
		log.Error().
			Err(err).
			Str("evt.name", "import.unlock.failed").
			Msg("failed to unlock election after import")
	}
}

// commit verifies the plausibility of an import and replaces the stored
// results with it.
func (s *Import) commit(ctx context.Context, election *model.Election, imported *importer.ImportedElection, force bool) error {
	ctx, span := tracer.Start(ctx, "import.commit")
	defer span.End()

	if violation := s.Verifiers.Verify(ctx, tally.FromImported(election, imported)); violation != nil {
		if !force {
			return &rejection{errs: []importer.FileImportError{{
				Message: fmt.Sprintf("plausibility check %s failed: %s", violation.Name, violation.Message),
			}}}
		}
		log.Warn().
			Str("evt.name", "import.plausibility.forced").
			Str("electionId", election.ID.String()).
			Interface("violation", violation).
			Msg("storing implausible import as it was forced")
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	intendedCommit := false
	defer func() {
		if !intendedCommit {
			log.Warn().Str("electionId", election.ID.String()).Msg("rolling back import transaction due to error")
			if err := tx.Rollback(); err != nil {
				log.Error().Err(err).Msg("failed to rollback transaction")
			}
		}
	}()

	if err := s.ElectionRepo.ReplaceResults(ctx, tx, election, imported); err != nil {
		return errors.Wrap(err, "failed to replace results")
	}

	intendedCommit = true
	if err := tx.Commit(); err != nil {
		return err
	}

	s.ElectionService.InvalidateSummary(election.ID)
	return nil
}

func (s *Import) archive(ctx context.Context, electionID uuid.UUID, fingerprint string, files map[string]*importer.Upload) {
	var objects []archiver.Object
	for name, f := range files {
		if f.Present() {
			objects = append(objects, archiver.Object{Name: name, Mimetype: f.Mimetype, Data: f.Data})
		}
	}
	if err := s.ArchiveService.Put(ctx, electionID, fingerprint, objects); err != nil {
		log.Error().
			Err(err).
			Str("evt.name", "import.archive.failed").
			Str("electionId", electionID.String()).
			Str("fingerprint", fingerprint).
			Msg("failed to archive uploaded files")
	}
}

func outcome(format string, err error) {
	var (
		r  *rejection
		ae *apperr.Error
	)
	switch {
	case err == nil:
		observability.ImportOutcome.WithLabelValues(format, "succeeded").Inc()
	case errors.As(err, &r), errors.As(err, &ae) && ae.ErrorCode == apperr.CodeImportRejected:
		observability.ImportOutcome.WithLabelValues(format, "rejected").Inc()
	default:
		observability.ImportOutcome.WithLabelValues(format, "failed").Inc()
	}
}

// ImportWabsti imports a wabsti proporz export. Implausible results are only
// stored if force is set.
func (s *Import) ImportWabsti(ctx context.Context, electionID uuid.UUID, files map[string]*importer.Upload, force bool) (result *ImportResult, err error) {
	defer func() { outcome(ImportFormatWabsti, err) }()

	election, err := s.ElectionRepo.GetByID(ctx, electionID)
	if err != nil {
		return nil, err
	}

	mutex, err := s.lock(ctx, electionID)
	if err != nil {
		return nil, err
	}
	defer unlock(mutex)

	start := time.Now()
	_, span := tracer.Start(ctx, "import.parse.wabsti")
	imported, errs := importer.WabstiProporz(election, s.Principal, WabstiFiles(files))
	span.End()
	observability.ImportParseDuration.WithLabelValues(ImportFormatWabsti).Observe(time.Since(start).Seconds())

	if len(errs) > 0 {
		r := &rejection{errs: errs}
		return nil, r.AppErr()
	}

	if err := s.commit(ctx, election, imported, force); err != nil {
		var r *rejection
		if errors.As(err, &r) {
			return nil, r.AppErr()
		}
		return nil, err
	}

	fingerprint := Fingerprint([]string{ImportFormatWabsti, electionID.String()}, files)
	s.archive(ctx, electionID, fingerprint, files)

	log.Info().
		Str("evt.name", "import.wabsti.stored").
		Str("electionId", electionID.String()).
		Int("results", len(imported.Results)).
		Int("counted", imported.Counted()).
		Msg("wabsti import stored")

	return &ImportResult{
		ElectionID:  electionID,
		Fingerprint: fingerprint,
		Counted:     imported.Counted(),
		Total:       len(imported.Results),
		Status:      election.Status,
	}, nil
}

// QueueWabstiC queues a WabstiC import for the import workers. Repeating an
// upload within the dedupe window returns the task of the first one.
func (s *Import) QueueWabstiC(ctx context.Context, electionID uuid.UUID, number, district string, files map[string]*importer.Upload) (*ImportTaskStatus, error) {
	if _, err := s.ElectionRepo.GetByID(ctx, electionID); err != nil {
		return nil, err
	}

	fingerprint := Fingerprint([]string{ImportFormatWabstiC, electionID.String(), number, district}, files)
	taskID := ulid.Make().String()

	stored, err := s.fingerprints.SetNX(ctx, fingerprint, &taskID, importDedupeWindow)
	if err != nil {
		return nil, err
	}
	if !stored {
		existing, err := s.fingerprints.Get(ctx, fingerprint)
		if err == nil {
			log.Info().
				Str("evt.name", "import.wabstic.duplicate").
				Str("taskId", *existing).
				Str("fingerprint", fingerprint).
				Msg("upload is already queued")
			return s.TaskStatus(ctx, *existing)
		} else if !errors.Is(err, cache.ErrNotFound) {
			return nil, err
		}
	}

	now := time.Now()
	status := &ImportTaskStatus{
		TaskID:     taskID,
		ElectionID: electionID.String(),
		Status:     TaskQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.tasks.Set(ctx, taskID, status, s.Config.ImportTaskLifetime); err != nil {
		return nil, err
	}

	data, err := msgpack.Marshal(&ImportTask{
		TaskID:      taskID,
		ElectionID:  electionID.String(),
		Number:      number,
		District:    district,
		Fingerprint: fingerprint,
		Files:       files,
		CreatedAt:   now.UnixMicro(),
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.JetStream.Publish(ImportSubjectWabstiC, data, nats.MsgId(fingerprint), nats.Context(ctx)); err != nil {
		_ = s.fingerprints.Delete(ctx, fingerprint)
		s.setStatus(ctx, status, TaskFailed, []importer.FileImportError{{Message: "failed to queue import"}})
		return nil, errors.Wrap(err, "failed to publish import task")
	}

	log.Info().
		Str("evt.name", "import.wabstic.queued").
		Str("taskId", taskID).
		Str("electionId", electionID.String()).
		Str("fingerprint", fingerprint).
		Msg("wabstic import queued")

	return status, nil
}

func (s *Import) TaskStatus(ctx context.Context, taskID string) (*ImportTaskStatus, error) {
	status, err := s.tasks.Get(ctx, taskID)
	if errors.Is(err, cache.ErrNotFound) {
		return nil, apperr.ErrNotFound.Msg("import task %s not found or expired", taskID)
	}
	return status, err
}

func (s *Import) setStatus(ctx context.Context, status *ImportTaskStatus, state TaskState, errs []importer.FileImportError) {
	status.Status = state
	status.Errors = errs
	status.UpdatedAt = time.Now()
	if err := s.tasks.Set(ctx, status.TaskID, status, s.Config.ImportTaskLifetime); err != nil {
		log.Error().
			Err(err).
			Str("evt.name", "import.task.status_failed").
			Str("taskId", status.TaskID).
			Msg("failed to update import task status")
	}
}

// ConsumeWabstiC runs a queued import and records the outcome in the task
// status. The returned error is only set for failures that are not caused by
// the uploaded data.
func (s *Import) ConsumeWabstiC(ctx context.Context, task *ImportTask) error {
	status, err := s.tasks.Get(ctx, task.TaskID)
	if err != nil {
		status = &ImportTaskStatus{TaskID: task.TaskID, ElectionID: task.ElectionID, CreatedAt: time.UnixMicro(task.CreatedAt)}
	}
	s.setStatus(ctx, status, TaskRunning, nil)

	_, err = s.consumeWabstiC(ctx, task)
	outcome(ImportFormatWabstiC, err)

	var r *rejection
	switch {
	case err == nil:
		s.setStatus(ctx, status, TaskSucceeded, nil)
		return nil
	case errors.As(err, &r):
		s.setStatus(ctx, status, TaskFailed, r.errs)
		return nil
	default:
		s.setStatus(ctx, status, TaskFailed, []importer.FileImportError{{Message: err.Error()}})
		return err
	}
}

func (s *Import) consumeWabstiC(ctx context.Context, task *ImportTask) (*ImportResult, error) {
	electionID, err := uuid.Parse(task.ElectionID)
	if err != nil {
		return nil, &rejection{errs: []importer.FileImportError{{Message: "invalid election id"}}}
	}
	election, err := s.ElectionRepo.GetByID(ctx, electionID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, &rejection{errs: []importer.FileImportError{{Message: "election not found"}}}
	} else if err != nil {
		return nil, err
	}

	mutex, err := s.lock(ctx, electionID)
	if err != nil {
		return nil, err
	}
	defer unlock(mutex)

	start := time.Now()
	_, span := tracer.Start(ctx, "import.parse.wabstic")
	imported, errs := importer.WabstiCProporz(election, s.Principal, task.Number, task.District, WabstiCFiles(task.Files))
	span.End()
	observability.ImportParseDuration.WithLabelValues(ImportFormatWabstiC).Observe(time.Since(start).Seconds())

	if len(errs) > 0 {
		return nil, &rejection{errs: errs}
	}
	if err := s.commit(ctx, election, imported, false); err != nil {
		return nil, err
	}

	s.archive(ctx, electionID, task.Fingerprint, task.Files)

	log.Info().
		Str("evt.name", "import.wabstic.stored").
		Str("taskId", task.TaskID).
		Str("electionId", task.ElectionID).
		Int("results", len(imported.Results)).
		Int("counted", imported.Counted()).
		Msg("wabstic import stored")

	return &ImportResult{
		ElectionID:  electionID,
		Fingerprint: task.Fingerprint,
		Counted:     imported.Counted(),
		Total:       len(imported.Results),
		Status:      election.Status,
	}, nil
}

// ImportWabstiC imports a WabstiC export right away instead of queueing it.
func (s *Import) ImportWabstiC(ctx context.Context, electionID uuid.UUID, number, district string, files map[string]*importer.Upload) (result *ImportResult, err error) {
	defer func() { outcome(ImportFormatWabstiC, err) }()

	result, err = s.consumeWabstiC(ctx, &ImportTask{
		TaskID:      ulid.Make().String(),
		ElectionID:  electionID.String(),
		Number:      number,
		District:    district,
		Fingerprint: Fingerprint([]string{ImportFormatWabstiC, electionID.String(), number, district}, files),
		Files:       files,
		CreatedAt:   time.Now().UnixMicro(),
	})
	var r *rejection
	if errors.As(err, &r) {
		return nil, r.AppErr()
	}
	return result, err
}
