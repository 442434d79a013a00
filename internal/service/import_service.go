package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"weddingplan/internal/domain"
	"weddingplan/internal/executor"
	"weddingplan/internal/extraction"
	"weddingplan/internal/logger"
	"weddingplan/internal/port"
	"weddingplan/internal/session"
)

const (
	archiveURLExpiry = 7 * 24 * time.Hour
	afterCommitLimit = 30 * time.Second
)

// SubmitInput is one text or PDF import.
type SubmitInput struct {
	Text     string
	PDF      []byte
	Filename string
}

// ExecuteInput controls an execution attempt. NotifyEmail receives the summary on commit.
type ExecuteInput struct {
	Proceed     bool   `json:"proceed"`
	NotifyEmail string `json:"-"`
	NotifyName  string `json:"-"`
}

// ExecutionFailure describes the operation that stopped a batch.
type ExecutionFailure struct {
	Index   int    `json:"operation_index"`
	Label   string `json:"operation"`
	Message string `json:"message"`
}

// ExecuteResult is the outcome of one execution attempt.
type ExecuteResult struct {
	Session               session.View          `json:"session"`
	Vendors               []domain.VendorRecord `json:"vendors"`
	FirstAffectedVendorID *uuid.UUID            `json:"first_affected_vendor_id,omitempty"`
	Failure               *ExecutionFailure     `json:"failure,omitempty"`
	Committed             bool                  `json:"committed"`
}

// ImportDeps groups the collaborators of the import service.
type ImportDeps struct {
	Sessions *session.Store
	Engine   *extraction.Engine
	Vendors  VendorService
	Sources  port.SourceArchive
	Email    port.EmailSender
	Archive  bool
	Logger   *zap.Logger
}

// ImportService drives one import session from submitted text or PDF to executed operations.
type ImportService interface {
	Start(ctx context.Context, weddingID uuid.UUID) (*session.View, error)
	Submit(ctx context.Context, weddingID, sessionID uuid.UUID, input SubmitInput) (*session.View, error)
	Get(ctx context.Context, weddingID, sessionID uuid.UUID) (*session.View, error)
	Answer(ctx context.Context, weddingID, sessionID uuid.UUID, clarificationID, value string) (*session.View, error)
	Skip(ctx context.Context, weddingID, sessionID uuid.UUID, clarificationID string) (*session.View, error)
	RemoveOperation(ctx context.Context, weddingID, sessionID uuid.UUID, index int) (*session.View, error)
	UpdateOperation(ctx context.Context, weddingID, sessionID uuid.UUID, index int, data domain.VendorPatch) (*session.View, error)
	Cancel(ctx context.Context, weddingID, sessionID uuid.UUID) error
	Execute(ctx context.Context, weddingID, sessionID uuid.UUID, input ExecuteInput) (*ExecuteResult, error)
}

type importService struct {
	sessions *session.Store
	engine   *extraction.Engine
	vendors  VendorService
	executor *executor.Executor
	sources  port.SourceArchive
	email    port.EmailSender
	archive  bool
	log      *zap.Logger
}

// NewImportService creates a new ImportService implementation.
func NewImportService(deps ImportDeps) ImportService {
	log := logger.OrNop(deps.Logger)
	return &importService{
		sessions: deps.Sessions,
		engine:   deps.Engine,
		vendors:  deps.Vendors,
		executor: executor.New(deps.Vendors, log),
		sources:  deps.Sources,
		email:    deps.Email,
		archive:  deps.Archive && deps.Sources != nil,
		log:      log,
	}
}

func (s *importService) Start(_ context.Context, weddingID uuid.UUID) (*session.View, error) {
	sess := s.sessions.Start(weddingID)
	s.log.Info("importService.Start: session opened",
		zap.String("wedding_id", weddingID.String()),
		zap.String("session_id", sess.ID().String()),
	)
	return view(sess), nil
}

func (s *importService) Submit(ctx context.Context, weddingID, sessionID uuid.UUID, input SubmitInput) (*session.View, error) {
	sess, err := s.sessions.Get(weddingID, sessionID)
	if err != nil {
		return nil, err
	}
	in := extraction.Input{Text: input.Text, PDF: input.PDF, Filename: input.Filename}
	if err := s.engine.Validate(in); err != nil {
		return nil, err
	}
	if err := sess.BeginExtraction(session.Source{Text: input.Text, PDF: input.PDF, Filename: input.Filename}); err != nil {
		return nil, err
	}

	roster, err := s.vendors.ListVendors(ctx, weddingID)
	if err != nil {
		sess.FailExtraction(err)
		return nil, fmt.Errorf("importService.Submit: reading roster: %w", err)
	}

	result, err := s.engine.Extract(ctx, in, roster)
	if err != nil {
		sess.FailExtraction(err)
		s.log.Warn("importService.Submit: extraction failed",
			zap.String("session_id", sessionID.String()),
			zap.Error(err),
		)
		return nil, err
	}

	sess.CompleteExtraction(result.Operations, result.Clarifications, result.ModelUsed)
	s.log.Info("importService.Submit: extraction ready for review",
		zap.String("wedding_id", weddingID.String()),
		zap.String("session_id", sessionID.String()),
		zap.Bool("pdf", len(input.PDF) > 0),
		zap.Int("operations", len(result.Operations)),
		zap.Int("clarifications", len(result.Clarifications)),
	)
	return view(sess), nil
}

func (s *importService) Get(_ context.Context, weddingID, sessionID uuid.UUID) (*session.View, error) {
	sess, err := s.sessions.Get(weddingID, sessionID)
	if err != nil {
		return nil, err
	}
	return view(sess), nil
}

func (s *importService) Answer(_ context.Context, weddingID, sessionID uuid.UUID, clarificationID, value string) (*session.View, error) {
	return s.mutate(weddingID, sessionID, func(sess *session.Session) error {
		return sess.Answer(clarificationID, value)
	})
}

func (s *importService) Skip(_ context.Context, weddingID, sessionID uuid.UUID, clarificationID string) (*session.View, error) {
	return s.mutate(weddingID, sessionID, func(sess *session.Session) error {
		return sess.Skip(clarificationID)
	})
}

func (s *importService) RemoveOperation(_ context.Context, weddingID, sessionID uuid.UUID, index int) (*session.View, error) {
	return s.mutate(weddingID, sessionID, func(sess *session.Session) error {
		return sess.RemoveOperation(index)
	})
}

func (s *importService) UpdateOperation(_ context.Context, weddingID, sessionID uuid.UUID, index int, data domain.VendorPatch) (*session.View, error) {
	return s.mutate(weddingID, sessionID, func(sess *session.Session) error {
		return sess.ReplaceOperationData(index, data)
	})
}

func (s *importService) Cancel(_ context.Context, weddingID, sessionID uuid.UUID) error {
	sess, err := s.sessions.Get(weddingID, sessionID)
	if err != nil {
		return err
	}
	if err := sess.Cancel(); err != nil {
		return err
	}
	s.sessions.Discard(sessionID)
	s.log.Info("importService.Cancel: session discarded", zap.String("session_id", sessionID.String()))
	return nil
}

// Execute runs the session's operations. A failed operation is reported in the result,
// not as an error: the session stays open with the failed and unattempted operations.
func (s *importService) Execute(ctx context.Context, weddingID, sessionID uuid.UUID, input ExecuteInput) (*ExecuteResult, error) {
	sess, err := s.sessions.Get(weddingID, sessionID)
	if err != nil {
		return nil, err
	}
	ops, err := sess.BeginExecution(input.Proceed)
	if err != nil {
		return nil, err
	}

	report := s.executor.Execute(ctx, weddingID, ops)

	outcomes := make([]session.Outcome, len(report.Succeeded))
	for i, r := range report.Succeeded {
		outcomes[i] = session.Outcome{Action: r.Action, VendorName: r.Vendor.DisplayName()}
	}
	sess.FinishExecution(outcomes, report.Remaining, report.Err())

	result := &ExecuteResult{
		Session: sess.Snapshot(),
		Vendors: report.Vendors(),
	}
	if id, ok := report.FirstAffectedVendorID(); ok {
		result.FirstAffectedVendorID = &id
	}
	if report.Failure != nil {
		result.Failure = &ExecutionFailure{
			Index:   report.Failure.Index,
			Label:   report.Failure.Label,
			Message: report.Failure.Err.Error(),
		}
		return result, nil
	}

	result.Committed = true
	s.sessions.Discard(sessionID)
	s.log.Info("importService.Execute: import committed",
		zap.String("wedding_id", weddingID.String()),
		zap.String("session_id", sessionID.String()),
		zap.Int("created", len(result.Session.Created)),
		zap.Int("updated", len(result.Session.Updated)),
	)
	s.afterCommit(ctx, sess, result.Session, input)
	return result, nil
}

// afterCommit archives the source and sends the summary email. Failures are logged only.
func (s *importService) afterCommit(ctx context.Context, sess *session.Session, v session.View, input ExecuteInput) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), afterCommitLimit)
	defer cancel()

	summary := port.ImportSummary{
		SessionID: v.ID.String(),
		Created:   v.Created,
		Updated:   v.Updated,
	}

	if s.archive {
		url, err := s.archiveSource(ctx, v.WeddingID, v.ID, sess.Source())
		if err != nil {
			s.log.Error("importService.afterCommit: archiving source failed",
				zap.String("session_id", v.ID.String()),
				zap.Error(err),
			)
		} else {
			summary.SourceURL = url
		}
	}

	if s.email != nil && input.NotifyEmail != "" {
		if err := s.email.SendImportSummary(ctx, input.NotifyEmail, input.NotifyName, summary); err != nil {
			s.log.Error("importService.afterCommit: sending summary failed",
				zap.String("session_id", v.ID.String()),
				zap.Error(err),
			)
		}
	}
}

func (s *importService) archiveSource(ctx context.Context, weddingID, sessionID uuid.UUID, src session.Source) (string, error) {
	in := port.ArchiveSource{
		WeddingID:   weddingID,
		SessionID:   sessionID,
		Filename:    src.Filename,
		ContentType: "application/pdf",
		Body:        src.PDF,
	}
	if !src.IsPDF() {
		in.Filename, in.ContentType, in.Body = "", "text/plain; charset=utf-8", []byte(src.Text)
	}
	stored, err := s.sources.Store(ctx, in)
	if err != nil {
		return "", err
	}
	return s.sources.DownloadURL(ctx, stored.Key, archiveURLExpiry)
}

func (s *importService) mutate(weddingID, sessionID uuid.UUID, fn func(*session.Session) error) (*session.View, error) {
	sess, err := s.sessions.Get(weddingID, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	return view(sess), nil
}

func view(sess *session.Session) *session.View {
	v := sess.Snapshot()
	return &v
}

// IsExecutionBlocked reports whether err means the batch cannot run yet.
func IsExecutionBlocked(err error) bool {
	var blocked *session.BlockedError
	return errors.As(err, &blocked) ||
		errors.Is(err, domain.ErrIncompleteOperation) ||
		errors.Is(err, domain.ErrConfirmationRequired)
}
