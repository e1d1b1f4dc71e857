package command

import (
	"context"
	"strings"
	"time"

	"github.com/dvloznov/finance-assistant/internal/archive"
	"github.com/dvloznov/finance-assistant/internal/command/records"
	"github.com/dvloznov/finance-assistant/internal/logger"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Outcome is the result of one command.
type Outcome struct {
	RecordID string
	Envelope *Envelope
	// Result is nil for dry runs.
	Result *Result
}

// Service runs administrator commands end to end.
type Service struct {
	classifier *Classifier
	validator  *Validator
	dispatcher *Dispatcher
	records    records.Repository
	archive    archive.Sink
	log        zerolog.Logger
	now        func() time.Time
}

// NewService creates a command service. A nil sink disables archiving.
func NewService(classifier *Classifier, validator *Validator, dispatcher *Dispatcher,
	recs records.Repository, sink archive.Sink, log zerolog.Logger) *Service {
	if sink == nil {
		sink = archive.Nop{}
	}
	return &Service{
		classifier: classifier,
		validator:  validator,
		dispatcher: dispatcher,
		records:    recs,
		archive:    sink,
		log:        log,
		now:        time.Now,
	}
}

// Execute classifies, validates and dispatches command. Every command that
// reaches the model gets a record; nothing is retried.
func (s *Service) Execute(ctx context.Context, command string) (*Outcome, error) {
	return s.run(ctx, command, false)
}

// DryRun classifies and validates command without side effects or records.
func (s *Service) DryRun(ctx context.Context, command string) (*Outcome, error) {
	return s.run(ctx, command, true)
}

func (s *Service) run(ctx context.Context, command string, dryRun bool) (*Outcome, error) {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil, newError(KindValidation, "", nil, "Please enter a command.")
	}

	log := logger.FromContext(ctx, s.log).With().Bool("dry_run", dryRun).Logger()
	ctx = logger.WithContext(ctx, log)
	log.Info().Str("command", command).Msg("admin command received")

	// 1) Classify.
	cls, err := s.classifier.Classify(ctx, command)
	if cls != nil {
		s.archiveOutput(ctx, command, cls.Raw)
	}
	if err != nil {
		s.reject(ctx, dryRun, command, "", err)
		return nil, err
	}
	env := cls.Envelope

	// 2) Validate.
	validated, err := s.validator.Validate(env)
	if err != nil {
		s.reject(ctx, dryRun, command, env.Action, err)
		return nil, err
	}

	if dryRun {
		return &Outcome{Envelope: env}, nil
	}

	// 3) Record and dispatch.
	recordID := s.createRecord(ctx, &records.Record{
		Command: command,
		Action:  string(env.Action),
		Status:  records.StatusValidated,
	})
	s.transition(ctx, recordID, records.StatusExecuting, "", "")

	result, err := s.dispatcher.Dispatch(ctx, validated)
	if err != nil {
		s.logFailure(ctx, env.Action, err)
		s.transition(ctx, recordID, records.StatusFailed, PublicMessage(err), err.Error())
		return nil, err
	}

	s.transition(ctx, recordID, records.StatusCommitted, result.Message, "")
	log.Info().
		Str("action", string(result.Action)).
		Str("record_id", recordID).
		Str("user_id", result.UserID).
		Int("created", result.Created).
		Msg("admin command committed")

	return &Outcome{RecordID: recordID, Envelope: env, Result: result}, nil
}

// reject logs a failure that happened before dispatch and records it as failed.
func (s *Service) reject(ctx context.Context, dryRun bool, command string, action ActionName, err error) {
	s.logFailure(ctx, action, err)
	if dryRun {
		return
	}
	s.createRecord(ctx, &records.Record{
		Command: command,
		Action:  string(action),
		Status:  records.StatusFailed,
		Message: PublicMessage(err),
		Error:   err.Error(),
	})
}

func (s *Service) logFailure(ctx context.Context, action ActionName, err error) {
	log := logger.FromContext(ctx, s.log)
	kind := KindOf(err)

	ev := log.Warn()
	if !kind.ClientVisible() || kind == KindServerState {
		ev = log.Error()
	}
	ev.Err(err).Str("action", string(action)).Str("kind", kind.String()).Msg("admin command failed")
}

func (s *Service) createRecord(ctx context.Context, rec *records.Record) string {
	created, err := s.records.Create(ctx, rec)
	if err != nil {
		log := logger.FromContext(ctx, s.log)
		log.Error().Err(err).Msg("failed to create command record")
		return ""
	}
	return created.ID
}

func (s *Service) transition(ctx context.Context, id string, status records.Status, message, errMsg string) {
	if id == "" {
		return
	}
	if err := s.records.Transition(ctx, id, status, message, errMsg); err != nil {
		log := logger.FromContext(ctx, s.log)
		log.Error().Err(err).Str("record_id", id).Msg("failed to update command record")
	}
}

func (s *Service) archiveOutput(ctx context.Context, command, raw string) {
	out := &archive.Output{
		ID:        uuid.NewString(),
		Command:   command,
		RawText:   raw,
		Model:     s.classifier.Model(),
		CreatedAt: s.now(),
	}

	loc, err := s.archive.Store(ctx, out)
	log := logger.FromContext(ctx, s.log)
	if err != nil {
		log.Warn().Err(err).Str("output_id", out.ID).Msg("failed to archive model output")
		return
	}
	if loc != "" {
		log.Debug().Str("location", loc).Msg("model output archived")
	}
}
