package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/octobees/personalizer/internal/entity"
	"github.com/octobees/personalizer/internal/extract"
	"github.com/octobees/personalizer/internal/prompt"
	"github.com/octobees/personalizer/internal/repository"
	"github.com/octobees/personalizer/pkg/llm"
	"github.com/octobees/personalizer/pkg/reversecontact"
)

// PersonalizeService produces and caches one pitch per visitor identifier.
type PersonalizeService struct {
	pitches   repository.PitchesRepository
	contacts  repository.ContactsRepository
	client    reversecontact.Client
	generator llm.Generator
	builder   *prompt.Builder
	extractor extract.Chain
	mode      prompt.Mode

	group singleflight.Group
	now   func() time.Time
}

// PersonalizeDeps wires the collaborators of PersonalizeService.
type PersonalizeDeps struct {
	Pitches   repository.PitchesRepository
	Contacts  repository.ContactsRepository
	Client    reversecontact.Client
	Generator llm.Generator
	Builder   *prompt.Builder
	Mode      prompt.Mode
}

// NewPersonalizeService creates a PersonalizeService. An empty mode means sections.
func NewPersonalizeService(deps PersonalizeDeps) *PersonalizeService {
	mode := deps.Mode
	if mode == "" {
		mode = prompt.ModeSections
	}
	return &PersonalizeService{
		pitches:   deps.Pitches,
		contacts:  deps.Contacts,
		client:    deps.Client,
		generator: deps.Generator,
		builder:   deps.Builder,
		extractor: extract.DefaultChain,
		mode:      mode,
		now:       time.Now,
	}
}

// Mode returns the generation mode new pitches are produced in.
func (s *PersonalizeService) Mode() prompt.Mode {
	return s.mode
}

// Personalize returns the cached pitch for id, generating and storing it on first request.
// Concurrent calls for the same identifier share one run.
func (s *PersonalizeService) Personalize(ctx context.Context, id entity.Identifier) (*entity.Pitch, error) {
	v, err, shared := s.group.Do(id.String(), func() (any, error) {
		return s.personalize(context.WithoutCancel(ctx), id)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		zap.L().Debug("joined in-flight personalization", zap.String("identifier", string(id.Kind)))
	}
	return v.(*entity.Pitch), nil
}

func (s *PersonalizeService) personalize(ctx context.Context, id entity.Identifier) (*entity.Pitch, error) {
	logger := zap.L().With(zap.String("identifier", string(id.Kind)))

	cached, err := s.pitches.FindByIdentifier(ctx, id)
	if err == nil {
		logger.Info("returning cached pitch")
		return cached, nil
	}
	if !errors.Is(err, repository.ErrPitchNotFound) {
		return nil, fmt.Errorf("read cached pitch: %w", err)
	}

	contact, err := s.loadContact(ctx, id, logger)
	if err != nil {
		return nil, err
	}

	p := s.builder.Build(prompt.AttributesFrom(contact.Data), s.mode)

	started := time.Now()
	text, err := s.generator.Generate(ctx, llm.Request{System: p.System, User: p.User})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpstream, err)
	}
	logger.Info("generation finished",
		zap.Duration("latency", time.Since(started)),
		zap.Int("output_length", len(text)),
	)

	var pitch *entity.Pitch
	now := s.now().UTC()
	if s.mode == prompt.ModeMessage {
		pitch = entity.NewMessagePitch(id, text, now)
	} else {
		sections, err := s.extractor.Sections(text)
		if err != nil {
			logger.Error("model output could not be parsed",
				zap.Int("output_length", len(text)),
				zap.Error(err),
			)
			return nil, fmt.Errorf("%w: %w", ErrExtraction, err)
		}
		pitch = entity.NewSectionsPitch(id, sections, now)
	}

	if err := s.pitches.Create(ctx, id, pitch); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			logger.Info("pitch stored concurrently, returning stored record")
			return s.pitches.FindByIdentifier(ctx, id)
		}
		return nil, fmt.Errorf("store pitch: %w", err)
	}
	logger.Info("pitch stored")
	return pitch, nil
}

func (s *PersonalizeService) loadContact(ctx context.Context, id entity.Identifier, logger *zap.Logger) (*entity.Contact, error) {
	contact, err := s.contacts.FindByIdentifier(ctx, id)
	if err == nil {
		return contact, nil
	}
	if !errors.Is(err, repository.ErrContactNotFound) {
		return nil, fmt.Errorf("read enrichment record: %w", err)
	}

	logger.Info("calling enrichment provider")
	data, err := fetchContactData(ctx, s.client, id)
	if err != nil {
		return nil, err
	}

	contact = entity.NewContact(id, data, s.now().UTC())
	if err := s.contacts.Create(ctx, id, contact); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return s.contacts.FindByIdentifier(ctx, id)
		}
		return nil, fmt.Errorf("store enrichment record: %w", err)
	}
	return contact, nil
}
