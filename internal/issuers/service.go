// Package issuers manages issuer registration, platform verification, and
// the projects certificates are drawn from.
package issuers

import (
	"fmt"

	"go.uber.org/zap"

	"carbonmark/marketplace-backend/internal/core"
	"carbonmark/marketplace-backend/internal/events"
	"carbonmark/marketplace-backend/internal/platform"
	"carbonmark/marketplace-backend/internal/registry"
)

type Service struct {
	ledger   *core.Ledger
	registry *registry.Service
	platform *platform.Config
	events   events.Emitter
	logger   *zap.Logger

	issuers  map[string]*Issuer
	projects map[int64]*Project
}

func NewService(ledger *core.Ledger, reg *registry.Service, cfg *platform.Config, emitter events.Emitter, logger *zap.Logger) *Service {
	return &Service{
		ledger:   ledger,
		registry: reg,
		platform: cfg,
		events:   emitter,
		logger:   logger,
		issuers:  make(map[string]*Issuer),
		projects: make(map[int64]*Project),
	}
}

// Register records a new issuer identity. Once per identity.
func (s *Service) Register(identity, name, metadata string) error {
	return s.ledger.Run(func() error {
		if identity == "" || name == "" {
			return core.ErrInvalidField
		}
		if _, ok := s.issuers[identity]; ok {
			return core.ErrAlreadyRegistered
		}
		s.issuers[identity] = &Issuer{
			Identity:     identity,
			Name:         name,
			Metadata:     metadata,
			Active:       true,
			RegisteredAt: s.ledger.Now(),
		}
		s.events.Emit(events.Stamp(events.Event{
			Operation: "issuer.registered",
			Entity:    "issuer",
			Actors:    map[string]string{"issuer": identity},
		}, s.ledger.Now()))
		return nil
	})
}

// SetPlatformVerified records the KYC gate's verdict for an issuer.
// Owner-only: this core trusts the flag, it does not re-derive it.
func (s *Service) SetPlatformVerified(caller, identity string, verified bool) error {
	return s.ledger.Run(func() error {
		if caller != s.platform.Owner() {
			return core.ErrNotOwner
		}
		issuer, ok := s.issuers[identity]
		if !ok {
			return fmt.Errorf("%w: issuer %s", core.ErrNotFound, identity)
		}
		issuer.Verified = verified
		s.events.Emit(events.Stamp(events.Event{
			Operation: "issuer.platform_verified",
			Entity:    "issuer",
			Actors:    map[string]string{"issuer": identity, "owner": caller},
		}, s.ledger.Now()))
		return nil
	})
}

// CreateProjectRequest carries a new project's fields. Document refs are
// opaque content hashes from the metadata store; the core never reads them.
type CreateProjectRequest struct {
	Issuer                 string   `json:"issuer"`
	Name                   string   `json:"name"`
	ProjectType            string   `json:"project_type"`
	Location               string   `json:"location"`
	Methodology            string   `json:"methodology"`
	EstimatedReductionTons int64    `json:"estimated_reduction_tons"`
	DocumentRefs           []string `json:"document_refs,omitempty"`
}

// CreateProject opens a project for a platform-verified issuer.
func (s *Service) CreateProject(req CreateProjectRequest) (int64, error) {
	var id int64
	err := s.ledger.Run(func() error {
		issuer, ok := s.issuers[req.Issuer]
		if !ok {
			return fmt.Errorf("%w: issuer %s", core.ErrNotFound, req.Issuer)
		}
		if !issuer.Verified || !issuer.Active {
			return core.ErrNotPlatformVerified
		}
		if req.Name == "" || req.ProjectType == "" || req.Location == "" || req.Methodology == "" {
			return core.ErrInvalidField
		}
		if req.EstimatedReductionTons <= 0 {
			return core.ErrInvalidAmount
		}
		id = s.ledger.NextID(core.EntityProject)
		s.projects[id] = &Project{
			ID:                     id,
			Issuer:                 req.Issuer,
			Name:                   req.Name,
			ProjectType:            req.ProjectType,
			Location:               req.Location,
			Methodology:            req.Methodology,
			EstimatedReductionTons: req.EstimatedReductionTons,
			DocumentRefs:           append([]string(nil), req.DocumentRefs...),
			CreatedAt:              s.ledger.Now(),
		}
		issuer.ProjectCount++
		s.events.Emit(events.Stamp(events.Event{
			Operation: "project.created",
			Entity:    "project",
			EntityID:  id,
			Actors:    map[string]string{"issuer": req.Issuer},
			Amounts:   map[string]int64{"estimated_reduction_tons": req.EstimatedReductionTons},
		}, s.ledger.Now()))
		return nil
	})
	return id, err
}

// VerifyProject records the verification outcome and the actual reduction
// the project achieved, which caps total issuance. Owner-only.
func (s *Service) VerifyProject(caller string, projectID, actualReductionTons int64) error {
	return s.ledger.Run(func() error {
		if caller != s.platform.Owner() {
			return core.ErrNotOwner
		}
		project, ok := s.projects[projectID]
		if !ok {
			return fmt.Errorf("%w: project %d", core.ErrNotFound, projectID)
		}
		if actualReductionTons <= 0 {
			return core.ErrInvalidAmount
		}
		project.ActualReductionTons = actualReductionTons
		project.Verified = true
		s.events.Emit(events.Stamp(events.Event{
			Operation: "project.verified",
			Entity:    "project",
			EntityID:  projectID,
			Actors:    map[string]string{"issuer": project.Issuer, "owner": caller},
			Amounts:   map[string]int64{"actual_reduction_tons": actualReductionTons},
		}, s.ledger.Now()))
		return nil
	})
}

// IssueCertificate mints a certificate against a project's remaining
// balance. The balance decrements across issuances; a project can never
// issue more than its verified actual reduction in total.
func (s *Service) IssueCertificate(projectID int64, req registry.IssueRequest) (int64, error) {
	var id int64
	err := s.ledger.Run(func() error {
		issuer, ok := s.issuers[req.Issuer]
		if !ok {
			return fmt.Errorf("%w: issuer %s", core.ErrNotFound, req.Issuer)
		}
		if !issuer.Verified || !issuer.Active {
			return core.ErrNotPlatformVerified
		}
		project, ok := s.projects[projectID]
		if !ok {
			return fmt.Errorf("%w: project %d", core.ErrNotFound, projectID)
		}
		if project.Issuer != req.Issuer {
			return core.ErrNotIssuer
		}
		if !project.Verified {
			return core.ErrProjectNotVerified
		}
		if req.Amount > project.Remaining() {
			return fmt.Errorf("%w: %d requested, %d remaining", core.ErrProjectExhausted, req.Amount, project.Remaining())
		}
		if req.ProjectType == "" {
			req.ProjectType = project.ProjectType
		}
		if req.Location == "" {
			req.Location = project.Location
		}
		if req.Methodology == "" {
			req.Methodology = project.Methodology
		}
		var err error
		id, err = s.registry.IssueLocked(req)
		if err != nil {
			return err
		}
		project.IssuedTons += req.Amount
		issuer.IssuedTons += req.Amount
		return nil
	})
	return id, err
}

// GetIssuer returns a copy of an issuer record.
func (s *Service) GetIssuer(identity string) (Issuer, error) {
	var issuer Issuer
	var err error
	s.ledger.View(func() {
		stored, ok := s.issuers[identity]
		if !ok {
			err = fmt.Errorf("%w: issuer %s", core.ErrNotFound, identity)
			return
		}
		issuer = *stored
	})
	return issuer, err
}

// GetProject returns a copy of a project record.
func (s *Service) GetProject(projectID int64) (Project, error) {
	var project Project
	var err error
	s.ledger.View(func() {
		stored, ok := s.projects[projectID]
		if !ok {
			err = fmt.Errorf("%w: project %d", core.ErrNotFound, projectID)
			return
		}
		project = *stored
	})
	return project, err
}
