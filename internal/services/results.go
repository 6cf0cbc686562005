package services

import (
	"context"

	"github.com/joshuadwray/audition-scoring/internal/logger"
	"github.com/joshuadwray/audition-scoring/internal/models"
	"github.com/joshuadwray/audition-scoring/internal/scoring"
)

// ResultsServiceRepository defines the repository methods needed by ResultsService
type ResultsServiceRepository interface {
	GetSession(ctx context.Context, id string) (*models.Session, error)
	GetMaterial(ctx context.Context, id string) (*models.Material, error)
	ListMaterials(ctx context.Context, sessionID string) ([]models.Material, error)
	ListDancers(ctx context.Context, sessionID string) ([]models.Dancer, error)
	ListGroups(ctx context.Context, f models.GroupFilter) ([]models.DancerGroup, error)
	ListScores(ctx context.Context, f models.ScoreFilter) ([]models.Score, error)
}

// Result modes
const (
	ModeMaterial   = "material"
	ModeAggregated = "aggregated"
)

// ResultSet is a ranked result for a session. Exactly one of Dancers and
// Aggregated is populated, according to Mode.
type ResultSet struct {
	Session    *models.Session                  `json:"session"`
	Mode       string                           `json:"mode"`
	Material   *models.Material                 `json:"material,omitempty"`
	Dancers    []scoring.DancerResult           `json:"dancers,omitempty"`
	Aggregated []scoring.AggregatedDancerResult `json:"aggregated,omitempty"`
}

// ResultsService computes rankings on demand from persisted scores
type ResultsService struct {
	log  logger.Logger
	repo ResultsServiceRepository
}

// NewResultsService creates a new ResultsService
func NewResultsService(log logger.Logger, repo ResultsServiceRepository) *ResultsService {
	return &ResultsService{log: log, repo: repo}
}

// GetResults ranks a session's dancers. With a material ID only that
// material's scores count; otherwise scores are rolled up across materials.
// Archived and retracted instances still contribute whatever scores they kept.
func (s *ResultsService) GetResults(ctx context.Context, sessionID, materialID string) (*ResultSet, error) {
	session, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		return nil, notFound(err, "Session")
	}
	dancers, err := s.repo.ListDancers(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if materialID != "" {
		material, err := s.repo.GetMaterial(ctx, materialID)
		if err != nil || material.SessionID != sessionID {
			return nil, notFound(orNotFound(err), "Material")
		}
		scores, err := s.repo.ListScores(ctx, models.ScoreFilter{SessionID: sessionID, MaterialID: materialID})
		if err != nil {
			return nil, err
		}
		return &ResultSet{
			Session:  session,
			Mode:     ModeMaterial,
			Material: material,
			Dancers:  scoring.CalculateMaterialResults(dancers, scores),
		}, nil
	}

	groupMaterials, err := s.groupMaterials(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	scores, err := s.repo.ListScores(ctx, models.ScoreFilter{SessionID: sessionID})
	if err != nil {
		return nil, err
	}
	return &ResultSet{
		Session:    session,
		Mode:       ModeAggregated,
		Aggregated: scoring.CalculateAggregatedResults(dancers, scores, groupMaterials),
	}, nil
}

// groupMaterials maps every instance in the session, archived or not, to its material
func (s *ResultsService) groupMaterials(ctx context.Context, sessionID string) (map[string]scoring.MaterialRef, error) {
	materials, err := s.repo.ListMaterials(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(materials))
	for _, m := range materials {
		names[m.ID] = m.Name
	}

	groups, err := s.repo.ListGroups(ctx, models.GroupFilter{
		SessionID:       sessionID,
		Kind:            models.KindInstance,
		IncludeArchived: true,
	})
	if err != nil {
		return nil, err
	}

	refs := make(map[string]scoring.MaterialRef, len(groups))
	for _, g := range groups {
		if inst, ok := g.(*models.Instance); ok {
			refs[inst.ID] = scoring.MaterialRef{ID: inst.MaterialID, Name: names[inst.MaterialID]}
		}
	}
	return refs, nil
}
