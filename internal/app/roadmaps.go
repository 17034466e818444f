package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/muhammadolammi/careerpath/internal/database"
	"github.com/muhammadolammi/careerpath/internal/events"
	"github.com/muhammadolammi/careerpath/internal/generation"
)

type SavedRoadmap struct {
	ID        uuid.UUID              `json:"id"`
	Role      string                 `json:"role"`
	Plan      generation.RoadmapPlan `json:"plan"`
	CreatedAt time.Time              `json:"created_at"`
}

func toSavedRoadmap(r database.Roadmap) (SavedRoadmap, error) {
	var plan generation.RoadmapPlan
	if err := json.Unmarshal(r.Plan, &plan); err != nil {
		return SavedRoadmap{}, fmt.Errorf("decode roadmap %s: %w", r.ID, err)
	}
	return SavedRoadmap{ID: r.ID, Role: r.Role, Plan: plan, CreatedAt: r.CreatedAt}, nil
}

// GenerateRoadmap asks the model for a plan towards goal and saves it. A
// response that is not a usable plan fails with generation.ErrMalformedResponse.
func (s *Service) GenerateRoadmap(ctx context.Context, userID, goal string) (SavedRoadmap, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	result, err := generation.Run(ctx, s.model, generation.RoadmapRequest, goal)
	s.countResult(generation.RoadmapRequest, result)
	if err != nil {
		return SavedRoadmap{}, err
	}
	plan := *result.Roadmap
	if plan.RoleTitle == "" {
		plan.RoleTitle = strings.TrimSpace(goal)
	}
	return s.saveRoadmap(ctx, userID, plan)
}

func (s *Service) saveRoadmap(ctx context.Context, userID string, plan generation.RoadmapPlan) (SavedRoadmap, error) {
	body, err := json.Marshal(plan)
	if err != nil {
		return SavedRoadmap{}, err
	}
	row, err := s.store.CreateRoadmap(ctx, database.CreateRoadmapParams{
		ID:     uuid.New(),
		UserID: userID,
		Role:   plan.RoleTitle,
		Plan:   body,
	})
	if err != nil {
		return SavedRoadmap{}, err
	}
	saved, err := toSavedRoadmap(row)
	if err != nil {
		return SavedRoadmap{}, err
	}
	s.publish(ctx, events.Update{
		Kind:    events.KindRoadmap,
		UserID:  userID,
		Status:  "created",
		Message: "Generated roadmap for " + plan.RoleTitle,
		Payload: marshalPayload(saved),
	})
	return saved, nil
}

func (s *Service) ListRoadmaps(ctx context.Context, userID string) ([]SavedRoadmap, error) {
	rows, err := s.store.ListRoadmaps(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]SavedRoadmap, 0, len(rows))
	for _, r := range rows {
		saved, err := toSavedRoadmap(r)
		if err != nil {
			return nil, err
		}
		out = append(out, saved)
	}
	return out, nil
}

func (s *Service) DeleteRoadmap(ctx context.Context, userID string, id uuid.UUID) error {
	n, err := s.store.DeleteRoadmap(ctx, database.DeleteRoadmapParams{ID: id, UserID: userID})
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("roadmap %s: %w", id, ErrNotFound)
	}
	return nil
}
