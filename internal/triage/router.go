package triage

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/BruksfildServices01/clinic-scheduler/internal/audit"
	"github.com/BruksfildServices01/clinic-scheduler/internal/httperr"
	"github.com/BruksfildServices01/clinic-scheduler/internal/logger"
	"github.com/BruksfildServices01/clinic-scheduler/internal/observability/metrics"
	usecase "github.com/BruksfildServices01/clinic-scheduler/internal/usecase/appointment"
)

const (
	EscalationMessage = "If you are experiencing severe pain, bleeding, or trauma, please contact us immediately."
	SuggestionMessage = "Based on your description, here is the earliest available slot."
	NoSlotMessage     = "Based on your description, no slot is free in the coming days. Please pick a provider manually."
)

type Suggester interface {
	Execute(ctx context.Context, specialization string, horizonDays int) (*usecase.Suggestion, error)
}

type Result struct {
	Classification
	Escalated  bool                `json:"escalated"`
	Message    string              `json:"message"`
	Suggestion *usecase.Suggestion `json:"suggestion,omitempty"`
}

type Router struct {
	classifier  Classifier
	suggester   Suggester
	horizonDays int

	audit   *audit.Dispatcher
	metrics *metrics.SchedulingMetrics
	log     *zap.Logger
}

func NewRouter(
	classifier Classifier,
	suggester Suggester,
	horizonDays int,
	dispatcher *audit.Dispatcher,
	m *metrics.SchedulingMetrics,
	log *zap.Logger,
) *Router {
	return &Router{
		classifier:  classifier,
		suggester:   suggester,
		horizonDays: horizonDays,
		audit:       dispatcher,
		metrics:     m,
		log:         logger.OrNop(log),
	}
}

// Route classifies one turn. An urgent classification always escalates and
// never carries a suggestion, whatever the earlier turns said.
func (r *Router) Route(
	ctx context.Context,
	patientID string,
	text string,
	priorTurns []string,
) (Result, error) {

	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, httperr.ErrValidation("text is required")
	}

	c, err := r.classifier.Classify(ctx, text, priorTurns)
	if err != nil {
		r.log.Error("triage classification failed", zap.Error(err))
		return Result{}, err
	}
	if !c.Urgency.Valid() {
		c.Urgency = UrgencyRoutine
	}

	if c.Urgency == UrgencyUrgent {
		r.metrics.ObserveTriage(string(c.Urgency), true)
		r.audit.Dispatch(audit.Event{
			ActorID:  patientID,
			Action:   audit.ActionEscalated,
			Entity:   "triage",
			Metadata: map[string]any{"specialization": c.SuggestedSpecialization},
		})
		r.log.Info("triage escalated", zap.String("patient_id", patientID))

		return Result{
			Classification: c,
			Escalated:      true,
			Message:        EscalationMessage,
		}, nil
	}

	r.metrics.ObserveTriage(string(c.Urgency), false)

	s, err := r.suggester.Execute(ctx, c.SuggestedSpecialization, r.horizonDays)
	if err != nil {
		return Result{}, err
	}

	res := Result{Classification: c, Suggestion: s, Message: SuggestionMessage}
	if s == nil {
		res.Message = NoSlotMessage
	}
	return res, nil
}
