package broker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/MikeSquared-Agency/Arbiter/internal/analysis"
	"github.com/MikeSquared-Agency/Arbiter/internal/config"
	"github.com/MikeSquared-Agency/Arbiter/internal/hermes"
	"github.com/MikeSquared-Agency/Arbiter/internal/metrics"
	"github.com/MikeSquared-Agency/Arbiter/internal/store"
	"github.com/MikeSquared-Agency/Arbiter/internal/telemetry"
)

// ErrDecisionNotFound is returned when the requested decision does not exist.
var ErrDecisionNotFound = errors.New("decision not found")

// Broker runs engine analyses against stored decisions and records the
// outcome. It is shared by the HTTP API and the NATS subscriptions.
type Broker struct {
	store         store.Store
	hermes        hermes.Client
	engine        *analysis.Engine
	metrics       *metrics.Metrics
	tracer        trace.Tracer
	defaultMethod analysis.Method
	logger        *slog.Logger
}

func New(s store.Store, h hermes.Client, m *metrics.Metrics, cfg *config.Config, logger *slog.Logger) (*Broker, error) {
	engine, err := analysis.NewEngine(cfg.AnalysisOptions(), logger.With("component", "engine"))
	if err != nil {
		return nil, err
	}
	return &Broker{
		store:         s,
		hermes:        h,
		engine:        engine,
		metrics:       m,
		tracer:        telemetry.Tracer("github.com/MikeSquared-Agency/Arbiter/internal/broker"),
		defaultMethod: cfg.DefaultMethod(),
		logger:        logger,
	}, nil
}

// Engine exposes the configured engine for stateless use.
func (b *Broker) Engine() *analysis.Engine {
	return b.engine
}

// DefaultMethod is used when a request names no method.
func (b *Broker) DefaultMethod() analysis.Method {
	return b.defaultMethod
}

// Analyze runs method against the stored decision, saves the result and
// marks the decision analyzed.
func (b *Broker) Analyze(ctx context.Context, decisionID uuid.UUID, method analysis.Method) (*store.AnalysisRecord, error) {
	method, err := b.resolveMethod(method)
	if err != nil {
		return nil, err
	}
	rec, err := b.loadDecision(ctx, decisionID)
	if err != nil {
		return nil, err
	}

	results, err := b.evaluate(ctx, rec, method)
	if err != nil {
		return nil, err
	}
	out, err := b.record(ctx, rec, results, hermes.SubjectDecisionAnalyzed)
	if err != nil {
		return nil, err
	}
	b.markAnalyzed(ctx, rec)
	return out, nil
}

// AnalyzeInline analyzes a decision that is not stored.
func (b *Broker) AnalyzeInline(ctx context.Context, d *analysis.Decision, method analysis.Method) (*analysis.AnalysisResults, error) {
	method, err := b.resolveMethod(method)
	if err != nil {
		return nil, err
	}
	ctx, span := b.tracer.Start(ctx, "broker.AnalyzeInline",
		trace.WithAttributes(attribute.String("analysis.method", string(method))))
	defer span.End()

	start := time.Now()
	results, err := b.engine.Analyze(ctx, d, method)
	b.observe(span, method, start, results, err)
	return results, err
}

// MethodOutcome is one method's share of a comparison. Exactly one of
// Analysis and Error is set.
type MethodOutcome struct {
	Method           analysis.Method       `json:"method"`
	Analysis         *store.AnalysisRecord `json:"analysis,omitempty"`
	Error            string                `json:"error,omitempty"`
	ConsistencyRatio *float64              `json:"consistency_ratio,omitempty"`
}

// Comparison reports every method side by side.
type Comparison struct {
	DecisionID uuid.UUID       `json:"decision_id"`
	Outcomes   []MethodOutcome `json:"outcomes"`
	// Agreement is true when every successful method picks the same top option.
	Agreement bool `json:"agreement"`
}

// Compare runs every method concurrently. Engine rejections such as
// inconsistent AHP judgments are reported per method; storage failures
// abort the comparison.
func (b *Broker) Compare(ctx context.Context, decisionID uuid.UUID) (*Comparison, error) {
	rec, err := b.loadDecision(ctx, decisionID)
	if err != nil {
		return nil, err
	}

	methods := analysis.Methods()
	outcomes := make([]MethodOutcome, len(methods))
	g, gctx := errgroup.WithContext(ctx)
	for i, m := range methods {
		i, m := i, m
		g.Go(func() error {
			outcomes[i].Method = m
			results, err := b.evaluate(gctx, rec, m)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				outcomes[i].Error = err.Error()
				var ij *analysis.InconsistentJudgmentsError
				if errors.As(err, &ij) {
					cr := ij.Ratio
					outcomes[i].ConsistencyRatio = &cr
				}
				return nil
			}
			saved, err := b.record(gctx, rec, results, hermes.SubjectDecisionAnalyzed)
			if err != nil {
				return err
			}
			outcomes[i].Analysis = saved
			outcomes[i].ConsistencyRatio = results.ConsistencyRatio
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b.markAnalyzed(ctx, rec)
	return &Comparison{
		DecisionID: decisionID,
		Outcomes:   outcomes,
		Agreement:  agreement(outcomes),
	}, nil
}

// Rerank re-scores the latest AHP analysis under new criteria weights
// without re-deriving priorities.
func (b *Broker) Rerank(ctx context.Context, decisionID uuid.UUID, weights analysis.Weights) (*store.AnalysisRecord, error) {
	rec, err := b.loadDecision(ctx, decisionID)
	if err != nil {
		return nil, err
	}
	prior, err := b.store.GetLatestAnalysis(ctx, decisionID, analysis.MethodAHP)
	if err != nil {
		return nil, fmt.Errorf("load ahp analysis: %w", err)
	}
	if prior == nil || prior.Results.AHP == nil {
		return nil, fmt.Errorf("%w: decision has no AHP analysis to rerank", analysis.ErrInsufficientData)
	}

	ctx, span := b.tracer.Start(ctx, "broker.Rerank",
		trace.WithAttributes(attribute.String("decision.id", decisionID.String())))
	defer span.End()

	start := time.Now()
	results, err := b.engine.Rerank(ctx, &rec.Snapshot, prior.Results.AHP, weights)
	b.observe(span, analysis.MethodAHP, start, results, err)
	if err != nil {
		return nil, err
	}
	return b.record(ctx, rec, results, hermes.SubjectDecisionReranked)
}

// SetupSubscriptions registers NATS subscriptions for analysis requests.
func (b *Broker) SetupSubscriptions() {
	if b.hermes == nil {
		return
	}

	err := b.hermes.Subscribe(hermes.SubjectAnalyzeRequest, func(_ string, data []byte) {
		var req hermes.AnalyzeRequestEvent
		if err := json.Unmarshal(data, &req); err != nil {
			b.logger.Warn("invalid analyze request event", "error", err)
			return
		}
		b.handleAnalyzeRequest(context.Background(), req)
	})
	if err != nil {
		b.logger.Error("failed to subscribe", "subject", hermes.SubjectAnalyzeRequest, "error", err)
	}
}

func (b *Broker) handleAnalyzeRequest(ctx context.Context, req hermes.AnalyzeRequestEvent) {
	id, err := uuid.Parse(req.DecisionID)
	if err != nil {
		b.logger.Warn("analyze request with invalid decision id", "decision_id", req.DecisionID)
		return
	}
	rec, err := b.Analyze(ctx, id, analysis.Method(req.Method))
	if err != nil {
		b.logger.Warn("analyze request failed", "decision_id", id, "method", req.Method, "source", req.Source, "error", err)
		return
	}
	b.logger.Info("analysis completed from NATS request", "decision_id", id, "method", rec.Method, "top_option", rec.TopOptionID)
}

func (b *Broker) resolveMethod(m analysis.Method) (analysis.Method, error) {
	if m == "" {
		return b.defaultMethod, nil
	}
	return analysis.ParseMethod(string(m))
}

func (b *Broker) loadDecision(ctx context.Context, id uuid.UUID) (*store.DecisionRecord, error) {
	rec, err := b.store.GetDecision(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load decision: %w", err)
	}
	if rec == nil {
		return nil, ErrDecisionNotFound
	}
	return rec, nil
}

// evaluate runs the engine under a span and reports failures on the bus.
func (b *Broker) evaluate(ctx context.Context, rec *store.DecisionRecord, method analysis.Method) (*analysis.AnalysisResults, error) {
	ctx, span := b.tracer.Start(ctx, "broker.Analyze",
		trace.WithAttributes(
			attribute.String("decision.id", rec.ID.String()),
			attribute.String("analysis.method", string(method)),
			attribute.Int("decision.options", len(rec.Snapshot.Options)),
			attribute.Int("decision.criteria", len(rec.Snapshot.Criteria)),
		))
	defer span.End()

	start := time.Now()
	results, err := b.engine.Analyze(ctx, &rec.Snapshot, method)
	b.observe(span, method, start, results, err)
	if err != nil {
		evt := hermes.AnalysisFailedEvent{
			DecisionID: rec.ID.String(),
			Method:     string(method),
			Error:      err.Error(),
		}
		var ij *analysis.InconsistentJudgmentsError
		if errors.As(err, &ij) {
			cr := ij.Ratio
			evt.ConsistencyRatio = &cr
		}
		b.publish(hermes.SubjectAnalysisFailed(rec.ID.String()), evt)
		b.logger.Info("analysis rejected", "decision_id", rec.ID, "method", method, "error", err)
		return nil, err
	}
	return results, nil
}

func (b *Broker) observe(span trace.Span, method analysis.Method, start time.Time, results *analysis.AnalysisResults, err error) {
	elapsed := time.Since(start)
	if err != nil {
		outcome := metrics.OutcomeError
		var ij *analysis.InconsistentJudgmentsError
		if errors.As(err, &ij) {
			outcome = metrics.OutcomeInconsistent
			b.metrics.ObserveConsistency(ij.Ratio)
			span.SetAttributes(attribute.Float64("analysis.consistency_ratio", ij.Ratio))
		}
		b.metrics.ObserveRun(method, outcome, elapsed)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}

	b.metrics.ObserveRun(method, metrics.OutcomeOK, elapsed)
	b.metrics.ObserveResults(results)
	span.SetAttributes(
		attribute.Float64("analysis.confidence", results.Confidence),
		attribute.Float64("analysis.stability_index", results.Sensitivity.StabilityIndex),
	)
	if top := results.Top(); top != nil {
		span.SetAttributes(attribute.String("analysis.top_option", top.OptionID))
	}
}

// record persists results and announces them on subject.
func (b *Broker) record(ctx context.Context, rec *store.DecisionRecord, results *analysis.AnalysisResults, subject func(string) string) (*store.AnalysisRecord, error) {
	out := store.NewAnalysisRecord(rec.ID, results)
	if err := b.store.SaveAnalysis(ctx, out); err != nil {
		return nil, fmt.Errorf("save analysis: %w", err)
	}

	b.publish(subject(rec.ID.String()), hermes.AnalysisCompletedEvent{
		DecisionID:       rec.ID.String(),
		AnalysisID:       out.ID.String(),
		Method:           string(out.Method),
		TopOptionID:      out.TopOptionID,
		Confidence:       out.Confidence,
		StabilityIndex:   results.Sensitivity.StabilityIndex,
		CriticalCriteria: results.Sensitivity.CriticalCriteria,
		ConsistencyRatio: results.ConsistencyRatio,
		CompletedAt:      out.CreatedAt,
	})
	b.logger.Info("analysis recorded",
		"decision_id", rec.ID,
		"analysis_id", out.ID,
		"method", out.Method,
		"top_option", out.TopOptionID,
		"confidence", out.Confidence,
	)
	return out, nil
}

func (b *Broker) markAnalyzed(ctx context.Context, rec *store.DecisionRecord) {
	if rec.Status == store.StatusAnalyzed || rec.Status == store.StatusArchived {
		return
	}
	rec.Status = store.StatusAnalyzed
	if err := b.store.UpdateDecision(ctx, rec); err != nil {
		b.logger.Warn("failed to mark decision analyzed", "decision_id", rec.ID, "error", err)
		return
	}
	b.publish(hermes.SubjectDecisionUpdated(rec.ID.String()), hermes.DecisionUpdatedEvent{
		DecisionID: rec.ID.String(),
		Status:     string(rec.Status),
	})
}

func (b *Broker) publish(subject string, evt interface{}) {
	if b.hermes == nil {
		return
	}
	if err := b.hermes.Publish(subject, evt); err != nil {
		b.logger.Warn("failed to publish event", "subject", subject, "error", err)
	}
}

func agreement(outcomes []MethodOutcome) bool {
	top := ""
	for _, o := range outcomes {
		if o.Analysis == nil || o.Analysis.TopOptionID == "" {
			continue
		}
		if top == "" {
			top = o.Analysis.TopOptionID
		} else if top != o.Analysis.TopOptionID {
			return false
		}
	}
	return top != ""
}
