package rag

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/veridianlabs/lexrag/internal/llm"
	"github.com/veridianlabs/lexrag/internal/observability"
	"github.com/veridianlabs/lexrag/internal/vectorstore"
)

// NoContextAnswer is returned when retrieval finds nothing. The chat model
// is never invoked in that case.
const NoContextAnswer = "No context found"

// Answer is a complete non-streaming response.
type Answer struct {
	Answer   string                    `json:"answer"`
	Contexts []vectorstore.ScoredChunk `json:"contexts"`
}

// EmitFunc receives one staged event. Returning an error stops the stream.
type EmitFunc func(StagedEvent) error

// Service runs the query path: retrieve, optionally rerank, generate.
type Service struct {
	retriever  *Retriever
	chat       llm.Provider
	reranker   Reranker
	rerankTopN int
	logger     *slog.Logger
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithReranker enables the optional rerank pass, keeping topN results.
func WithReranker(r Reranker, topN int) ServiceOption {
	return func(s *Service) {
		s.reranker = r
		if topN > 0 {
			s.rerankTopN = topN
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// NewService creates the query service.
func NewService(retriever *Retriever, chat llm.Provider, opts ...ServiceOption) *Service {
	s := &Service{
		retriever:  retriever,
		chat:       chat,
		rerankTopN: 5,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask answers a question in one shot. With an empty retrieval the sentinel
// answer is returned and the model is not called.
func (s *Service) Ask(ctx context.Context, req *AskRequest) (*Answer, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	ctx, span := observability.StartQuerySpan(ctx, req.K, req.Rerank, false)
	defer span.End()

	contexts, err := s.prepareContexts(ctx, req)
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	observability.RecordRetrieval(span, len(contexts))
	if len(contexts) == 0 {
		s.logger.Info("retrieval empty", "query_len", len(req.Query))
		return &Answer{Answer: NoContextAnswer, Contexts: nil}, nil
	}

	start := time.Now()
	resp, err := s.chat.Complete(ctx, buildPrompt(req.Query, contexts, req.Language), &llm.RequestOptions{
		Temperature: req.Temperature,
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, fmt.Errorf("generating answer: %w", err)
	}
	observability.RecordGeneration(span, resp.InputTokens, resp.OutputTokens, time.Since(start))

	return &Answer{
		Answer:   llm.StripThinkingTags(resp.Content),
		Contexts: contexts,
	}, nil
}

// AskStream answers a question as a staged event stream: zero or more token
// events in model arrival order, then exactly one end event carrying the
// full answer and the contexts. With an empty retrieval a single end event
// carries the sentinel answer and no contexts. Cancelling ctx (a dropped
// caller) stops emission promptly; reads have no state to roll back.
func (s *Service) AskStream(ctx context.Context, req *AskRequest, emit EmitFunc) error {
	if err := req.Validate(); err != nil {
		return err
	}
	ctx, span := observability.StartQuerySpan(ctx, req.K, req.Rerank, true)
	defer span.End()

	contexts, err := s.prepareContexts(ctx, req)
	if err != nil {
		observability.RecordError(span, err)
		return err
	}
	observability.RecordRetrieval(span, len(contexts))
	if len(contexts) == 0 {
		s.logger.Info("retrieval empty", "query_len", len(req.Query))
		return emit(StagedEvent{Stage: StageEnd, Data: NoContextAnswer})
	}

	// A consumer that stops accepting events cancels the model stream.
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var emitErr error
	start := time.Now()
	resp, err := s.chat.Stream(streamCtx, buildPrompt(req.Query, contexts, req.Language), &llm.RequestOptions{
		Temperature: req.Temperature,
	}, func(text string) {
		if emitErr != nil {
			return
		}
		if emitErr = emit(StagedEvent{Stage: StageToken, Data: text}); emitErr != nil {
			cancel()
		}
	})
	if emitErr != nil {
		return emitErr
	}
	if err != nil {
		observability.RecordError(span, err)
		return fmt.Errorf("streaming answer: %w", err)
	}
	observability.RecordGeneration(span, resp.InputTokens, resp.OutputTokens, time.Since(start))

	return emit(StagedEvent{
		Stage:    StageEnd,
		Data:     llm.StripThinkingTags(resp.Content),
		Contexts: contexts,
	})
}

// prepareContexts retrieves and, when requested, reranks.
func (s *Service) prepareContexts(ctx context.Context, req *AskRequest) ([]vectorstore.ScoredChunk, error) {
	contexts, err := s.retriever.Retrieve(ctx, req.Query, req.K)
	if err != nil {
		return nil, err
	}
	if !req.Rerank || len(contexts) == 0 {
		return contexts, nil
	}
	if s.reranker == nil {
		return nil, fmt.Errorf("rerank requested but no reranker is configured")
	}
	rctx, span := observability.StartRerankSpan(ctx, len(contexts), s.rerankTopN)
	reranked, err := s.reranker.Rerank(rctx, req.Query, contexts, s.rerankTopN)
	if err != nil {
		observability.RecordError(span, err)
		span.End()
		return nil, fmt.Errorf("reranking: %w", err)
	}
	span.End()
	s.logger.Debug("reranked contexts", "in", len(contexts), "out", len(reranked))
	return reranked, nil
}
