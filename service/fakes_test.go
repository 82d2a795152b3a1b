package service

import (
	"context"
	"sync"

	"ragcompare-backend/models"
)

type fakeGenerator struct {
	mu      sync.Mutex
	resp    models.ModelResponse
	err     error
	prompts []string
}

func (g *fakeGenerator) Invoke(_ context.Context, prompt string) (models.ModelResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.prompts = append(g.prompts, prompt)
	return g.resp, g.err
}

type fakeRetriever struct {
	mu    sync.Mutex
	docs  []models.Document
	err   error
	calls int
}

func (r *fakeRetriever) Retrieve(_ context.Context, _ string) ([]models.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.docs, r.err
}

type fakeScorer struct {
	mu     sync.Mutex
	scores map[models.Metric]float64
	errs   map[models.Metric]error
	panics map[models.Metric]bool
	calls  []models.Metric
	seen   []models.Sample
}

func (s *fakeScorer) Score(_ context.Context, metric models.Metric, sample models.Sample) (float64, error) {
	s.mu.Lock()
	s.calls = append(s.calls, metric)
	s.seen = append(s.seen, sample)
	s.mu.Unlock()

	if s.panics[metric] {
		panic("scoring backend exploded")
	}
	if err := s.errs[metric]; err != nil {
		return 0, err
	}
	return s.scores[metric], nil
}

func doc(content, source string, page interface{}) models.Document {
	metadata := map[string]interface{}{}
	if source != "" {
		metadata[models.MetaSource] = source
	}
	if page != nil {
		metadata[models.MetaPage] = page
	}
	return models.Document{Content: content, Metadata: metadata}
}
