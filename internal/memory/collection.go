package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
)

// SituationAdvice pairs a market situation with the recommendation that
// was made in it.
type SituationAdvice struct {
	Situation string `json:"situation"`
	Advice    string `json:"advice"`
}

// Match is one similarity-search hit.
type Match struct {
	Text       string  `json:"text"`
	Advice     string  `json:"advice"`
	Similarity float64 `json:"similarity"`
	Distance   float64 `json:"distance"`
}

type memoryRecord struct {
	id        string
	situation string
	advice    string
	vector    []float32
}

// Collection is an in-memory, non-persistent vector store of
// situation/advice pairs.
type Collection struct {
	name     string
	embedder Embedder

	mu      sync.RWMutex
	records []memoryRecord
}

// NewCollection builds an empty collection embedding through embedder.
func NewCollection(name string, embedder Embedder) *Collection {
	return &Collection{name: name, embedder: embedder}
}

// Name returns the collection name.
func (c *Collection) Name() string {
	return c.name
}

// Size returns the number of stored pairs.
func (c *Collection) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Add embeds and stores pairs. IDs are assigned from the collection size
// at insertion, so they are monotonically increasing decimal strings.
func (c *Collection) Add(ctx context.Context, pairs []SituationAdvice) error {
	if len(pairs) == 0 {
		return nil
	}

	vectors := make([][]float32, len(pairs))
	for i, pair := range pairs {
		vec, err := c.embedder.Embed(ctx, pair.Situation)
		if err != nil {
			return err
		}
		vectors[i] = vec
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, pair := range pairs {
		c.records = append(c.records, memoryRecord{
			id:        strconv.Itoa(len(c.records)),
			situation: pair.Situation,
			advice:    pair.Advice,
			vector:    vectors[i],
		})
	}
	return nil
}

// Query returns the k stored pairs most similar to text, most similar
// first. Sentinel-stored pairs never match, and a sentinel query, an empty
// collection, or a non-positive k returns an empty slice.
func (c *Collection) Query(ctx context.Context, text string, k int) ([]Match, error) {
	if k <= 0 {
		return []Match{}, nil
	}

	query, err := c.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if IsSentinel(query) {
		return []Match{}, nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	matches := make([]Match, 0, len(c.records))
	for _, rec := range c.records {
		if IsSentinel(rec.vector) {
			continue
		}
		sim, err := CosineSimilarity(query, rec.vector)
		if err != nil {
			continue
		}
		matches = append(matches, Match{
			Text:       rec.situation,
			Advice:     rec.advice,
			Similarity: sim,
			Distance:   1 - sim,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}
