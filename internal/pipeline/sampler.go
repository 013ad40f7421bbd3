package pipeline

import (
	"math/rand"
	"sync"
	"time"
)

// Sampler decides probabilistic admission. Tests inject a deterministic one;
// production uses a seeded math/rand source.
type Sampler interface {
	Admit(p float64) bool
}

type randSampler struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newRandSampler() *randSampler {
	return &randSampler{r: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

func (s *randSampler) Admit(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.Float64() < p
}
