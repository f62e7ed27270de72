package api

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/samcharles93/primkit/internal/logger"
	"github.com/samcharles93/primkit/pkg/distance"
)

// DefaultMaxDatasets bounds the datasets kept in memory.
const DefaultMaxDatasets = 64

type dataset struct {
	info    DatasetInfo
	vectors []float32
	p       float32
}

// DatasetStore keeps uploaded vector sets for repeated KNN queries. The
// least recently used dataset is dropped once the store is full.
type DatasetStore struct {
	cache *lru.Cache[string, *dataset]
}

func NewDatasetStore(size int, log logger.Logger) (*DatasetStore, error) {
	if size <= 0 {
		size = DefaultMaxDatasets
	}
	if log == nil {
		log = logger.Nop()
	}
	cache, err := lru.NewWithEvict[string, *dataset](size, func(id string, _ *dataset) {
		log.Debug("dataset evicted", "id", id)
	})
	if err != nil {
		return nil, err
	}
	return &DatasetStore{cache: cache}, nil
}

func (s *DatasetStore) Create(vectors []float32, rows, dim int, metric distance.Metric, p float32, now time.Time) DatasetInfo {
	ds := &dataset{
		info: DatasetInfo{
			ID:        newDatasetID(),
			Object:    "dataset",
			Rows:      rows,
			Dim:       dim,
			Metric:    metric,
			CreatedAt: now.Unix(),
		},
		vectors: vectors,
		p:       p,
	}
	s.cache.Add(ds.info.ID, ds)
	return ds.info
}

func (s *DatasetStore) get(id string) (*dataset, bool) {
	return s.cache.Get(id)
}

func (s *DatasetStore) Get(id string) (DatasetInfo, bool) {
	ds, ok := s.cache.Get(id)
	if !ok {
		return DatasetInfo{}, false
	}
	return ds.info, true
}

func (s *DatasetStore) Delete(id string) bool {
	return s.cache.Remove(id)
}

// List returns the stored datasets, oldest use first.
func (s *DatasetStore) List() []DatasetInfo {
	keys := s.cache.Keys()
	out := make([]DatasetInfo, 0, len(keys))
	for _, id := range keys {
		if ds, ok := s.cache.Peek(id); ok {
			out = append(out, ds.info)
		}
	}
	return out
}

func (s *DatasetStore) Len() int { return s.cache.Len() }
