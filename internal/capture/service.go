package capture

import (
	"context"
	"time"

	"github.com/aevon-lab/epcis-repository/internal/core/storage"
	"github.com/gin-gonic/gin"
)

// Interner resolves vocabulary URIs to their interned ids.
type Interner interface {
	InternOrLookup(ctx context.Context, vocType, uri string) (int64, error)
	InternOptional(ctx context.Context, vocType, uri string) (*int64, error)
}

type Service struct {
	interner         Interner
	events           storage.EventStore
	vocab            storage.VocabularyStore
	maxBodySizeBytes int
	now              func() time.Time
}

func NewService(interner Interner, events storage.EventStore, vocab storage.VocabularyStore, maxBodySizeMB int) *Service {
	if interner == nil {
		panic("capture: interner must not be nil")
	}
	if events == nil {
		panic("capture: event store must not be nil")
	}
	if vocab == nil {
		panic("capture: vocabulary store must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		interner:         interner,
		events:           events,
		vocab:            vocab,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
		now:              time.Now,
	}
}

// RegisterRoutes registers the capture routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/capture", s.CaptureHandler)
	r.POST("/v1/capture/masterdata", s.MasterDataHandler)
}
