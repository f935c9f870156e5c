package devicestatus

import (
	"context"
	"time"

	"medibot-schedule/internal/ports/devicefeed"
)

const defaultReadTimeout = 5 * time.Second

// Service lee el estado del dispensador del feed externo.
// Solo lectura: este módulo existe para display, nunca escribe.
type Service struct {
	feed    devicefeed.Feed
	timeout time.Duration
}

func NewService(feed devicefeed.Feed) *Service {
	return &Service{
		feed:    feed,
		timeout: defaultReadTimeout,
	}
}

func (s *Service) Current(ctx context.Context) (Status, error) {
	opCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	raw, err := s.feed.Snapshot(opCtx)
	if err != nil {
		return Status{}, err
	}
	return fromReading(raw), nil
}
