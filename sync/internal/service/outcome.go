package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	inErrors "github.com/Alturino/commercesync/internal/errors"
	"github.com/Alturino/commercesync/internal/log"
)

// Outcome is how an event was handled when it did not fail.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeIgnored   Outcome = "ignored"
)

func isNotFound(err error) bool {
	return errors.Is(err, inErrors.ErrNotFound)
}

// invalidate drops cached reads derived from the written documents. A cache
// failure is logged and does not fail the sync, since a redelivery would be
// a no-op and never retry the invalidation.
func invalidate(c context.Context, cache CacheInvalidator, tags ...string) {
	logger := zerolog.Ctx(c).With().
		Str(log.KeyTag, "service invalidate").
		Strs(log.KeyCacheTags, tags).
		Logger()

	logger.Trace().Msg("invalidating cache tags")
	if err := cache.Invalidate(c, tags...); err != nil {
		logger.Error().Err(err).Msgf("failed invalidating cache tags with error=%s", err.Error())
		return
	}
	logger.Trace().Msg("invalidated cache tags")
}
