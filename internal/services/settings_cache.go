package services

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/tobiasceruttigothe/MyFinances/internal/client"
	"github.com/tobiasceruttigothe/MyFinances/internal/logger"
)

// fallbackSettingsSource always asks the user service first. The last
// settings it returned for each user are kept for ttl and served only while
// the user service cannot be reached.
type fallbackSettingsSource struct {
	src      SettingsSource
	lastGood *cache.Cache
}

// NewCachedSettingsSource wraps src with a last-known-good fallback. A ttl of
// zero or less disables the fallback and returns src unchanged.
func NewCachedSettingsSource(src SettingsSource, ttl time.Duration) SettingsSource {
	if ttl <= 0 {
		return src
	}
	return &fallbackSettingsSource{
		src:      src,
		lastGood: cache.New(ttl, 2*ttl),
	}
}

func (f *fallbackSettingsSource) Settings(ctx context.Context, userID string) (*client.RemoteSettings, error) {
	settings, err := f.src.Settings(ctx, userID)
	if err == nil {
		f.lastGood.Set(userID, settings, cache.DefaultExpiration)
		return settings, nil
	}

	if v, ok := f.lastGood.Get(userID); ok {
		logger.Get().Warnw("user service unavailable, using last known settings",
			"user_id", userID,
			"error", err,
		)
		return v.(*client.RemoteSettings), nil
	}
	return nil, err
}
