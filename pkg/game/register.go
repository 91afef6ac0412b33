package game

import (
	"context"
	"log/slog"

	"github.com/jwebster45206/relic-hunt/pkg/profile"
	"github.com/jwebster45206/relic-hunt/pkg/scoreapi"
	"github.com/jwebster45206/relic-hunt/pkg/textfilter"
)

// Register creates and stores a fresh profile for nickname, then announces
// the player to the score API. API failures are logged and do not stop
// registration; api may be nil.
func Register(ctx context.Context, store ProfileStore, api scoreapi.API, nickname string, logger *slog.Logger) (*profile.Profile, error) {
	name, err := textfilter.CleanNickname(nickname)
	if err != nil {
		return nil, err
	}

	p := profile.New(name)
	if err := store.Save(ctx, p); err != nil {
		return nil, err
	}

	if api != nil {
		msg, err := api.CreatePlayer(ctx, p.ID, p.Nickname)
		if err != nil {
			logger.Warn("Failed to register player with score API", "player_id", p.ID, "error", err)
		} else {
			logger.Info("Player registered", "player_id", p.ID, "message", msg)
		}
	}
	return p, nil
}
