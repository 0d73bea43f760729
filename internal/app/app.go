package app

import (
	"log/slog"

	"leancoffee/core/internal/config"
	http_init "leancoffee/core/internal/delivery/http/init"
	http_meeting "leancoffee/core/internal/delivery/http/meeting"
	ws_meeting "leancoffee/core/internal/delivery/ws/meeting"
	infra_statefile "leancoffee/core/internal/infra/statefile"
	"leancoffee/core/internal/model"
	usecase_meeting "leancoffee/core/internal/usecase/meeting"
	usecase_phase "leancoffee/core/internal/usecase/phase"
)

func Go(cfg *config.Config) {
	store := infra_statefile.New(cfg.Storage.StateFile)
	scheduler := usecase_phase.NewScheduler()
	hub := ws_meeting.NewHub()

	uc := usecase_meeting.New(store, scheduler, hub, usecase_meeting.Defaults{
		Durations: model.Durations{
			Create:  cfg.Phases.CreateMin,
			Voting:  cfg.Phases.VotingMin,
			Discuss: cfg.Phases.DiscussMin,
		},
		MaxVotes: cfg.Phases.MaxVotes,
	})

	// A broken state file should not keep the service down; it starts fresh
	// and overwrites on the next mutation.
	if err := uc.Restore(); err != nil {
		slog.Error("restore failed, starting empty", "error", err)
	}

	controllerPool := http_init.NewControllerPool()
	controllerPool.Add(http_meeting.New(uc))
	controllerPool.Add(ws_meeting.NewController(hub, uc))

	controllerPool.Register()
	controllerPool.RunAll(cfg.HTTP.Port)
}
