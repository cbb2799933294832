package controllers

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/galatadergisi/galata-backend/api/responses"
	"github.com/galatadergisi/galata-backend/pkg/config"
	pkgerrors "github.com/galatadergisi/galata-backend/pkg/errors"
	"github.com/galatadergisi/galata-backend/pkg/logger"
)

const readyTimeout = 2 * time.Second

// Pinger is any backing service the API needs to answer requests.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Galata-Env", cfg.App.Env)
		responses.WriteSuccess(w)
	}
}

// HealthReady pings every dependency at once and answers 503 naming all of
// the ones that failed.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Galata-Env", cfg.App.Env)

		down := pingAll(r.Context(), deps)
		if len(down) == 0 {
			responses.WriteSuccess(w)
			return
		}
		names := make([]string, 0, len(down))
		for name := range down {
			names = append(names, name)
		}
		sort.Strings(names)

		msg := strings.Join(names, ", ") + " unavailable"
		err := pkgerrors.Wrap(pkgerrors.CodeDependency, down[names[0]], msg).
			WithDetails(map[string]any{"step": "ready"})
		responses.WriteFailure(r.Context(), logg, w, http.StatusServiceUnavailable, err, msg)
	}
}

func pingAll(ctx context.Context, deps map[string]Pinger) map[string]error {
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	var (
		mu   sync.Mutex
		down = map[string]error{}
		g    errgroup.Group
	)
	for name, dep := range deps {
		g.Go(func() error {
			if err := dep.Ping(ctx); err != nil {
				mu.Lock()
				down[name] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return down
}
