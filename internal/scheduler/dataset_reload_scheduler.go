package scheduler

import (
	"context"
	"errors"
	"time"

	"github.com/ikkim/venue-backend/internal/app/service"
	"github.com/ikkim/venue-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

const reloadTimeout = 2 * time.Minute

// Reloader is the part of the query coordinator the scheduler drives.
type Reloader interface {
	Reload(ctx context.Context) error
}

// DatasetReloadScheduler 会場データの定期再読み込み
type DatasetReloadScheduler struct {
	cron     *cron.Cron
	spec     string
	reloader Reloader
}

func NewDatasetReloadScheduler(spec string, reloader Reloader) *DatasetReloadScheduler {
	return &DatasetReloadScheduler{
		cron:     cron.New(),
		spec:     spec,
		reloader: reloader,
	}
}

// Start registers the reload job. spec is a standard five-field cron
// expression.
func (s *DatasetReloadScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, s.runReload); err != nil {
		logger.Error("Failed to add cron job for dataset reload", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Dataset reload scheduler started", map[string]interface{}{
		"spec": s.spec,
	})
	return nil
}

func (s *DatasetReloadScheduler) runReload() {
	logger.Info("Starting scheduled dataset reload", nil)

	ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
	defer cancel()

	if err := s.reloader.Reload(ctx); err != nil {
		if errors.Is(err, service.ErrLoadSuperseded) {
			logger.Info("Scheduled reload superseded by a newer load", nil)
			return
		}
		logger.Error("Scheduled dataset reload failed", err)
		return
	}

	logger.Info("Scheduled dataset reload completed", nil)
}

// Stop waits for a running reload to finish.
func (s *DatasetReloadScheduler) Stop() {
	logger.Info("Stopping dataset reload scheduler...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Dataset reload scheduler stopped", nil)
}
