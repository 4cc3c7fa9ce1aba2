package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/clubcal/clubcal/pkg/view"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

// Scheduler periodically writes the current month poster into a directory.
type Scheduler struct {
	exporter  *Exporter
	outputDir string
	cron      *cron.Cron
}

func NewScheduler(exporter *Exporter, schedule, outputDir string, loc *time.Location) (*Scheduler, error) {
	s := &Scheduler{
		exporter:  exporter,
		outputDir: outputDir,
		cron:      cron.New(cron.WithLocation(loc)),
	}
	if _, err := s.cron.AddFunc(schedule, s.tick); err != nil {
		return nil, fmt.Errorf("invalid export schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
	log.Infof("scheduled exports enabled, writing to %s", s.outputDir)
}

// Stop waits for a running tick to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) tick() {
	if _, err := s.Run(context.Background()); err != nil {
		if errors.Is(err, ErrExportInProgress) {
			log.Info("skipping scheduled export, another export is running")
			return
		}
		log.Errorf("scheduled export failed: %v", err)
	}
}

// Run exports the current month and returns the written path.
func (s *Scheduler) Run(ctx context.Context) (string, error) {
	file, err := s.exporter.Export(ctx, Request{View: view.ViewMonth, Action: ActionDownload})
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	path := filepath.Join(s.outputDir, file.Filename)
	if err := os.WriteFile(path, file.Data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	log.Infof("scheduled export written to %s", path)
	return path, nil
}
