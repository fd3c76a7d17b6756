package scheduler

import (
	"context"
	"time"

	"github.com/ikkim/provider-portal-backend/pkg/logger"
	"github.com/robfig/cron/v3"
)

// TokenPurger removes onboarding link tokens that can no longer be used.
type TokenPurger interface {
	DeleteStale(ctx context.Context, now time.Time) (int64, error)
}

// TokenPurgeScheduler 만료/폐기된 온보딩 링크 토큰 정리 스케줄러
type TokenPurgeScheduler struct {
	cron    *cron.Cron
	spec    string
	purger  TokenPurger
	timeout time.Duration
	now     func() time.Time
}

// NewTokenPurgeScheduler spec is a standard 5-field cron expression.
func NewTokenPurgeScheduler(purger TokenPurger, spec string) *TokenPurgeScheduler {
	return &TokenPurgeScheduler{
		cron:    cron.New(),
		spec:    spec,
		purger:  purger,
		timeout: time.Minute,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Start 스케줄러 시작
func (s *TokenPurgeScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce() }); err != nil {
		logger.Error("Failed to add cron job for token purge", err, map[string]interface{}{
			"spec": s.spec,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Token purge scheduler started", map[string]interface{}{
		"spec": s.spec,
	})
	return nil
}

// RunOnce purges stale tokens and returns how many rows were removed.
func (s *TokenPurgeScheduler) RunOnce() int64 {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	deleted, err := s.purger.DeleteStale(ctx, s.now())
	if err != nil {
		logger.Error("Failed to purge onboarding tokens", err, nil)
		return 0
	}

	logger.Info("Purged onboarding tokens", map[string]interface{}{
		"deleted": deleted,
	})
	return deleted
}

// Stop 스케줄러 중지. 실행 중인 작업이 끝날 때까지 기다린다.
func (s *TokenPurgeScheduler) Stop() {
	logger.Info("Stopping token purge scheduler...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Token purge scheduler stopped", nil)
}
