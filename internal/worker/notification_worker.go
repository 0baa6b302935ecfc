package worker

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/deskflow/helpdesk/internal/events"
	"github.com/deskflow/helpdesk/internal/service"
)

// StartNotificationWorker registers notification handlers and drains the
// dispatcher until ctx is cancelled. The returned channel is closed once the
// dispatcher has stopped.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, dispatcher events.Dispatcher, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	if notificationService == nil || dispatcher == nil {
		close(done)
		return done
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	notificationService.RegisterHandlers()

	go func() {
		defer close(done)
		logger.Info("notification worker started")
		if err := dispatcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("notification worker stopped", zap.Error(err))
			return
		}
		logger.Info("notification worker stopped")
	}()
	return done
}
