//go:build !linux

package app

import (
	"context"

	logx "milbot/pkg/logx"
)

func notifyReady(logx.Logger)    {}
func notifyStopping(logx.Logger) {}

func watchdogTask() func(ctx context.Context) error {
	return func(context.Context) error { return nil }
}
