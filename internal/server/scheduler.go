package server

import (
	"context"

	"github.com/preston-bernstein/fixture-calendar-service/internal/domain/calendars"
	"github.com/preston-bernstein/fixture-calendar-service/internal/reconcile"
	"github.com/preston-bernstein/fixture-calendar-service/internal/scheduler"
)

// Scheduler defines the scheduler behavior needed by the server and its routes.
type Scheduler interface {
	Start(ctx context.Context)
	Stop(ctx context.Context) error
	Status() scheduler.Status
	Reports() map[calendars.Type]reconcile.Report
	Types() []calendars.Type
	RunAll(ctx context.Context) scheduler.Cycle
	RunType(ctx context.Context, typ calendars.Type) (reconcile.Report, error)
}
