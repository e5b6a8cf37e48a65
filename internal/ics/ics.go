// Package ics renders a calendar type as an iCalendar subscription feed, using the
// same payloads that are pushed to the remote calendar.
package ics

import (
	"context"
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/preston-bernstein/fixture-calendar-service/internal/domain/calendars"
	"github.com/preston-bernstein/fixture-calendar-service/internal/domain/games"
	"github.com/preston-bernstein/fixture-calendar-service/internal/format"
	"github.com/preston-bernstein/fixture-calendar-service/internal/reconcile"
)

const (
	productID   = "-//fixture-calendar-service//EN"
	uidDomain   = "fixture-calendar"
	gameIDProp  = "X-FIXTURE-GAME-ID"
	saleTrigger = "-PT15M"
)

// Exporter builds feeds from the game repository.
type Exporter struct {
	repo      reconcile.GameRepository
	formatter format.Formatter
	now       func() time.Time
}

// NewExporter returns an exporter reading from repo.
func NewExporter(repo reconcile.GameRepository, formatter format.Formatter) *Exporter {
	return &Exporter{repo: repo, formatter: formatter, now: time.Now}
}

// Export loads the games for typ and serializes them.
func (e *Exporter) Export(ctx context.Context, typ calendars.Type) (string, error) {
	gs, err := e.repo.LoadRelevant(ctx, typ)
	if err != nil {
		return "", fmt.Errorf("load games for %s: %w", typ, err)
	}
	return Build(e.formatter, typ, gs, e.now()), nil
}

// Build renders games as an iCalendar document. Games without a date for typ are
// skipped. stamp is used as DTSTAMP on every event.
func Build(f format.Formatter, typ calendars.Type, gs []games.Game, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ical.MethodPublish)
	cal.SetName(typ.Label())

	for _, g := range gs {
		payload, ok := f.Format(typ, g)
		if !ok {
			continue
		}
		ev := cal.AddEvent(fmt.Sprintf("%s-%s@%s", typ, payload.GameID, uidDomain))
		ev.SetDtStampTime(stamp)
		ev.SetSummary(payload.Title)
		ev.SetDescription(payload.Description)
		ev.SetStartAt(payload.Start)
		ev.SetEndAt(payload.End)
		ev.SetProperty(gameIDProp, payload.GameID)
		if typ.IsSale() {
			ev.SetTimeTransparency(ical.TransparencyTransparent)
			alarm := ev.AddAlarm()
			alarm.SetAction(ical.ActionDisplay)
			alarm.SetDescription(payload.Title)
			alarm.SetTrigger(saleTrigger)
		}
	}
	return cal.Serialize()
}
