package reconcile

import (
	"context"
	"fmt"
	"iter"
	"sort"

	"github.com/preston-bernstein/fixture-calendar-service/internal/calendar"
	"github.com/preston-bernstein/fixture-calendar-service/internal/domain/calendars"
	"github.com/preston-bernstein/fixture-calendar-service/internal/domain/games"
	"github.com/preston-bernstein/fixture-calendar-service/internal/format"
)

// Plan is the full set of decisions for one calendar in one pass.
type Plan struct {
	Deletes   []Delete
	Updates   []Update
	Creates   []Create
	Unchanged []NoOp
	// Foreign counts remote events without a usable game reference; they are never touched.
	Foreign int
}

// Writes returns the decisions that need a remote call, in execution order:
// deletes first to free quota, then updates, then creates.
func (p Plan) Writes() []Decision {
	out := make([]Decision, 0, len(p.Deletes)+len(p.Updates)+len(p.Creates))
	for _, d := range p.Deletes {
		out = append(out, d)
	}
	for _, u := range p.Updates {
		out = append(out, u)
	}
	for _, c := range p.Creates {
		out = append(out, c)
	}
	return out
}

// BuildPlan diffs the games that belong on a calendar against the remote events
// currently on it. State accumulates over the whole stream, so duplicates split
// across pages are still found. The first event seen for a game is kept; later
// ones are deleted as duplicates.
func BuildPlan(ctx context.Context, typ calendars.Type, f format.Formatter, gs []games.Game, events iter.Seq2[calendar.Event, error]) (Plan, error) {
	wanted := make(map[string]games.Game, len(gs))
	order := make([]string, 0, len(gs))
	for _, g := range gs {
		if !typ.Relevant(g) {
			continue
		}
		key := g.EventKey()
		if _, dup := wanted[key]; dup {
			continue
		}
		wanted[key] = g
		order = append(order, key)
	}

	var plan Plan
	claimed := make(map[string]string, len(wanted))

	for ev, err := range events {
		if err != nil {
			return Plan{}, fmt.Errorf("list events: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return Plan{}, err
		}

		gameID, ok := format.ExtractGameID(ev)
		if !ok {
			plan.Foreign++
			continue
		}
		if _, seen := claimed[gameID]; seen {
			plan.Deletes = append(plan.Deletes, Delete{EventID: ev.ID, GameID: gameID, Reason: ReasonDuplicate})
			continue
		}
		claimed[gameID] = ev.ID

		g, ok := wanted[gameID]
		if !ok {
			plan.Deletes = append(plan.Deletes, Delete{EventID: ev.ID, GameID: gameID, Reason: ReasonOrphan})
			continue
		}
		payload, _ := f.Format(typ, g)
		if format.Stale(ev, payload) {
			plan.Updates = append(plan.Updates, Update{Game: g, EventID: ev.ID, Payload: payload})
		} else {
			plan.Unchanged = append(plan.Unchanged, NoOp{GameID: gameID, EventID: ev.ID})
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return wanted[order[i]].ID < wanted[order[j]].ID
	})
	for _, key := range order {
		if _, ok := claimed[key]; ok {
			continue
		}
		g := wanted[key]
		payload, _ := f.Format(typ, g)
		plan.Creates = append(plan.Creates, Create{Game: g, Payload: payload})
	}
	return plan, nil
}
