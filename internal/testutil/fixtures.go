package testutil

import (
	"time"

	"github.com/preston-bernstein/fixture-calendar-service/internal/domain/games"
)

// SampleGame returns a home league fixture played at 15:00 UTC on the given day of
// March 2024. It has no sale dates.
func SampleGame(id int64, day int) games.Game {
	played := time.Date(2024, time.March, day, 15, 0, 0, 0, time.UTC)
	return games.Game{
		ID: id,
		Key: games.BusinessKey{
			Competition: "League",
			Location:    games.LocationHome,
			Opponents:   "Rovers",
			Season:      2023,
		},
		DatePlayed: &played,
	}
}

// SampleSaleGame is SampleGame with a general sale opening a week before kick-off.
func SampleSaleGame(id int64, day int) games.Game {
	g := SampleGame(id, day)
	sale := g.DatePlayed.AddDate(0, 0, -7)
	g.GeneralSaleDate = &sale
	return g
}
