package app

import (
	"math"

	"ranczo-quiz/internal/domain"
)

// DailyBonus is added to the fan points of every finished daily session.
const DailyBonus = 5

// FanRanks is the rank ladder ordered by ascending threshold.
var FanRanks = []domain.Rank{
	{Threshold: 0, Title: "Turysta w Wilkowyjach", Icon: "🧳"},
	{Threshold: 100, Title: "Gość u Lucy", Icon: "🚶"},
	{Threshold: 250, Title: "Bywalec u Japycza", Icon: "🍺"},
	{Threshold: 500, Title: "Stały bywalec ławeczki", Icon: "🪑"},
	{Threshold: 900, Title: "Mieszkaniec Wilkowyj", Icon: "🏡"},
	{Threshold: 1400, Title: "Pracownik urzędu gminy", Icon: "📋"},
	{Threshold: 2000, Title: "Stażysta u wójta", Icon: "🖊️"},
	{Threshold: 2700, Title: "Sekretarz gminy", Icon: "📑"},
	{Threshold: 3500, Title: "Zastępca wójta", Icon: "🤝"},
	{Threshold: 4500, Title: "Radny gminy", Icon: "🏛️"},
	{Threshold: 6000, Title: "Prawa ręka wójta", Icon: "⭐"},
	{Threshold: 8000, Title: "Wójt Wilkowyj", Icon: "👑"},
}

// CurrentRank is the highest rank whose threshold does not exceed points.
func CurrentRank(points int) domain.Rank {
	current := FanRanks[0]
	for _, r := range FanRanks {
		if points < r.Threshold {
			break
		}
		current = r
	}
	return current
}

// NextRank is the lowest rank above points; false at the top of the ladder.
func NextRank(points int) (domain.Rank, bool) {
	for _, r := range FanRanks {
		if points < r.Threshold {
			return r, true
		}
	}
	return domain.Rank{}, false
}

// PointsToNextRank is 0 once the top rank is reached.
func PointsToNextRank(points int) int {
	next, ok := NextRank(points)
	if !ok {
		return 0
	}
	return next.Threshold - points
}

// ProgressPercent is the share of the current rank band already covered.
func ProgressPercent(points int) int {
	next, ok := NextRank(points)
	if !ok {
		return 100
	}
	current := CurrentRank(points)
	return roundHalfUp(100 * float64(points-current.Threshold) / float64(next.Threshold-current.Threshold))
}

// RankedUp reports whether going from before to after crossed a threshold.
func RankedUp(before, after int) bool {
	return CurrentRank(after).Threshold > CurrentRank(before).Threshold
}

// SessionFanPoints converts a session's earned points into fan points.
func SessionFanPoints(earned int, mode domain.Mode) int {
	if mode == domain.ModeDaily {
		return earned + DailyBonus
	}
	return earned
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
