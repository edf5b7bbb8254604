package app

import (
	"math/rand"
	"strconv"
	"strings"
)

// Title is the per-session title shown on the result screen. Unlike
// FanRanks it depends only on the session's percent score.
type Title struct {
	Key   string `json:"key"`
	Title string `json:"title"`
	Icon  string `json:"icon"`
}

var resultTitles = []struct {
	min   int
	title Title
}{
	{95, Title{Key: "mayor", Title: "Wójt Wilkowyj", Icon: "👑"}},
	{80, Title{Key: "councilMember", Title: "Radny gminy", Icon: "🏛️"}},
	{65, Title{Key: "benchRegular", Title: "Stały bywalec ławeczki", Icon: "🪑"}},
	{45, Title{Key: "resident", Title: "Mieszkaniec Wilkowyj", Icon: "🏡"}},
	{25, Title{Key: "newInTown", Title: "Nowy w gminie", Icon: "🚗"}},
	{0, Title{Key: "tourist", Title: "Turysta", Icon: "🗺️"}},
}

// ResultTitle picks the title band for percent.
func ResultTitle(percent int) Title {
	for _, band := range resultTitles {
		if percent >= band.min {
			return band.title
		}
	}
	return resultTitles[len(resultTitles)-1].title
}

const shareSuffix = "\n\nSprawdź się w Quizie Ranczo!"

var dailyShareTexts = []string{
	"Dzisiejszy Quiz Dnia z Rancza: {percent}% ✅ Jutro znowu gram!",
	"Quiz Dnia zaliczony 😄 Gram codziennie - kto dołącza?",
	"Quiz Dnia: {percent}% - codziennie bliżej fotela wójta 😄",
}

var shareTexts = map[string][]string{
	"tourist": {
		"Ranczo Quiz mnie pokonał... {percent}% 😄",
		"Tylko {percent}%... kto udowodni że jest lepszy?",
		"Wilkowyje? A gdzie to jest? 😄",
	},
	"newInTown": {
		"{percent}% w Quizie z Rancza - jeszcze się odegramy!",
		"Nowy w gminie z {percent}%... kto pokaże jak się gra?",
	},
	"resident": {
		"Mieszkaniec Wilkowyj - {percent}% w Quizie z Rancza!",
		"Meldunek w Wilkowyjach potwierdzony - {percent}% 😄",
	},
	"benchRegular": {
		"Stały bywalec ławeczki 🪑 {percent}% w Quizie z Rancza!",
		"Ławeczka jest moja - {percent}% poprawnych! A Ty?",
	},
	"councilMember": {
		"Radny gminy - {percent}% w Quizie z Rancza! Kto da więcej?",
		"Radny z {percent}%... jest pretendent do fotela wójta?",
	},
	"mayor": {
		"Wójt Wilkowyj - {percent}%! Wilkowyje to mój drugi dom 😎",
		"{percent}%... fotel wójta jest mój! Kto się odważy? 😎",
	},
}

// ShareText picks a share message for a finished session.
func ShareText(percent int, daily bool, rnd *rand.Rand) string {
	pool := dailyShareTexts
	if !daily {
		pool = shareTexts[ResultTitle(percent).Key]
	}
	text := pool[rnd.Intn(len(pool))]
	return strings.ReplaceAll(text, "{percent}", strconv.Itoa(percent)) + shareSuffix
}
