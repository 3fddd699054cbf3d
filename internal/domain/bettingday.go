package domain

import "time"

// bettingday.go — calendario de "día de apuestas".
//
// El día de apuestas no corta a medianoche sino a las 03:00 locales:
// un parlay creado a las 02:00 pertenece todavía al día anterior. Los
// juegos de costa oeste terminan pasada la medianoche del este y el
// usuario sigue mirando sus boletas; cortar a las 00:00 las haría
// desaparecer a mitad del último cuarto.

// bettingDayCutoverHour es la hora local en que rota el día.
const bettingDayCutoverHour = 3

// BettingDay devuelve el día de apuestas de t como fecha plana
// "2006-01-02" (comparable lexicográficamente).
func BettingDay(t time.Time) string {
	if t.Hour() < bettingDayCutoverHour {
		t = t.AddDate(0, 0, -1)
	}
	return t.Format("2006-01-02")
}

// ReviewCutoff devuelve el instante en que un parlay creado en created
// deja de tener gracia de revisión: las 03:00 del día calendario
// siguiente a created.
func ReviewCutoff(created time.Time) time.Time {
	next := created.AddDate(0, 0, 1)
	return time.Date(next.Year(), next.Month(), next.Day(),
		bettingDayCutoverHour, 0, 0, 0, created.Location())
}
