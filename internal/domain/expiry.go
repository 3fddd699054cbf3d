package domain

import "time"

// ShouldExpireParlay decide si un parlay trackeado ya no es relevante.
//
// Dos reglas, en este orden:
//
//	A. Día vencido: si el día de apuestas de created_at es anterior al
//	   de now, expira incondicionalmente — aunque alguna pierna siga
//	   reportando "live" (feed colgado). Garantiza limpieza eventual.
//	B. Gracia del mismo día: con todas las piernas finales, el parlay
//	   sobrevive hasta las 03:00 del día siguiente a su creación para
//	   que el usuario revise resultados. Con piernas sin terminar no
//	   expira por esta regla.
func ShouldExpireParlay(p Parlay, now time.Time) bool {
	created := p.CreatedAt.In(now.Location())

	if BettingDay(created) < BettingDay(now) {
		return true
	}

	if !p.AllLegsFinal() {
		return false
	}
	return !now.Before(ReviewCutoff(created))
}
