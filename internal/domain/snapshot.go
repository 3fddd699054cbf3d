package domain

// SnapshotEntry son los stats en vivo de un jugador en un tick del feed.
// Period 0 y Clock "" significan "no reportado todavía".
type SnapshotEntry struct {
	Points     float64
	Rebounds   float64
	Assists    float64
	ThreesMade float64
	GameID     int
	Period     int
	Clock      string
	GameStatus GameStatus
}

// LiveSnapshot es el estado completo de un tick, indexado por player_id
// coercionado a string. Cada tick reemplaza al anterior por completo;
// el merge contra estado persistente lo hace el tracker, no el feed.
type LiveSnapshot map[string]SnapshotEntry

// StatFor devuelve el valor del mercado pedido sobre esta entrada.
// Los mercados combinados (pr/pa/ra/pra) se suman aquí para que el
// tracker no tenga que conocer la aritmética de cada mercado.
func (e SnapshotEntry) StatFor(m Market) (float64, bool) {
	switch m {
	case MarketPoints:
		return e.Points, true
	case MarketRebounds:
		return e.Rebounds, true
	case MarketAssists:
		return e.Assists, true
	case MarketThrees:
		return e.ThreesMade, true
	case MarketPR:
		return e.Points + e.Rebounds, true
	case MarketPA:
		return e.Points + e.Assists, true
	case MarketRA:
		return e.Rebounds + e.Assists, true
	case MarketPRA:
		return e.Points + e.Rebounds + e.Assists, true
	default:
		return 0, false
	}
}
