package domain

import (
	"math"
	"strconv"
	"strings"
)

// pace.go — proyección lineal de props en vivo.
//
// El modelo es deliberadamente naive: extrapola el stat actual de forma
// lineal sobre el reloj de juego y lo compara contra la línea. Los
// umbrales son heurísticos (sin derivación formal) y asimétricos por
// diseño: un over que va adelantado no preocupa, un under que va
// adelantado sí.

// Duraciones NBA en segundos.
const (
	regulationPeriods = 4
	periodSeconds     = 720  // 12 minutos por cuarto
	regulationSeconds = 2880 // 4 × 720
	overtimeSeconds   = 300  // 5 minutos por OT
)

// Umbrales de riesgo. Tunables de política, no constantes de corrección:
// cambiarlos cambia cuándo se alerta, no la validez del cálculo.
const (
	// Por debajo de este progreso no se proyecta nada — con <2.5 min
	// jugados la extrapolación divide por casi cero y grita en falso.
	earlyGameProgress = 0.05

	// Over: ratio actual/esperado mínimo para considerarse en ritmo.
	overOnTrackRatio = 0.85
	overDangerRatio  = 0.60

	// Under: ratio máximo tolerado antes de escalar.
	underOnTrackRatio = 1.15
	underDangerRatio  = 1.40

	// Piso del denominador en paceRatio para no explotar cerca de cero.
	paceRatioFloor = 0.1
)

// RiskLevel clasifica una pierna según su proyección actual.
type RiskLevel string

const (
	RiskOnTrack RiskLevel = "on_track"
	RiskAtRisk  RiskLevel = "at_risk"
	RiskDanger  RiskLevel = "danger"
	RiskHit     RiskLevel = "hit"  // juego terminado, apuesta ganada
	RiskLost    RiskLevel = "lost" // juego terminado, apuesta perdida
)

// Severity ordena los niveles para poder comparar "al menos at_risk".
func (r RiskLevel) Severity() int {
	switch r {
	case RiskOnTrack, RiskHit:
		return 0
	case RiskAtRisk:
		return 1
	case RiskDanger, RiskLost:
		return 2
	default:
		return 0
	}
}

// PaceResult es el resultado derivado de evaluar una pierna. No se
// persiste nunca: se recalcula fresco en cada evaluación.
type PaceResult struct {
	GameProgress float64   // fracción de regulación jugada, [0,1]
	ExpectedStat float64   // stat necesario ahora para ir exacto al line
	CurrentPace  float64   // extrapolación lineal a juego completo
	RiskLevel    RiskLevel
	PaceRatio    float64   // actual vs esperado
}

// GameProgress devuelve la fracción jugada de un juego de regulación.
// El reloj cuenta hacia atrás dentro del período ("M:SS" o "MM:SS");
// un reloj ausente o no parseable cuenta como 0 segundos jugados del
// período. El overtime suma segundos pero el progreso reportado se
// recorta a 1.0: las proyecciones se normalizan a duración regular.
func GameProgress(period int, clock string) float64 {
	if period <= 0 {
		return 0
	}

	var elapsed float64
	if period <= regulationPeriods {
		remaining := parseClockSeconds(clock, periodSeconds)
		elapsed = float64(period-1)*periodSeconds + (periodSeconds - remaining)
	} else {
		remaining := parseClockSeconds(clock, overtimeSeconds)
		elapsed = regulationSeconds +
			float64(period-regulationPeriods-1)*overtimeSeconds +
			(overtimeSeconds - remaining)
	}

	return math.Min(1, elapsed/regulationSeconds)
}

// parseClockSeconds parsea "M:SS" a segundos restantes del período.
// Devuelve periodLen (0 jugado) si el string no es parseable, y se
// recorta al largo del período por si el feed manda basura.
func parseClockSeconds(clock string, periodLen float64) float64 {
	mins, secs, ok := strings.Cut(clock, ":")
	if !ok {
		return periodLen
	}
	m, err := strconv.Atoi(strings.TrimSpace(mins))
	if err != nil || m < 0 {
		return periodLen
	}
	s, err := strconv.Atoi(strings.TrimSpace(secs))
	if err != nil || s < 0 || s > 59 {
		return periodLen
	}
	remaining := float64(m*60 + s)
	return math.Min(remaining, periodLen)
}

// CalcPace evalúa una pierna: progreso de juego, proyección y nivel de
// riesgo. current es nil hasta que llegue el primer snapshot del
// jugador; sin dato (o pregame) el resultado es neutro on_track con
// progreso 0 — nunca se proyecta sobre nada.
func CalcPace(current *float64, line float64, side Side, period int, clock string, status GameStatus) PaceResult {
	if current == nil || status == StatusPregame {
		return PaceResult{RiskLevel: RiskOnTrack}
	}
	cur := *current

	// Juego terminado: resolución definitiva, sin proyección.
	if status == StatusFinal {
		level := RiskLost
		if (side == SideOver && cur > line) || (side == SideUnder && cur < line) {
			level = RiskHit
		}
		return PaceResult{
			GameProgress: GameProgress(period, clock),
			ExpectedStat: line,
			CurrentPace:  cur,
			RiskLevel:    level,
			PaceRatio:    safeRatio(cur, line),
		}
	}

	progress := GameProgress(period, clock)
	if progress < earlyGameProgress {
		// La guarda no aplica si la línea ya está cruzada: ese
		// resultado no depende del reloj.
		if side == SideOver && cur > line {
			return PaceResult{GameProgress: progress, CurrentPace: cur, RiskLevel: RiskOnTrack, PaceRatio: safeRatio(cur, line)}
		}
		if side == SideUnder && cur >= line {
			return PaceResult{GameProgress: progress, CurrentPace: cur, RiskLevel: RiskDanger, PaceRatio: safeRatio(cur, line)}
		}
		return PaceResult{GameProgress: progress, RiskLevel: RiskOnTrack}
	}

	expected := line * progress
	pace := cur / progress
	ratio := cur / math.Max(expected, paceRatioFloor)

	return PaceResult{
		GameProgress: progress,
		ExpectedStat: expected,
		CurrentPace:  pace,
		RiskLevel:    classify(cur, line, side, ratio),
		PaceRatio:    ratio,
	}
}

// classify aplica los umbrales asimétricos por lado.
func classify(current, line float64, side Side, ratio float64) RiskLevel {
	switch side {
	case SideOver:
		// Ya pasó la línea: no importa el reloj.
		if current > line {
			return RiskOnTrack
		}
		switch {
		case ratio >= overOnTrackRatio:
			return RiskOnTrack
		case ratio >= overDangerRatio:
			return RiskAtRisk
		default:
			return RiskDanger
		}
	case SideUnder:
		// Ya reventó la línea: perdida salvo que el stat baje (no baja).
		if current >= line {
			return RiskDanger
		}
		switch {
		case ratio <= underOnTrackRatio:
			return RiskOnTrack
		case ratio <= underDangerRatio:
			return RiskAtRisk
		default:
			return RiskDanger
		}
	default:
		return RiskOnTrack
	}
}

func safeRatio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
