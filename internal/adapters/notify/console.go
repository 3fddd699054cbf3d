package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/parlaywatch/internal/domain"
)

// Console implementa ports.Notifier.
type Console struct {
	out   io.Writer
	table bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(table bool) *Console {
	return &Console{out: os.Stdout, table: table}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, table bool) *Console {
	return &Console{out: w, table: table}
}

// Notify imprime el estado de riesgo en el modo configurado.
func (c *Console) Notify(_ context.Context, risks []domain.ParlayRisk, hedges map[string][]domain.HedgeSuggestion) error {
	if len(risks) == 0 {
		fmt.Fprintf(c.out, "[%s] no tracked parlays\n", time.Now().Format("15:04:05"))
		return nil
	}

	if c.table {
		c.printFull(risks, hedges)
	} else {
		c.printCompact(risks, hedges)
	}
	return nil
}

// printCompact imprime lo esencial en una línea por tick.
func (c *Console) printCompact(risks []domain.ParlayRisk, hedges map[string][]domain.HedgeSuggestion) {
	now := time.Now().Format("15:04:05")
	atRisk, danger := countByWorst(risks)

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d parlays → risk:%d danger:%d hedge:%d",
		now, len(risks), atRisk, danger, len(hedges))

	shown := 0
	for _, risk := range risks {
		if shown >= 4 {
			break
		}
		if risk.Worst.Severity() == 0 {
			continue
		}

		name := compactName(legSummary(risk), 28)
		if _, ok := hedges[risk.Parlay.ParlayID]; ok {
			fmt.Fprintf(&sb, " | %s %s [hedge]", riskIcon(risk.Worst), name)
		} else {
			fmt.Fprintf(&sb, " | %s %s", riskIcon(risk.Worst), name)
		}
		shown++
	}

	fmt.Fprintln(c.out, sb.String())
}

// printFull imprime la tabla pierna por pierna más las sugerencias.
func (c *Console) printFull(risks []domain.ParlayRisk, hedges map[string][]domain.HedgeSuggestion) {
	now := time.Now().Format("15:04:05")
	atRisk, danger := countByWorst(risks)

	fmt.Fprintf(c.out, "\n[%s] %d parlays — at_risk:%d danger:%d\n", now, len(risks), atRisk, danger)

	table := tablewriter.NewWriter(c.out)
	table.Header("Parlay", "Player", "Bet", "Current", "Pace", "Game", "Risk")

	for _, risk := range risks {
		for _, lr := range risk.Legs {
			table.Append(
				shortID(risk.Parlay.ParlayID),
				truncate(lr.Leg.PlayerName, 20),
				betLabel(lr.Leg),
				currentLabel(lr.Leg),
				paceLabel(lr.Pace),
				gameLabel(lr.Leg),
				fmt.Sprintf("%s %s", riskIcon(lr.Pace.RiskLevel), lr.Pace.RiskLevel),
			)
		}
	}
	table.Render()

	c.printHedges(risks, hedges)
}

// printHedges imprime las sugerencias agrupadas por parlay.
func (c *Console) printHedges(risks []domain.ParlayRisk, hedges map[string][]domain.HedgeSuggestion) {
	if len(hedges) == 0 {
		return
	}

	fmt.Fprintf(c.out, "\n=== HEDGE SUGGESTIONS ===\n")
	for _, risk := range risks {
		suggestions, ok := hedges[risk.Parlay.ParlayID]
		if !ok {
			continue
		}
		fmt.Fprintf(c.out, "  parlay %s:\n", shortID(risk.Parlay.ParlayID))
		for _, s := range suggestions {
			fmt.Fprintf(c.out, "    %s %s %s %.1f (%+d) @ %s",
				truncate(s.PlayerName, 20), s.Market, s.Side, s.Line, s.Odds, s.Book)
			if s.Stake > 0 {
				fmt.Fprintf(c.out, " stake $%.0f", s.Stake)
			}
			if s.Reason != "" {
				fmt.Fprintf(c.out, " — %s", s.Reason)
			}
			fmt.Fprintln(c.out)
		}
	}
	fmt.Fprintln(c.out)
}

// --- helpers ---

func countByWorst(risks []domain.ParlayRisk) (atRisk, danger int) {
	for _, r := range risks {
		switch r.Worst {
		case domain.RiskAtRisk:
			atRisk++
		case domain.RiskDanger:
			danger++
		}
	}
	return
}

func riskIcon(level domain.RiskLevel) string {
	switch level {
	case domain.RiskDanger:
		return "!!"
	case domain.RiskAtRisk:
		return "!"
	case domain.RiskHit:
		return "✓"
	case domain.RiskLost:
		return "✗"
	default:
		return "·"
	}
}

// legSummary etiqueta el parlay por su peor pierna.
func legSummary(risk domain.ParlayRisk) string {
	for _, lr := range risk.Legs {
		if lr.Pace.RiskLevel == risk.Worst {
			return fmt.Sprintf("%s %s %s %.1f", lr.Leg.PlayerName, lr.Leg.Market, lr.Leg.Side, lr.Leg.Line)
		}
	}
	return shortID(risk.Parlay.ParlayID)
}

func betLabel(leg domain.Leg) string {
	return fmt.Sprintf("%s %s %.1f", leg.Market, leg.Side, leg.Line)
}

func currentLabel(leg domain.Leg) string {
	if leg.Current == nil {
		return "-"
	}
	return fmt.Sprintf("%.1f", *leg.Current)
}

func paceLabel(p domain.PaceResult) string {
	if p.GameProgress == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f (exp %.1f)", p.CurrentPace, p.ExpectedStat)
}

func gameLabel(leg domain.Leg) string {
	switch leg.GameStatus {
	case domain.StatusPregame:
		return "pregame"
	case domain.StatusFinal:
		return "final"
	default:
		return fmt.Sprintf("Q%d %s", leg.Period, leg.Clock)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func compactName(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := s[:maxLen]
	if idx := strings.LastIndex(cut, " "); idx > maxLen/2 {
		cut = cut[:idx]
	}
	return cut + "…"
}
