package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBettingDay_Cutover(t *testing.T) {
	// Antes de las 03:00 el día pertenece a la fecha anterior
	assert.Equal(t, "2024-01-14", BettingDay(time.Date(2024, 1, 15, 2, 30, 0, 0, time.UTC)))
	assert.Equal(t, "2024-01-14", BettingDay(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-01-14", BettingDay(time.Date(2024, 1, 15, 2, 59, 59, 0, time.UTC)))

	// Desde las 03:00 ya es el día calendario
	assert.Equal(t, "2024-01-15", BettingDay(time.Date(2024, 1, 15, 3, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2024-01-15", BettingDay(time.Date(2024, 1, 15, 23, 59, 0, 0, time.UTC)))
}

func TestBettingDay_MonthBoundary(t *testing.T) {
	// El retroceso cruza límites de mes/año sin aritmética manual
	assert.Equal(t, "2024-01-31", BettingDay(time.Date(2024, 2, 1, 1, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2023-12-31", BettingDay(time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC)))
}

func TestReviewCutoff(t *testing.T) {
	created := time.Date(2024, 1, 15, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 1, 16, 3, 0, 0, 0, time.UTC), ReviewCutoff(created))
}
