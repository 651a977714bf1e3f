package config

import (
	"testing"

	"renovation-estimator/internal/estimator/assembler"
	"renovation-estimator/internal/estimator/netting"
	"renovation-estimator/internal/estimator/rules"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, 10, cfg.ReadTimeout)
	assert.InDelta(t, 2.0/3.0, cfg.WindowHeightFactor, 1e-12)
	assert.InDelta(t, 0.1, cfg.OpeningLengthRoundingPx, 1e-12)
	assert.Equal(t, 650.0, cfg.Prices.Screed)
}

func TestLoad_DefaultsFollowEstimatorConstants(t *testing.T) {
	cfg := Load()

	assert.Equal(t, rules.DefaultWindowHeightFactor, cfg.WindowHeightFactor)
	assert.Equal(t, netting.DefaultLengthRoundingPx, cfg.OpeningLengthRoundingPx)
	assert.Equal(t, assembler.DefaultPriceDemolition, cfg.Prices.Demolition)
	assert.Equal(t, assembler.DefaultPriceInstallation, cfg.Prices.Installation)
	assert.Equal(t, assembler.DefaultPriceScreed, cfg.Prices.Screed)
	assert.Equal(t, assembler.DefaultPricePlaster, cfg.Prices.Plaster)
	assert.Equal(t, assembler.DefaultPricePutty, cfg.Prices.Putty)
	assert.Equal(t, assembler.DefaultPriceTiling, cfg.Prices.Tiling)
	assert.Equal(t, assembler.DefaultPriceBaseboard, cfg.Prices.Baseboard)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("READ_TIMEOUT", "oops")
	t.Setenv("WINDOW_HEIGHT_FACTOR", "0,5")
	t.Setenv("PRICE_TILING", "2100.5")
	t.Setenv("PRICE_SCREED", "-1")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 10, cfg.ReadTimeout)
	assert.Equal(t, 0.5, cfg.WindowHeightFactor)
	assert.Equal(t, 2100.5, cfg.Prices.Tiling)
	assert.Equal(t, 650.0, cfg.Prices.Screed)
}

func TestLoad_CORSOrigins(t *testing.T) {
	t.Setenv("CORS_ORIGINS", " https://a.example.com, ,https://b.example.com")

	cfg := Load()

	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSOrigins)
}
