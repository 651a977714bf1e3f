package config

import (
	"os"
	"strconv"
	"strings"

	"renovation-estimator/internal/estimator/assembler"
	"renovation-estimator/internal/estimator/netting"
	"renovation-estimator/internal/estimator/rules"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string
	Environment  string
	ReadTimeout  int
	WriteTimeout int

	EstimatorDBPath string
	EstimatorURL    string
	PDFFontPath     string
	PlansDir        string
	CORSOrigins     []string

	// Бизнес-коэффициенты расчёта
	WindowHeightFactor      float64
	OpeningLengthRoundingPx float64
	Prices                  Prices
}

// Prices: расценки фиксированных строк сметы, руб. за единицу.
type Prices struct {
	Demolition   float64
	Installation float64
	Screed       float64
	Plaster      float64
	Putty        float64
	Tiling       float64
	Baseboard    float64
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "3000"),
		Environment:  getEnv("ENV", "development"),
		ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
		WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 10),

		EstimatorDBPath: getEnv("ESTIMATOR_DB_PATH", "data/db/estimator.db"),
		EstimatorURL:    getEnv("ESTIMATOR_URL", "http://localhost:3003"),
		PDFFontPath:     getEnv("PDF_FONT_PATH", ""),
		PlansDir:        getEnv("PLANS_DIR", "data/plans"),
		CORSOrigins:     getEnvAsList("CORS_ORIGINS"),

		WindowHeightFactor:      getEnvAsFloat("WINDOW_HEIGHT_FACTOR", rules.DefaultWindowHeightFactor),
		OpeningLengthRoundingPx: getEnvAsFloat("OPENING_LENGTH_ROUNDING_PX", netting.DefaultLengthRoundingPx),
		Prices: Prices{
			Demolition:   getEnvAsFloat("PRICE_DEMOLITION", assembler.DefaultPriceDemolition),
			Installation: getEnvAsFloat("PRICE_INSTALLATION", assembler.DefaultPriceInstallation),
			Screed:       getEnvAsFloat("PRICE_SCREED", assembler.DefaultPriceScreed),
			Plaster:      getEnvAsFloat("PRICE_PLASTER", assembler.DefaultPricePlaster),
			Putty:        getEnvAsFloat("PRICE_PUTTY", assembler.DefaultPricePutty),
			Tiling:       getEnvAsFloat("PRICE_TILING", assembler.DefaultPriceTiling),
			Baseboard:    getEnvAsFloat("PRICE_BASEBOARD", assembler.DefaultPriceBaseboard),
		},
	}
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

// getEnvAsFloat принимает и запятую как десятичный разделитель.
func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		value = strings.ReplaceAll(strings.TrimSpace(value), ",", ".")
		if f, err := strconv.ParseFloat(value, 64); err == nil && f >= 0 {
			return f
		}
	}
	return defaultVal
}

// getEnvAsList читает список через запятую; пустые элементы отбрасываются.
func getEnvAsList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
