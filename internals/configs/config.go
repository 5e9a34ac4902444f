package configs

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

var (
	JWTSecret       string
	QRSigningSecret string
)

// =======================
// QR / GEOFENCE DEFAULTS
// =======================
const (
	// Fallback reference point when an organisation has no coordinates.
	DefaultLatitude  = 5.631155029146822
	DefaultLongitude = -0.22219213171956173

	DefaultRadiusMeters = 100
	MinRadiusMeters     = 10
	MaxRadiusMeters     = 1000

	QRTokenTTL    = 5 * time.Minute
	SweepInterval = 5 * time.Minute
)

// LateThreshold is the time-of-day after which a check-in counts as late.
// Overridable via LATE_THRESHOLD (HH:MM).
var LateThreshold = "08:00"

// =======================
// ENV LOADER
// =======================
func LoadEnv() {
	if os.Getenv("RAILWAY_ENVIRONMENT") == "" {
		if err := godotenv.Load(); err != nil {
			log.Println("⚠️ No .env file found, using system ENV")
		} else {
			log.Println("✅ .env file loaded")
		}
	} else {
		log.Println("🚀 Running in Railway, using system ENV")
	}

	JWTSecret = GetEnv("JWT_SECRET")
	QRSigningSecret = GetEnv("QR_SIGNING_SECRET")

	if v := GetEnv("LATE_THRESHOLD"); v != "" {
		if _, err := time.Parse("15:04", v); err != nil {
			log.Printf("⚠️ LATE_THRESHOLD %q is not HH:MM, keeping %s", v, LateThreshold)
		} else {
			LateThreshold = v
		}
	}

	if JWTSecret == "" {
		log.Println("❌ JWT_SECRET is not set!")
	}
	if QRSigningSecret == "" {
		log.Println("❌ QR_SIGNING_SECRET is not set! QR signatures will be forgeable.")
	}
}

func GetEnv(key string, defaultValue ...string) string {
	value, exists := os.LookupEnv(key)
	if !exists && len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return value
}

func GetEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
