package config

import (
	"os"
	"strconv"
)

type Config struct {
	HTTPPort string

	// Public host/port the payment provider redirects the user's browser
	// back to after approval.
	CallbackHost string
	CallbackPort int

	PayPalMode         string
	PayPalClientID     string
	PayPalClientSecret string

	BotAppID       string
	BotAppPassword string

	FineAmountCents int64
	FineCurrency    string
	FineDescription string
	FineItemName    string
}

func LoadConfig() Config {
	return Config{
		HTTPPort:           getEnv("PORT", "3978"),
		CallbackHost:       getEnv("CALLBACK_HOST", "localhost"),
		CallbackPort:       getEnvInt("CALLBACK_PORT", 3978),
		PayPalMode:         getEnv("PAYPAL_MODE", "sandbox"),
		PayPalClientID:     getEnv("PAYPAL_CLIENT_ID", ""),
		PayPalClientSecret: getEnv("PAYPAL_CLIENT_SECRET", ""),
		BotAppID:           getEnv("MICROSOFT_APP_ID", ""),
		BotAppPassword:     getEnv("MICROSOFT_APP_PASSWORD", ""),
		FineAmountCents:    int64(getEnvInt("FINE_AMOUNT_CENTS", 100)),
		FineCurrency:       getEnv("FINE_CURRENCY", "USD"),
		FineDescription:    getEnv("FINE_DESCRIPTION", "Parking fine"),
		FineItemName:       getEnv("FINE_ITEM_NAME", "ParkingFine"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
