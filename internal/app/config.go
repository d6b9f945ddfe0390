package app

import (
	"time"

	"github.com/macrofit/macrofit-backend/internal/platform/envutil"
)

type Config struct {
	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Port            string
	AppMode         string
}

func LoadConfig() Config {
	return Config{
		JWTSecretKey:    envutil.String("JWT_SECRET_KEY", "defaultsecret"),
		AccessTokenTTL:  time.Duration(envutil.Int("ACCESS_TOKEN_TTL", 3600)) * time.Second,
		RefreshTokenTTL: time.Duration(envutil.Int("REFRESH_TOKEN_TTL", 86400)) * time.Second,
		Port:            envutil.String("PORT", "8080"),
		AppMode:         envutil.String("APP_MODE", "development"),
	}
}
