package app

import (
	"github.com/clearform/assurance-backend/internal/platform/envutil"
	"github.com/clearform/assurance-backend/internal/platform/logger"
)

type Config struct {
	Port            string
	JWTSecretKey    string
	ServiceName     string
	Environment     string
	Version         string
	RuleLibraryPath string
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Port:            envutil.GetEnv("PORT", "8080", log),
		JWTSecretKey:    envutil.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),
		ServiceName:     envutil.GetEnv("SERVICE_NAME", "assurance", log),
		Environment:     envutil.GetEnv("APP_ENV", "development", log),
		Version:         envutil.GetEnv("APP_VERSION", "", log),
		RuleLibraryPath: envutil.GetEnv("RULE_LIBRARY_PATH", "configs/rule_library.yaml", log),
	}
}
