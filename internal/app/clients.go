package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/clearform/assurance-backend/internal/clients/redis"
	"github.com/clearform/assurance-backend/internal/clients/storage"
	"github.com/clearform/assurance-backend/internal/platform/logger"
)

type Clients struct {
	Bucket    storage.BucketService
	RuleCache redis.RuleCache
}

func wireClients(log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	bucket, err := storage.New(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init bucket client: %w", err)
	}

	// Redis is optional; without it rule lookups go straight to Postgres.
	var ruleCache redis.RuleCache
	if strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "" {
		rc, err := redis.NewRuleCache(log)
		if err != nil {
			return Clients{}, fmt.Errorf("init rule cache: %w", err)
		}
		ruleCache = rc
	}

	return Clients{
		Bucket:    bucket,
		RuleCache: ruleCache,
	}, nil
}
