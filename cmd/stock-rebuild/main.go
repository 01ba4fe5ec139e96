package main

import (
	"context"
	"log"

	"github.com/cohapparel/coherp_backend/config"
	"github.com/cohapparel/coherp_backend/models"
)

// Recomputes every fabric colour balance from the transaction ledger.
// Use after manual data fixes or a restore.
func main() {
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	count, err := models.RebuildFabricColourBalances(context.Background())
	if err != nil {
		log.Fatalf("rebuild balances: %v", err)
	}
	log.Printf("rebuilt %d fabric colour balances", count)
}
