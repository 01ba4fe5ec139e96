package models_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cohapparel/coherp_backend/config"
	"github.com/cohapparel/coherp_backend/models"
	"github.com/cohapparel/coherp_backend/utils"
	"github.com/shopspring/decimal"
)

// Covers the fabric ledger invariant end to end: the stored balance on a
// colour must always equal inward minus outward over the live ledger rows,
// including after deletes and reconciliation adjustments.
func TestFabricLedgerBalanceAndReconciliation(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "coherp_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	// Migrate schema (in a fresh DB).
	models.MigrateTable()

	db := config.GetDB()
	if db == nil {
		t.Fatalf("db is nil after ConnectDatabaseWithRetry")
	}

	fabric, err := models.CreateFabric(ctx, &models.NewFabric{
		Name:         "Linen 180gsm",
		Unit:         "m",
		LeadTimeDays: 14,
		MinOrderQty:  decimal.NewFromInt(50),
		CostPerUnit:  decimal.NewFromInt(420),
		Supplier:     "Arvind Mills",
	})
	if err != nil {
		t.Fatalf("CreateFabric: %v", err)
	}

	colour, err := models.CreateFabricColour(ctx, &models.NewFabricColour{
		FabricId:   fabric.ID,
		ColourName: "Indigo",
		Code:       "LIN-IND",
	})
	if err != nil {
		t.Fatalf("CreateFabricColour: %v", err)
	}
	if !colour.CurrentBalance.IsZero() {
		t.Fatalf("new colour balance = %s, want 0", colour.CurrentBalance)
	}

	// 1) Inward 100, outward 30: balance must land on 70.
	inward, err := models.CreateFabricColourTransaction(ctx, &models.NewFabricColourTransaction{
		FabricColourId: colour.ID,
		Direction:      models.TransactionDirectionInward,
		Quantity:       decimal.NewFromInt(100),
		Reference:      "PO-1001",
	})
	if err != nil {
		t.Fatalf("inward transaction: %v", err)
	}
	if _, err := models.CreateFabricColourTransaction(ctx, &models.NewFabricColourTransaction{
		FabricColourId: colour.ID,
		Direction:      models.TransactionDirectionOutward,
		Quantity:       decimal.NewFromInt(30),
		Reference:      "CUT-17",
	}); err != nil {
		t.Fatalf("outward transaction: %v", err)
	}
	assertBalance(t, ctx, colour.ID, decimal.NewFromInt(70))

	// 2) Deleting a ledger row recomputes the balance from what remains.
	if _, err := models.DeleteFabricColourTransaction(ctx, inward.ID); err != nil {
		t.Fatalf("DeleteFabricColourTransaction: %v", err)
	}
	assertBalance(t, ctx, colour.ID, decimal.NewFromInt(-30))

	// Restock so the reconciliation below works against a positive book balance.
	if _, err := models.CreateFabricColourTransaction(ctx, &models.NewFabricColourTransaction{
		FabricColourId: colour.ID,
		Direction:      models.TransactionDirectionInward,
		Quantity:       decimal.NewFromInt(80),
		Reference:      "PO-1002",
	}); err != nil {
		t.Fatalf("restock transaction: %v", err)
	}
	assertBalance(t, ctx, colour.ID, decimal.NewFromInt(50))

	// 3) Submit a count of 42: variance -8, adjustment row written, balance follows the count.
	rec, err := models.CreateReconciliation(ctx, &models.NewFabricColourReconciliation{
		FabricColourId: colour.ID,
		CountedQty:     decimal.NewFromInt(42),
		Notes:          "monthly count",
	})
	if err != nil {
		t.Fatalf("CreateReconciliation: %v", err)
	}
	if rec.Status != models.ReconciliationStatusDraft {
		t.Fatalf("new reconciliation status = %s, want draft", rec.Status)
	}

	submitted, err := models.SubmitReconciliation(ctx, rec.ID)
	if err != nil {
		t.Fatalf("SubmitReconciliation: %v", err)
	}
	if submitted.Status != models.ReconciliationStatusSubmitted {
		t.Fatalf("submitted status = %s, want submitted", submitted.Status)
	}
	if !submitted.SystemQty.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("system qty = %s, want 50", submitted.SystemQty)
	}
	if !submitted.Variance.Equal(decimal.NewFromInt(-8)) {
		t.Fatalf("variance = %s, want -8", submitted.Variance)
	}
	if submitted.SubmittedAt == nil {
		t.Fatalf("submitted reconciliation has nil SubmittedAt")
	}
	assertBalance(t, ctx, colour.ID, decimal.NewFromInt(42))

	var adj models.FabricColourTransaction
	err = db.WithContext(ctx).
		Where("fabric_colour_id = ? AND reference = ?", colour.ID, "reconciliation").
		First(&adj).Error
	if err != nil {
		t.Fatalf("fetch adjustment row: %v", err)
	}
	if adj.Direction != models.TransactionDirectionOutward || !adj.Quantity.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("adjustment = %s %s, want outward 8", adj.Direction, adj.Quantity)
	}

	// 4) Submitted reconciliations are immutable.
	if _, err := models.UpdateReconciliation(ctx, rec.ID, &models.NewFabricColourReconciliation{
		FabricColourId: colour.ID,
		CountedQty:     decimal.NewFromInt(99),
	}); !isAppErrorCode(err, "IMMUTABLE") {
		t.Fatalf("update after submit: err = %v, want IMMUTABLE", err)
	}
	if _, err := models.DeleteReconciliation(ctx, rec.ID); !isAppErrorCode(err, "IMMUTABLE") {
		t.Fatalf("delete after submit: err = %v, want IMMUTABLE", err)
	}
	if _, err := models.SubmitReconciliation(ctx, rec.ID); !isAppErrorCode(err, "IMMUTABLE") {
		t.Fatalf("double submit: err = %v, want IMMUTABLE", err)
	}

	// 5) A full rebuild from the ledger must agree with the incremental balance.
	if _, err := models.RebuildFabricColourBalances(ctx); err != nil {
		t.Fatalf("RebuildFabricColourBalances: %v", err)
	}
	assertBalance(t, ctx, colour.ID, decimal.NewFromInt(42))

	// 6) Concurrent ledger writes must not lose quantities to a stale
	// recompute: 10 inward of 1 and 5 outward of 2 racing each other net
	// to zero, so the balance must still read 42 afterwards.
	var wg sync.WaitGroup
	writeErrs := make(chan error, 15)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := models.CreateFabricColourTransaction(ctx, &models.NewFabricColourTransaction{
				FabricColourId: colour.ID,
				Direction:      models.TransactionDirectionInward,
				Quantity:       decimal.NewFromInt(1),
				Reference:      fmt.Sprintf("PO-RACE-%d", n),
			})
			if err != nil {
				writeErrs <- err
			}
		}(i)
	}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := models.CreateFabricColourTransaction(ctx, &models.NewFabricColourTransaction{
				FabricColourId: colour.ID,
				Direction:      models.TransactionDirectionOutward,
				Quantity:       decimal.NewFromInt(2),
				Reference:      fmt.Sprintf("CUT-RACE-%d", n),
			})
			if err != nil {
				writeErrs <- err
			}
		}(i)
	}
	wg.Wait()
	close(writeErrs)
	for err := range writeErrs {
		t.Fatalf("concurrent transaction: %v", err)
	}
	assertBalance(t, ctx, colour.ID, decimal.NewFromInt(42))
}

func assertBalance(t *testing.T, ctx context.Context, colourId int, want decimal.Decimal) {
	t.Helper()
	colour, err := models.GetFabricColour(ctx, colourId)
	if err != nil {
		t.Fatalf("GetFabricColour(%d): %v", colourId, err)
	}
	if !colour.CurrentBalance.Equal(want) {
		t.Fatalf("colour %d balance = %s, want %s", colourId, colour.CurrentBalance, want)
	}
}

func isAppErrorCode(err error, code string) bool {
	appErr, ok := err.(*utils.AppError)
	return ok && appErr.Code == code
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("coherp-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("coherp-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=coherp_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
