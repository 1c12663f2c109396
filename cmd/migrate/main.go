package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dropDatabas3/loyaltyauth/internal/config"
	"github.com/dropDatabas3/loyaltyauth/internal/store/pg"
	migrations "github.com/dropDatabas3/loyaltyauth/migrations/postgres"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", os.Getenv("CONFIG_PATH"), "Path to YAML config (optional, DATABASE_URL wins)")
	flag.Parse()

	// Positional args: [action] [steps]
	action := "up"
	steps := 1
	args := flag.Args()
	if len(args) >= 1 && args[0] != "" {
		action = strings.ToLower(args[0])
	}
	if len(args) >= 2 {
		if n, err := strconv.Atoi(args[1]); err == nil && n > 0 {
			steps = n
		}
	}

	// DATABASE_URL alcanza; el YAML completo exige además JWT secret
	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn == "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("config load: %v", err)
		}
		dsn = cfg.Storage.DSN
	}
	if dsn == "" {
		log.Fatal("DATABASE_URL (or storage.dsn) is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	store, err := pg.New(ctx, dsn, pg.Options{MaxConns: 2})
	if err != nil {
		log.Fatalf("pg: %v", err)
	}
	defer store.Close()

	m := pg.NewMigrator(migrations.FS, migrations.Dir)

	switch action {
	case "up":
		res, err := m.Up(ctx, store)
		if err != nil {
			log.Fatalf("up: %v", err)
		}
		log.Printf("applied=%v skipped=%d (%s)", res.Applied, len(res.Skipped), res.Duration.Truncate(time.Millisecond))

	case "down":
		reverted, err := m.Down(ctx, store, steps)
		if err != nil {
			log.Fatalf("down: %v", err)
		}
		log.Printf("reverted=%v", reverted)

	case "status":
		pending, err := m.Pending(ctx, store)
		if err != nil {
			log.Fatalf("status: %v", err)
		}
		if len(pending) == 0 {
			fmt.Println("up to date")
			return
		}
		fmt.Printf("pending: %v\n", pending)

	default:
		log.Fatalf("unknown action %q. Use: up | down [steps] | status", action)
	}
}
