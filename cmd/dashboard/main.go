package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"

	"github.com/joelkehle/elasticity-lab/internal/advisor"
	"github.com/joelkehle/elasticity-lab/internal/fixtures"
	"github.com/joelkehle/elasticity-lab/internal/httpapi"
	"github.com/joelkehle/elasticity-lab/internal/observability"
	"github.com/joelkehle/elasticity-lab/internal/report"
	"github.com/joelkehle/elasticity-lab/internal/scenario"
	"github.com/joelkehle/elasticity-lab/internal/store"
)

func main() {
	var (
		addr    = flag.String("addr", ":8080", "listen address")
		dataDir = flag.String("data-dir", "", "fixture directory (default: built-in demo data)")
		dbFlag  = flag.String("db", "", "path to SQLite database file (overrides DB_PATH env var)")
	)
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	shutdownOTel := observability.InitOTel(ctx, observability.Config{
		ServiceName: "elasticity-dashboard",
		Environment: strings.TrimSpace(os.Getenv("DEPLOY_ENV")),
		Version:     strings.TrimSpace(os.Getenv("RELEASE_VERSION")),
	})

	set, err := loadFixtures(*dataDir)
	if err != nil {
		log.Fatalf("failed to load fixtures from %s: %v", *dataDir, err)
	}
	session := scenario.NewSession(set.Table, set.Weekly, set.Scenarios)

	var db *store.Store
	dbPath := *dbFlag
	if dbPath == "" {
		dbPath = os.Getenv("DB_PATH")
	}
	if dbPath != "" {
		db, err = store.Open(dbPath)
		if err != nil {
			log.Fatalf("failed to open sqlite store (%s): %v", dbPath, err)
		}
		defer db.Close()
		if err := db.Restore(session); err != nil {
			log.Fatalf("failed to restore persisted state: %v", err)
		}
		log.Printf("using sqlite store at %s", dbPath)
	}

	var adv *advisor.Advisor
	caller, err := advisor.NewAnthropicCallerFromEnv()
	if err != nil {
		log.Printf("chat disabled: %v", err)
	} else {
		adv = advisor.New(caller, advisor.NewToolkit(session, set.Segments))
		log.Printf("chat enabled model=%s", adv.ModelName())
	}

	handler := httpapi.NewServer(httpapi.Config{
		Session:  session,
		Segments: set.Segments,
		Advisor:  adv,
		Store:    db,
		PDF:      report.NewChromiumPDFRenderer(),
	})

	log.Printf("elasticity dashboard listening on %s scenarios=%d", *addr, len(set.Scenarios))
	srv := &http.Server{Addr: *addr, Handler: handler}
	go func() {
		<-ctx.Done()
		srv.Close()
		if shutdownOTel != nil {
			_ = shutdownOTel(context.Background())
		}
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal(err)
	}
}

func loadFixtures(dir string) (*fixtures.Set, error) {
	if strings.TrimSpace(dir) == "" {
		log.Println("no --data-dir given, using built-in demo fixtures")
		return fixtures.Demo(), nil
	}
	return fixtures.Load(dir)
}
