package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-franchise-backoffice.git/internal/catalog"
	"github.com/ariefcatur/go-franchise-backoffice.git/internal/config"
	"github.com/ariefcatur/go-franchise-backoffice.git/internal/httpx"
	"github.com/ariefcatur/go-franchise-backoffice.git/internal/inventory"
	kafkax "github.com/ariefcatur/go-franchise-backoffice.git/internal/kafka"
	"github.com/ariefcatur/go-franchise-backoffice.git/internal/orders"
	"github.com/ariefcatur/go-franchise-backoffice.git/internal/postgres"
	"github.com/ariefcatur/go-franchise-backoffice.git/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers (satu per topic)
	pStatus := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderStatusChanged, 1024)
	pStatus.Start(ctx)
	pDeduct := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicInventoryDeducted, 1024)
	pDeduct.Start(ctx)
	pLow := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStockLow, 1024)
	pLow.Start(ctx)

	// Repos & services
	orderRepo := &orders.Repo{DB: db}
	catalogRepo := &catalog.Repo{DB: db}
	mapping := &inventory.MappingRepo{DB: db}
	ledger := &inventory.Ledger{DB: db}
	audit := &inventory.AuditLog{DB: db}

	transition := &orders.TransitionService{
		DB:             db,
		Orders:         orderRepo,
		Recipes:        catalogRepo,
		Mapping:        mapping,
		Ledger:         ledger,
		Audit:          audit,
		Redis:          rdb,
		ProducerStatus: pStatus,
		ProducerDeduct: pDeduct,
		ProducerLow:    pLow,
		ServiceName:    cfg.ServiceName,
	}

	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{
		Repo:       orderRepo,
		Transition: transition,
		Catalog:    catalogRepo,
		Audit:      audit,
		Redis:      rdb,
	}
	oh.Register(router)
	ih := &httpx.InventoryHandler{Ledger: ledger, Audit: audit}
	ih.Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	// tutup inbox -> flush & close writer
	pStatus.Close()
	pDeduct.Close()
	pLow.Close()
	cancel()
	pStatus.WaitClosed()
	pDeduct.WaitClosed()
	pLow.WaitClosed()
}
