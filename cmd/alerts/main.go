package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-franchise-backoffice.git/internal/alerts"
	"github.com/ariefcatur/go-franchise-backoffice.git/internal/config"
	kafkax "github.com/ariefcatur/go-franchise-backoffice.git/internal/kafka"
	"github.com/ariefcatur/go-franchise-backoffice.git/internal/orders"
	"github.com/ariefcatur/go-franchise-backoffice.git/internal/redisx"
)

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &alerts.Service{
		Redis:       rdb,
		ServiceName: cfg.ServiceName + "-alerts",
	}

	group := getenv("ALERTS_GROUP", "stock-alerts")
	workers := mustAtoi(os.Getenv("ALERTS_WORKERS"), "4")
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, orders.TopicStockLow, workers)

	go func() {
		log.Printf("alerts consumer started: group=%s topic=%s workers=%d", group, orders.TopicStockLow, workers)
		if err := cons.Start(ctx, svc.HandleStockLow); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down consumer...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
