package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/smena/smena_backend/config"
	"github.com/smena/smena_backend/db"
	"github.com/smena/smena_backend/internal/routes"
	"github.com/smena/smena_backend/internal/services/timeclock"
)

func main() {
	cfg := config.NewConfig()
	database := db.InitDB(cfg.DatabaseDSN)
	defer database.Close()

	redisClient := config.NewRedisClient()
	defer redisClient.Close()

	router, _, clockSvc := routes.Setup(cfg, database, redisClient)

	go autoClockOutLoop(clockSvc)

	serverAddress := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("🚀 Server starting on %s", serverAddress)
	log.Fatal(http.ListenAndServe(serverAddress, router))
}

// autoClockOutLoop закрывает просроченные смены: один проход на старте,
// дальше раз в минуту.
func autoClockOutLoop(svc *timeclock.Service) {
	log.Println("✅ Auto clock-out job started")
	if count, err := svc.Sweep(context.Background()); err != nil {
		log.Printf("❌ Startup sweep failed: %v", err)
	} else {
		log.Printf("✅ Startup sweep: closed %d shifts", count)
	}

	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		if count, err := svc.Sweep(context.Background()); err != nil {
			log.Printf("❌ Auto clock-out failed: %v", err)
		} else if count > 0 {
			log.Printf("✅ Auto clock-out: closed %d expired shifts", count)
		}
	}
}
