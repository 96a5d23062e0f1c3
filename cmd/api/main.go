package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/farmhand-id/platform_be/internal/config"
	"github.com/farmhand-id/platform_be/internal/db"
	"github.com/farmhand-id/platform_be/internal/handlers"
	"github.com/farmhand-id/platform_be/internal/messaging"
	"github.com/farmhand-id/platform_be/internal/sessions"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	gdb, err := db.Connect(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal(err)
	}

	rdb := sessions.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Fatal("redis unreachable: ", err)
	}
	log.Println("redis connected, session revocation enabled")

	verifier := sessions.NewJWTVerifier(cfg.JWTSecret, sessions.NewRedisRevocations(rdb))
	gate := messaging.NewGate(messaging.NewGormStore(gdb), verifier, cfg.MessageMaxLength)

	app := handlers.NewApp(handlers.Deps{
		DB:            gdb,
		Gate:          gate,
		Sessions:      verifier,
		JWTSecret:     cfg.JWTSecret,
		JWTExpiresMin: cfg.JWTExpiresMin,
		CORSOrigins:   cfg.CORSOrigins,
		AccessLog:     true,
	})

	log.Fatal(app.Listen(":" + cfg.AppPort))
}
