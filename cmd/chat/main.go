package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/joho/godotenv"

	"github.com/farmhand-id/platform_be/internal/chatstate"
	"github.com/farmhand-id/platform_be/internal/chatui"
	"github.com/farmhand-id/platform_be/internal/client"
	"github.com/farmhand-id/platform_be/internal/config"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadClient()

	flag.StringVar(&cfg.APIURL, "api", cfg.APIURL, "API base URL")
	flag.StringVar(&cfg.Email, "email", cfg.Email, "account email")
	flag.DurationVar(&cfg.PollInterval, "poll", cfg.PollInterval, "conversation refresh interval")
	flag.Parse()

	if cfg.Email == "" || cfg.Password == "" {
		log.Fatal("set FARMHAND_EMAIL and FARMHAND_PASSWORD (or -email)")
	}

	// Log to a file so output does not tear the alternate screen.
	if f, err := os.OpenFile("farmhand-chat.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600); err == nil {
		log.SetOutput(f)
		defer f.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store := &client.MemorySession{}
	api := client.New(cfg.APIURL, store)

	session, err := api.Login(ctx, cfg.Email, cfg.Password)
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Fatal("login failed: ", err)
	}
	store.Set(session)

	me, err := api.GetProfile(ctx, session.UserID)
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Fatal("load profile: ", err)
	}

	ctl := chatstate.NewController(api, session.UserID)
	err = chatui.Run(ctx, ctl, chatui.Config{
		Me:           session.UserID,
		Name:         me.FullName,
		PollInterval: cfg.PollInterval,
		OnLogout:     store.Clear,
	})
	if err != nil {
		log.Println("chat exited:", err)
	}
}
