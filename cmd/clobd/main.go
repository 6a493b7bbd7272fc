package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"gopherex.com/internal/clobd/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clobApp, err := app.New("clobd")
	if err != nil {
		log.Fatalf("init clobd error: %v", err)
	}

	cleanUp := clobApp.StartService(ctx)
	defer cleanUp()

	srv := clobApp.StartHttp()
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("clobd ListenAndServe error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("clobd shutdown error: %v", err)
	}
	log.Println("clobd exit")
}
