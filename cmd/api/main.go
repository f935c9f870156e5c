package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"medibot-schedule/internal/router"
)

func main() {
	addr := ":8080"
	if v := os.Getenv("PORT"); v != "" {
		addr = ":" + v
	}

	r := router.NewRouter(router.Options{AuthVerifier: nil}) // sin verifier para modo dev

	srv := &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: 5 * time.Second,
		// el stream SSE de la agenda es long-lived: sin WriteTimeout global
		WriteTimeout: 0,
	}

	log.Printf("starting server on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
