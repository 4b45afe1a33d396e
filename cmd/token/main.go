package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/dnhan1707/livebet/internal/auth"
	"github.com/dnhan1707/livebet/internal/config"
)

// Issues a signed bearer token for the producer REST routes. Lifetime
// comes from JWT_EXPIRES.

func main() {
	userID := flag.String("user", "producer-1", "user id claim")
	role := flag.String("role", auth.RoleProducer, "role claim")
	flag.Parse()

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set to issue tokens")
	}

	ttl, err := time.ParseDuration(cfg.JWTExpires)
	if err != nil {
		log.Fatalf("invalid JWT_EXPIRES %q: %v", cfg.JWTExpires, err)
	}

	token, err := auth.GenerateToken(*userID, *role, cfg.JWTSecret, ttl)
	if err != nil {
		log.Fatal("generate token: ", err)
	}
	fmt.Println(token)
}
