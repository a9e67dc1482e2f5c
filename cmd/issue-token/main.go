// Command issue-token signs a caller token for local testing and back-office scripts.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"storefront-orders/internal/core/auth"
	"storefront-orders/internal/core/config"
)

func main() {
	role := flag.String("role", string(auth.RoleUser), "caller role: user, staff or admin")
	subject := flag.String("subject", "", "caller id")
	email := flag.String("email", "", "caller email")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *subject == "" {
		log.Fatal("-subject is required")
	}
	switch auth.Role(*role) {
	case auth.RoleUser, auth.RoleStaff, auth.RoleAdmin:
	default:
		log.Fatalf("unknown role %q", *role)
	}

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	token, err := auth.IssueToken(cfg.Auth.JWTSecret, auth.Identity{
		CallerID: *subject,
		Email:    *email,
		Role:     auth.Role(*role),
	}, *ttl)
	if err != nil {
		log.Fatalf("Failed to issue token: %v", err)
	}
	fmt.Println(token)
}
