// Command devtoken prints an access token for local development.  Real
// tokens come from the identity provider; this one is signed with the same
// JWT_SECRET the server reads, so curl and the web client can talk to a
// local server.
//
//	go run ./cmd/devtoken -sub artist-1 -role artist -username joaosilva
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/tocafy/tocafy-server/internal/middleware"
	"github.com/tocafy/tocafy-server/internal/utils"
)

func main() {
	_ = godotenv.Load()

	sub := flag.String("sub", "", "subject (user id)")
	role := flag.String("role", middleware.RoleArtist, "role claim: artist or audience")
	username := flag.String("username", "", "artist username used for show codes")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is not set")
		os.Exit(1)
	}
	tok, err := utils.NewAccessToken(secret, utils.Claims{Subject: *sub, Role: *role, Username: *username}, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "devtoken: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(tok.Token)
}
