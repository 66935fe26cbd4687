package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"pollster/internal/platform/httpserver"

	"github.com/golang-jwt/jwt/v5"
)

// voter-token mints an X-Voter-Token for local runs, signed with
// VOTER_TOKEN_SECRET.
func main() {
	subject := flag.String("sub", "", "user id carried by the token")
	admin := flag.Bool("admin", false, "grant the admin role")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	if *subject == "" {
		log.Fatal("-sub is required")
	}
	claims := httpserver.VoterClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   *subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(*ttl)),
		},
	}
	if *admin {
		claims.Roles = []string{"admin"}
	}
	token, err := httpserver.NewVoterTokenVerifier(os.Getenv("VOTER_TOKEN_SECRET")).Sign(claims)
	if err != nil {
		log.Fatalf("sign voter token: %v", err)
	}
	fmt.Println(token)
}
