// Command token mints a host bearer token for local development.
//
// The auth collaborator issues production tokens; this tool only exists so a
// local server started with a known JWT_SECRET can be exercised with curl.
//
//	go run ./cmd/token --secret=dev-secret --user=host-1 --email=host@example.com
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/AnasTanwar5/quiz-burst/auth"
)

func main() {
	var (
		secret = flag.String("secret", "", "HMAC secret shared with the server (JWT_SECRET)")
		user   = flag.String("user", "host-1", "User id the token is issued for")
		email  = flag.String("email", "", "Email claim")
		name   = flag.String("name", "", "Display name claim")
		admin  = flag.Bool("admin", false, "Issue an admin token")
		ttl    = flag.Duration("ttl", 24*time.Hour, "Token lifetime")
	)
	flag.Parse()

	if *secret == "" {
		*secret = os.Getenv("JWT_SECRET")
	}
	if *secret == "" {
		fmt.Fprintln(os.Stderr, "Error: --secret or JWT_SECRET is required")
		os.Exit(1)
	}

	role := auth.RoleUser
	if *admin {
		role = auth.RoleAdmin
	}

	token, err := auth.NewToken(*secret, auth.Identity{
		UserID: *user,
		Email:  *email,
		Name:   *name,
		Role:   role,
	}, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
