package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/steepleworks/chorus/platform/go/session"
)

// Mints a signed session token for local development, so the console can be
// exercised without an identity provider in front of it. Paste the output
// into the session cookie.
func main() {
	secret := flag.String("secret", "", "session secret (must match SESSION_SECRET)")
	userID := flag.String("user-id", "", "user record id")
	email := flag.String("email", "", "email claim")
	name := flag.String("name", "", "display name")
	tenant := flag.String("tenant", "", "active church id")
	role := flag.String("role", "viewer", "role in the active church")
	expiresIn := flag.Duration("expires-in", 12*time.Hour, "token lifetime (duration, e.g. 30m, 2h)")

	flag.Parse()

	manager, err := session.NewManager(strings.TrimSpace(*secret), *expiresIn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	token, err := manager.Issue(session.Session{
		UserID:     strings.TrimSpace(*userID),
		Email:      strings.TrimSpace(*email),
		Name:       strings.TrimSpace(*name),
		TenantID:   strings.TrimSpace(*tenant),
		TenantRole: strings.TrimSpace(*role),
	}, time.Now().UTC())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(token)
}
