// Command token mints operator access tokens for the mutating API routes.
//
// Usage:
//
//	AUTH_SIGNING_KEY=... token -sub alice -ttl 12h
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pulseboard/pulseboard/internal/auth"
	"github.com/pulseboard/pulseboard/internal/config"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, config.Load().Auth); err != nil {
		fmt.Fprintln(os.Stderr, "token:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer, cfg config.AuthConfig) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	fs.SetOutput(out)

	subject := fs.String("sub", "", "operator name (required)")
	scope := fs.String("scope", "dashboard:write", "space separated scopes")
	ttl := fs.Duration("ttl", auth.DefaultTokenExpiry, "token lifetime")
	verbose := fs.Bool("v", false, "also print the expiry time")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if !cfg.Enabled() {
		return errors.New("AUTH_SIGNING_KEY is not set")
	}

	svc := auth.NewJWTService(auth.JWTConfig{
		SigningKey: cfg.SigningKey,
		Issuer:     cfg.Issuer,
		Audience:   cfg.Audience,
	})

	token, expiresAt, err := svc.GenerateAccessToken(*subject, *scope, *ttl)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, token)
	if *verbose {
		fmt.Fprintf(out, "expires %s\n", expiresAt.UTC().Format(time.RFC3339))
	}
	return nil
}
