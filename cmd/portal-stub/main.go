// portal-stub serves an in-memory copy of the remote admissions API for
// local development.  Flags override the STUB_* environment variables.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/iliyamo/admission-portal/internal/config"
	"github.com/iliyamo/admission-portal/internal/portalstub"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()
	cfg := config.LoadStubConfig()

	flagSet := pflag.NewFlagSet("portal-stub", pflag.ContinueOnError)
	flagSet.StringVar(&cfg.Port, "port", cfg.Port, "HTTP port to listen on")
	flagSet.StringVar(&cfg.SeedFile, "seed", cfg.SeedFile, "YAML seed file (default: built-in demo data)")
	flagSet.StringVar(&cfg.JWTSecret, "secret", cfg.JWTSecret, "HS256 signing secret for access tokens")
	flagSet.IntVar(&cfg.AccessTTLMin, "access-ttl", cfg.AccessTTLMin, "access token lifetime in minutes")
	flagSet.IntVar(&cfg.RefreshTTLDays, "refresh-ttl", cfg.RefreshTTLDays, "refresh token lifetime in days")
	flagSet.IntVar(&cfg.BcryptCost, "bcrypt-cost", cfg.BcryptCost, "bcrypt cost for passwords")
	flagSet.BoolP("help", "h", false, "show help")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			flagSet.PrintDefaults()
			return nil
		}
		return err
	}
	if help, _ := flagSet.GetBool("help"); help {
		fmt.Fprintln(os.Stderr, "usage: portal-stub [flags]")
		flagSet.PrintDefaults()
		return nil
	}
	if cfg.JWTSecret == "" {
		return fmt.Errorf("a signing secret is required (--secret or STUB_JWT_SECRET)")
	}

	seed, err := portalstub.DefaultSeed()
	if cfg.SeedFile != "" {
		seed, err = portalstub.LoadSeed(cfg.SeedFile)
	}
	if err != nil {
		return fmt.Errorf("load seed: %w", err)
	}
	srv, err := portalstub.New(cfg, seed)
	if err != nil {
		return err
	}

	addr := ":" + cfg.Port
	log.Printf("portal-stub listening on %s (users=%d, posts=%d)", addr, len(seed.Users), len(seed.Posts))
	return srv.Handler().Start(addr)
}
