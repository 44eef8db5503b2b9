package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/belegpilot/extraction-service/internal/config"
	"github.com/belegpilot/extraction-service/internal/database"
	"github.com/belegpilot/extraction-service/internal/domain"
	"github.com/belegpilot/extraction-service/internal/repository"
)

const keyPrefixLen = 12

// main generates a new API key, stores its bcrypt digest and prints the
// plaintext once. The plaintext cannot be recovered afterwards.
func main() {
	name := flag.String("name", "", "human-readable name for the key (required)")
	description := flag.String("description", "", "optional description")
	flag.Parse()

	if *name == "" {
		fmt.Fprintln(os.Stderr, "usage: genkey -name <name> [-description <text>]")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	plaintext, err := generateKey()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate key: %v\n", err)
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to hash key: %v\n", err)
		os.Exit(1)
	}

	key := &domain.APIKey{
		ID:        uuid.New(),
		Name:      *name,
		KeyHash:   string(hash),
		KeyPrefix: plaintext[:keyPrefixLen],
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if *description != "" {
		key.Description = description
	}

	keyRepo := repository.NewPostgresAPIKeyRepository(db.GetPool())
	if err := keyRepo.CreateKey(ctx, key); err != nil {
		fmt.Fprintf(os.Stderr, "failed to store key: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("API key created for %q\n", *name)
	fmt.Printf("  id:     %s\n", key.ID)
	fmt.Printf("  prefix: %s\n", key.KeyPrefix)
	fmt.Printf("  key:    %s\n", plaintext)
	fmt.Println("Store the key now; it cannot be shown again.")
}

// generateKey returns a new plaintext key with a recognizable prefix so
// leaked keys can be found by scanners.
func generateKey() (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	return "riq_live_" + hex.EncodeToString(raw), nil
}
