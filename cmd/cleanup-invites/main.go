// Command cleanup-invites deletes stale pending invitations.
//
// Usage:
//
//	cleanup-invites [-max-age 720h]
//
// Requires COLLAB_STORE_BASE_URL and COLLAB_STORE_API_KEY to be set.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/lbrode/clientspace/internal/collab"
)

func main() {
	maxAge := flag.Duration("max-age", 30*24*time.Hour, "delete pending invitations older than this")
	flag.Parse()

	baseURL := os.Getenv("COLLAB_STORE_BASE_URL")
	apiKey := os.Getenv("COLLAB_STORE_API_KEY")
	if baseURL == "" || apiKey == "" {
		log.Fatal("COLLAB_STORE_BASE_URL and COLLAB_STORE_API_KEY environment variables are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store := collab.New(collab.Config{BaseURL: baseURL, APIKey: apiKey}, slog.Default())

	deleted, err := store.DeletePendingInvitationsBefore(ctx, time.Now().Add(-*maxAge))
	if err != nil {
		log.Fatalf("cleanup invitations: %v", err)
	}

	fmt.Printf("Deleted %d stale pending invitations.\n", deleted)
}
