package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fintechbank/txwatch/internal/backend"
	"github.com/fintechbank/txwatch/internal/domain"
	"github.com/fintechbank/txwatch/internal/logger"
	"github.com/fintechbank/txwatch/internal/review"
	"github.com/rs/zerolog"
)

func main() {
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "review":
		runReview(log)
	case "list":
		runList(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Transaction Review Console")
	fmt.Println("\nUsage:")
	fmt.Println("  console <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  review    Approve or reject a flagged transaction")
	fmt.Println("  list      List transactions for an account")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'console <command> -h' for more information on a command.")
}

func runReview(log zerolog.Logger) {
	fs := flag.NewFlagSet("review", flag.ExitOnError)
	txID := fs.String("tx", "", "Transaction id to review")
	decision := fs.String("decision", "", "Decision to record: approve or reject")
	comment := fs.String("comment", "", "Optional analyst comment")
	analystID := fs.String("analyst", os.Getenv("TXWATCH_ANALYST_ID"), "Analyst id (or set TXWATCH_ANALYST_ID)")
	backendURL := fs.String("backend-url", envOr("TXWATCH_BACKEND_URL", "http://localhost:8000"), "Fraud gateway base URL")
	token := fs.String("token", os.Getenv("TXWATCH_TOKEN"), "Session bearer token (or set TXWATCH_TOKEN)")
	fs.Parse(os.Args[2:])

	if *txID == "" {
		log.Fatal().Msg("Error: --tx is required")
	}
	if *analystID == "" {
		log.Fatal().Msg("Error: --analyst is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := backend.NewClient(*backendURL, *token, log)
	console := review.NewConsole(client, *analystID, log)

	var err error
	switch strings.ToLower(*decision) {
	case "approve", "approved":
		err = console.Approve(ctx, *txID, *comment)
	case "reject", "rejected":
		err = console.Reject(ctx, *txID, *comment)
	default:
		log.Fatal().Msg("Error: --decision must be 'approve' or 'reject'")
	}

	if err != nil {
		var apiErr *backend.APIError
		if errors.As(err, &apiErr) {
			fmt.Fprintf(os.Stderr, "Review failed: %s\n", apiErr.UserMessage())
		} else {
			fmt.Fprintf(os.Stderr, "Review failed: %v\n", err)
		}
		os.Exit(1)
	}

	fmt.Printf("Recorded %s for %s.\n", *decision, *txID)
}

func runList(log zerolog.Logger) {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	accountID := fs.String("account", os.Getenv("TXWATCH_ACCOUNT_ID"), "Account id (or set TXWATCH_ACCOUNT_ID)")
	backendURL := fs.String("backend-url", envOr("TXWATCH_BACKEND_URL", "http://localhost:8000"), "Fraud gateway base URL")
	token := fs.String("token", os.Getenv("TXWATCH_TOKEN"), "Session bearer token (or set TXWATCH_TOKEN)")
	flagged := fs.Bool("flagged", false, "Only show transactions awaiting review")
	fs.Parse(os.Args[2:])

	if *accountID == "" {
		log.Fatal().Msg("Error: --account is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client := backend.NewClient(*backendURL, *token, log)
	records, err := client.ListTransactions(ctx, *accountID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list transactions")
	}

	for _, tx := range records {
		if *flagged && (tx.Status != domain.StatusSuspicious || tx.Finalized()) {
			continue
		}
		fmt.Printf("%-14s %10s  %-10s", tx.ID, domain.FormatAmount(tx.Amount), tx.Status)
		if tx.Finalized() {
			fmt.Printf("  reviewed by %s", tx.ReviewedBy)
		} else if tx.NeedsAuthentication() {
			fmt.Print("  awaiting account holder")
		}
		fmt.Println()
	}
	fmt.Printf("%d transaction(s).\n", len(records))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
