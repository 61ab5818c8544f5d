// Package main is an operator CLI for registration links and admin
// credentials. It signs with the same JWT_SECRET_KEY and BASE_URL the server
// loads, so links it prints work against a running deployment.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"ezyassist/internal/platform/config"
	"ezyassist/internal/regtoken"
	"ezyassist/pkg/secrets"
)

type linkOutput struct {
	URL       string         `json:"url"`
	Purpose   string         `json:"purpose"`
	ExpiresIn string         `json:"expires_in"`
	Claims    map[string]any `json:"claims"`
}

func main() {
	linkCmd := flag.NewFlagSet("link", flag.ExitOnError)
	verifyCmd := flag.NewFlagSet("verify", flag.ExitOnError)
	hashCmd := flag.NewFlagSet("hash-password", flag.ExitOnError)

	linkSubject := linkCmd.Int64("subject-id", 0, "Telegram user id the link is bound to (required)")
	linkHandle := linkCmd.String("handle", "", "Telegram username")
	linkPurpose := linkCmd.String("purpose", string(regtoken.PurposeInitial), "initial, initial_with_setup, resubmission or campaign")
	linkRecord := linkCmd.String("record-id", "", "Registration record id (resubmission links)")
	linkCampaign := linkCmd.String("campaign-id", "", "Campaign id (campaign links)")
	linkSetup := linkCmd.String("setup-action", "", "Setup choice carried by initial_with_setup links")
	linkJSON := linkCmd.Bool("json", false, "Output as JSON")

	verifyJSON := verifyCmd.Bool("json", false, "Output as JSON")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "link":
		linkCmd.Parse(os.Args[2:]) //nolint:errcheck // ExitOnError
		issueLink(regtoken.IssueRequest{
			SubjectID:      *linkSubject,
			SubjectHandle:  *linkHandle,
			Purpose:        regtoken.Purpose(*linkPurpose),
			LinkedRecordID: *linkRecord,
			CampaignID:     *linkCampaign,
			SetupAction:    *linkSetup,
		}, *linkJSON)
	case "verify":
		verifyCmd.Parse(os.Args[2:]) //nolint:errcheck // ExitOnError
		if verifyCmd.NArg() != 1 {
			fail("verify takes exactly one token argument")
		}
		verifyToken(verifyCmd.Arg(0), *verifyJSON)
	case "hash-password":
		hashCmd.Parse(os.Args[2:]) //nolint:errcheck // ExitOnError
		hashPassword()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`tokengen - registration links and admin credentials for EzyAssist

Usage:
  tokengen <command> [flags]

Commands:
  link           Mint a registration link for a Telegram user
  verify         Decode and check a registration token
  hash-password  Read a password from stdin and print its bcrypt hash

Examples:
  # Initial registration link
  tokengen link -subject-id 123456789 -handle aina

  # Resubmission link for a record on hold
  tokengen link -subject-id 123456789 -purpose resubmission -record-id 6f1c...

  # Campaign link
  tokengen link -subject-id 123456789 -purpose campaign -campaign-id raya-2025

  # Value for ADMIN_PASSWORD_HASH
  echo -n 's3cret' | tokengen hash-password

Signing uses JWT_SECRET_KEY and BASE_URL from the environment, .env or config.yaml.`)
}

func loadTokens() *regtoken.Links {
	cfg, err := config.Load()
	if err != nil {
		fail("load config: %v", err)
	}
	if cfg.Tokens.SigningKey == "" {
		fail("JWT_SECRET_KEY is not set")
	}
	svc := regtoken.NewService(cfg.Tokens.SigningKey,
		regtoken.DefaultPolicy(cfg.Tokens.FormTimeout, cfg.Tokens.ResubmissionTTL))
	return regtoken.NewLinks(cfg.Server.BaseURL, svc)
}

func issueLink(req regtoken.IssueRequest, jsonOutput bool) {
	links := loadTokens()
	url, err := links.Issue(context.Background(), req)
	if err != nil {
		fail("issue link: %v", err)
	}
	ttl := links.Tokens().TTL(req.Purpose)

	if jsonOutput {
		printJSON(linkOutput{
			URL:       url,
			Purpose:   string(req.Purpose),
			ExpiresIn: ttl.String(),
			Claims: map[string]any{
				"telegram_id":       req.SubjectID,
				"telegram_username": req.SubjectHandle,
				"record_id":         req.LinkedRecordID,
				"campaign_id":       req.CampaignID,
				"setup_action":      req.SetupAction,
			},
		})
		return
	}
	fmt.Println("Registration Link")
	fmt.Println("=================")
	fmt.Printf("Purpose:     %s\n", req.Purpose)
	fmt.Printf("Subject:     %d\n", req.SubjectID)
	if req.SubjectHandle != "" {
		fmt.Printf("Handle:      @%s\n", req.SubjectHandle)
	}
	if req.LinkedRecordID != "" {
		fmt.Printf("Record ID:   %s\n", req.LinkedRecordID)
	}
	if req.CampaignID != "" {
		fmt.Printf("Campaign ID: %s\n", req.CampaignID)
	}
	fmt.Printf("Expires In:  %s\n", ttl)
	fmt.Println()
	fmt.Println(url)
}

func verifyToken(token string, jsonOutput bool) {
	links := loadTokens()
	claims, err := links.Tokens().Verify(strings.TrimSpace(token))
	if err != nil {
		fail("%v", err)
	}
	if jsonOutput {
		printJSON(claims)
		return
	}
	fmt.Println("Token is valid")
	fmt.Printf("Purpose:     %s\n", claims.Purpose)
	fmt.Printf("Subject:     %d\n", claims.SubjectID)
	fmt.Printf("Issued At:   %s\n", claims.IssuedAtTime().Format(time.RFC3339))
	fmt.Printf("Expires At:  %s\n", claims.ExpiresAtTime().Format(time.RFC3339))
}

func hashPassword() {
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		fail("read password from stdin: %v", err)
	}
	hash, err := secrets.HashPassword(strings.TrimRight(line, "\r\n"))
	if err != nil {
		fail("hash password: %v", err)
	}
	fmt.Println(hash)
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fail("encode JSON: %v", err)
	}
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
