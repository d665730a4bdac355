package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"getgsa/onboarding/pkg/cli"
	"getgsa/onboarding/pkg/security/auth"
)

var tokenTTL time.Duration

var tokenCmd = &cobra.Command{
	Use:   "token SUBJECT",
	Short: "Issue an API bearer token",
	Long: `Issue a signed bearer token for SUBJECT using the configured secret key.
The token is accepted by the API server when authentication is enabled.

Examples:
  getgsa token reviewer@example.com
  getgsa token intake-bot --ttl 720h`,
	Args: cobra.ExactArgs(1),
	RunE: issueToken,
}

func init() {
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime (default from security.auth.token_ttl)")
	rootCmd.AddCommand(tokenCmd)
}

type issuedToken struct {
	Subject   string    `json:"subject"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (t issuedToken) WriteText(w io.Writer) error {
	_, err := fmt.Fprintln(w, t.Token)
	return err
}

func issueToken(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	authCfg := cfg.Security.Auth
	if tokenTTL < 0 {
		return cli.NewConfigError("--ttl", "must not be negative")
	}
	if tokenTTL > 0 {
		authCfg.TokenTTL = tokenTTL
	}

	tokens, err := auth.NewTokenManager(cfg.Security.SecretKey, authCfg)
	if err != nil {
		return cli.NewConfigError("security", err.Error())
	}
	token, err := tokens.Issue(args[0])
	if err != nil {
		return cli.NewCommandError("token", err)
	}
	return printResult(cmd, issuedToken{
		Subject:   args[0],
		Token:     token,
		ExpiresAt: time.Now().Add(tokens.TTL()).UTC().Truncate(time.Second),
	})
}
