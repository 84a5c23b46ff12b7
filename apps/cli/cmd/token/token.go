package token

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vcp-platform/vcp-backend/platform/go/auth/devtoken"
)

// Command mints HS256 dev tokens accepted by the API's auth middleware.
// Local and CI use only; production tokens come from the identity service.
func Command() *cobra.Command {
	var (
		userID    string
		email     string
		secret    string
		expiresIn time.Duration
	)

	c := &cobra.Command{
		Use:   "token",
		Short: "Mint a development JWT",
		RunE: func(cmd *cobra.Command, args []string) error {
			signingSecret := secret
			if signingSecret == "" {
				signingSecret = os.Getenv("JWT_SECRET")
			}
			if signingSecret == "" {
				return fmt.Errorf("signing secret required (--secret or JWT_SECRET)")
			}

			if userID == "" {
				userID = uuid.NewString()
			}

			signed, err := devtoken.BuildSignedToken(devtoken.Params{
				UserID:    userID,
				Email:     email,
				ExpiresIn: expiresIn,
			}, []byte(signingSecret), time.Now().UTC())
			if err != nil {
				return fmt.Errorf("build token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), signed)
			return nil
		},
	}

	c.Flags().StringVar(&userID, "user-id", "", "user id claim (random UUID when omitted)")
	c.Flags().StringVar(&email, "email", "dev@example.com", "email claim")
	c.Flags().StringVar(&secret, "secret", "", "HS256 signing secret (defaults to JWT_SECRET)")
	c.Flags().DurationVar(&expiresIn, "expires-in", time.Hour, "token lifetime")
	return c
}
