package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cmlabs-hris/presence-backend-go/internal/config"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/jwt"
)

func newTokenCmd() *cobra.Command {
	var (
		employeeID string
		role       string
		ttl        time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for an employee",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("error loading config: %w", err)
			}
			if ttl <= 0 {
				ttl = cfg.JWT.AccessExpiration
			}

			r, ok := user.ParseRole(role)
			if !ok {
				return fmt.Errorf("%w: %q", user.ErrInvalidRole, role)
			}

			token, expiresAt, err := jwt.NewJWTService(cfg.JWT.Secret, ttl).GenerateAccessToken(user.Principal{
				EmployeeID: employeeID,
				Role:       r,
			})
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires at %s\n", time.Unix(expiresAt, 0).Format(time.RFC3339))
			return nil
		},
	}

	cmd.Flags().StringVar(&employeeID, "employee", "", "Employee ID the token is issued for")
	cmd.Flags().StringVar(&role, "role", string(user.RoleEmployee), "Role: admin, manager, employee")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to JWT_ACCESS_EXPIRATION_TIME)")
	_ = cmd.MarkFlagRequired("employee")
	return cmd
}
