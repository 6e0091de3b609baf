package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shenikar/saferoute/internal/auth"
	"github.com/shenikar/saferoute/internal/config"
	"github.com/shenikar/saferoute/internal/models"
	"github.com/shenikar/saferoute/internal/repository"
	"github.com/shenikar/saferoute/pkg/postgres"
)

func newTokenCmd() *cobra.Command {
	var (
		userID   string
		role     string
		ttl      time.Duration
		register bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			identity := models.Identity{Role: models.Role(role)}
			switch identity.Role {
			case models.RoleStudent, models.RoleVolunteer, models.RoleAdmin:
			default:
				return fmt.Errorf("unknown role %q", role)
			}
			if userID == "" {
				identity.UserID = uuid.New()
			} else if identity.UserID, err = uuid.Parse(userID); err != nil {
				return fmt.Errorf("invalid user id: %w", err)
			}

			// Пользователь должен существовать в проекции, иначе создание инцидента вернет NotFound
			if register {
				pool, err := postgres.NewPostgresDB(cmd.Context(), cfg)
				if err != nil {
					return fmt.Errorf("failed to connect to PostgreSQL: %w", err)
				}
				defer pool.Close()

				user := &models.User{ID: identity.UserID, Role: identity.Role}
				if err := repository.NewUserRepository(pool).Register(cmd.Context(), user); err != nil {
					return err
				}
			}

			tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer)
			if err != nil {
				return err
			}
			token, expiresAt, err := tokens.Issue(identity, ttl)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "user_id:    %s\n", identity.UserID)
			fmt.Fprintf(out, "role:       %s\n", identity.Role)
			fmt.Fprintf(out, "expires_at: %s\n", expiresAt.Format(time.RFC3339))
			fmt.Fprintln(out, token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User UUID (random when empty)")
	cmd.Flags().StringVar(&role, "role", string(models.RoleStudent), "Role: student, volunteer or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Token lifetime")
	cmd.Flags().BoolVar(&register, "register", false, "Upsert the user into the users table")
	return cmd
}
