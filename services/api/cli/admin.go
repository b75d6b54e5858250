package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/Alex2744-cyber/Hoff-AppV2/internal/domain"
	"github.com/Alex2744-cyber/Hoff-AppV2/internal/postgres"
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an admin account",
	Long:  `Create an admin account directly in the database, for bootstrapping a fresh install.`,
	RunE:  runCreateAdmin,
}

func init() {
	createAdminCmd.Flags().String("usuario", "", "login username")
	createAdminCmd.Flags().String("nombre", "", "display name")
	createAdminCmd.Flags().String("password", "", "password (min 8 characters)")
	rootCmd.AddCommand(createAdminCmd)
}

func runCreateAdmin(cmd *cobra.Command, _ []string) error {
	username, _ := cmd.Flags().GetString("usuario")
	name, _ := cmd.Flags().GetString("nombre")
	password, _ := cmd.Flags().GetString("password")
	if username == "" || name == "" {
		return fmt.Errorf("--usuario and --nombre are required")
	}
	if len(password) < 8 {
		return fmt.Errorf("--password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, viper.GetString("postgres_dsn"))
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()

	user := &domain.User{Username: username, Name: name, Type: domain.UserAdmin}
	if err := postgres.NewUserRepository(pool).Create(ctx, user, string(hash)); err != nil {
		return err
	}
	fmt.Printf("admin %q created (id %d)\n", user.Username, user.ID)
	return nil
}
