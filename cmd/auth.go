package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bchakour/tb/internal/client"
	"github.com/bchakour/tb/internal/models"
)

var (
	loginEmail    string
	loginPassword string

	registerName     string
	registerEmail    string
	registerPassword string
	registerRole     string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store a session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		return loginRun()
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Discard the stored session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		return logoutRun()
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return whoamiRun()
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a new account",
	RunE: func(cmd *cobra.Command, args []string) error {
		return registerRun()
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (prompted if omitted)")

	registerCmd.Flags().StringVar(&registerName, "name", "", "Display name")
	registerCmd.Flags().StringVar(&registerEmail, "email", "", "Account email")
	registerCmd.Flags().StringVar(&registerPassword, "password", "", "Account password (prompted if omitted)")
	registerCmd.Flags().StringVar(&registerRole, "role", "MEMBER", "Role: MEMBER, PRODUCT_OWNER, SCRUM_MASTER")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(registerCmd)
}

// promptLine reads one line from stdin after printing a label.
func promptLine(label string) (string, error) {
	fmt.Fprintf(ui.Out, "%s: ", label)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func loginRun() error {
	var err error
	if loginEmail == "" {
		if loginEmail, err = promptLine("Email"); err != nil {
			return err
		}
	}
	if loginPassword == "" {
		if loginPassword, err = promptLine("Password"); err != nil {
			return err
		}
	}

	c, err := getClient()
	if err != nil {
		return err
	}

	result, err := c.Login(context.Background(), loginEmail, loginPassword)
	if err != nil {
		return err
	}

	ui.Success("Logged in as %s <%s>", result.User.Name, result.User.Email)
	return nil
}

func logoutRun() error {
	c, err := getClient()
	if err != nil {
		return err
	}

	c.Logout()
	ui.Success("Logged out")
	return nil
}

func whoamiRun() error {
	c, err := getClient()
	if err != nil {
		return err
	}

	user, err := c.CurrentUser(context.Background())
	if err != nil {
		if client.IsUnauthorized(err) {
			ui.Info("Not signed in. Use 'tb login' to sign in.")
			return nil
		}
		return err
	}

	fmt.Fprintf(ui.Out, "%s <%s> (%s)\n", user.Name, user.Email, user.Role)
	return nil
}

func registerRun() error {
	var err error
	if registerName == "" {
		if registerName, err = promptLine("Name"); err != nil {
			return err
		}
	}
	if registerEmail == "" {
		if registerEmail, err = promptLine("Email"); err != nil {
			return err
		}
	}
	if registerPassword == "" {
		if registerPassword, err = promptLine("Password"); err != nil {
			return err
		}
	}

	role := models.UserRole(strings.ToUpper(registerRole))
	if !role.Valid() {
		return fmt.Errorf("unknown role: %s (use: MEMBER, PRODUCT_OWNER, SCRUM_MASTER)", registerRole)
	}

	c, err := getClient()
	if err != nil {
		return err
	}

	user, err := c.Register(context.Background(), client.RegisterRequest{
		Name:     registerName,
		Email:    registerEmail,
		Password: registerPassword,
		Role:     role,
	})
	if err != nil {
		return err
	}

	ui.Success("Account created for %s <%s>. Use 'tb login' to sign in.", user.Name, user.Email)
	return nil
}
