package main

import (
	"fmt"
	"os"

	"hr-go/internal/app"
	"hr-go/internal/hr"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// passwordFlag returns the --password value, prompting on the terminal when it was not
// given.
func passwordFlag(cmd *cobra.Command) (string, error) {
	if cmd.Flags().Changed("password") {
		return cmd.Flags().GetString("password")
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("--password is required when stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(pw), nil
}

// user command
var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage user accounts",
}

var userAddCmd = &cobra.Command{
	Use:   "add USERNAME",
	Short: "Create a user account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := passwordFlag(cmd)
		if err != nil {
			return err
		}
		role, _ := cmd.Flags().GetString("role")
		name, _ := cmd.Flags().GetString("name")
		inactive, _ := cmd.Flags().GetBool("inactive")

		a, ctx, err := newApp(cmd, "UserAdd")
		if err != nil {
			return err
		}
		defer a.Close()

		u, err := a.AddUser(ctx, &hr.User{
			Username: args[0],
			Password: password,
			FullName: name,
			Role:     role,
			Active:   !inactive,
		})
		if err != nil {
			return fmt.Errorf("creating user: %w", err)
		}

		fmt.Printf("Created user %s (%s)\n", u.Username, u.ID)
		return nil
	},
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List user accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, ctx, err := newApp(cmd, "UserList")
		if err != nil {
			return err
		}
		defer a.Close()

		users, err := a.ListUsers(ctx)
		if err != nil {
			return err
		}

		for _, u := range users {
			p := app.Public(u)
			state := "active"
			if !p.Active {
				state = "inactive"
			}
			lastLogin := "never"
			if p.LastLogin != nil {
				lastLogin = *p.LastLogin
			}
			fmt.Printf("%-16s  %-14s  %-8s  %-20s  %s\n", p.Username, p.Role, state, lastLogin, p.FullName)
		}
		return nil
	},
}

var userUpdateCmd = &cobra.Command{
	Use:   "update REF",
	Short: "Update a user account by id or username",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		patch := hr.Fields{}
		for flag, key := range map[string]string{"password": "password", "role": "role", "name": "fullName", "username": "username"} {
			if cmd.Flags().Changed(flag) {
				v, _ := cmd.Flags().GetString(flag)
				patch[key] = v
			}
		}
		if cmd.Flags().Changed("active") {
			v, _ := cmd.Flags().GetBool("active")
			patch["active"] = v
		}
		if len(patch) == 0 {
			return fmt.Errorf("nothing to update")
		}

		a, ctx, err := newApp(cmd, "UserUpdate")
		if err != nil {
			return err
		}
		defer a.Close()

		u, err := a.UpdateUser(ctx, args[0], patch)
		if err != nil {
			return fmt.Errorf("updating user: %w", err)
		}

		fmt.Printf("Updated user %s\n", u.Username)
		return nil
	},
}

var userDeleteCmd = &cobra.Command{
	Use:   "delete REF",
	Short: "Delete a user account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, ctx, err := newApp(cmd, "UserDelete")
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.DeleteUser(ctx, args[0]); err != nil {
			return fmt.Errorf("deleting user: %w", err)
		}

		fmt.Printf("Deleted user %s\n", args[0])
		return nil
	},
}

// login command
var loginCmd = &cobra.Command{
	Use:   "login USERNAME",
	Short: "Check credentials and record the login",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := passwordFlag(cmd)
		if err != nil {
			return err
		}

		a, ctx, err := newApp(cmd, "Login")
		if err != nil {
			return err
		}
		defer a.Close()

		u, err := a.Login(hr.WithActor(ctx, args[0]), args[0], password)
		if err != nil {
			return err
		}

		fmt.Printf("Logged in as %s (%s)\n", u.Username, u.Role)
		return nil
	},
}

func init() {
	userAddCmd.Flags().StringP("password", "p", "", "Password (prompted when omitted)")
	userAddCmd.Flags().String("role", hr.RoleSupervisor, "Role (admin, site_incharge, supervisor, consultant)")
	userAddCmd.Flags().String("name", "", "Full name")
	userAddCmd.Flags().Bool("inactive", false, "Create the account deactivated")

	userUpdateCmd.Flags().StringP("password", "p", "", "New password")
	userUpdateCmd.Flags().String("role", "", "New role")
	userUpdateCmd.Flags().String("name", "", "New full name")
	userUpdateCmd.Flags().String("username", "", "New username")
	userUpdateCmd.Flags().Bool("active", true, "Activate or deactivate the account")

	loginCmd.Flags().StringP("password", "p", "", "Password (prompted when omitted)")

	userCmd.AddCommand(userAddCmd)
	userCmd.AddCommand(userListCmd)
	userCmd.AddCommand(userUpdateCmd)
	userCmd.AddCommand(userDeleteCmd)

	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(loginCmd)
}
