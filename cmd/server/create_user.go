package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stockroom/internal/auth"
	"stockroom/internal/auth/service"
	"stockroom/internal/domain"
)

var newUser struct {
	username  string
	email     string
	password  string
	firstName string
	lastName  string
	role      string
}

// create-user bootstraps the first admin, since approvals need an admin.
var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create an active account without the approval queue",
	RunE: func(cmd *cobra.Command, _ []string) error {
		rt, err := boot()
		if err != nil {
			return err
		}
		defer rt.close()

		mod, err := auth.NewModule(rt.db, rt.cfg, rt.logger)
		if err != nil {
			return err
		}

		u, err := mod.Service.CreateUser(cmd.Context(), service.NewUser{
			Username:  newUser.username,
			Email:     newUser.email,
			Password:  newUser.password,
			FirstName: optionalFlag(newUser.firstName),
			LastName:  optionalFlag(newUser.lastName),
			Role:      newUser.role,
		})
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id %d, role %s)\n", u.Username, u.ID, u.Role)
		return nil
	},
}

func init() {
	f := createUserCmd.Flags()
	f.StringVar(&newUser.username, "username", "", "login name")
	f.StringVar(&newUser.email, "email", "", "email address")
	f.StringVar(&newUser.password, "password", "", "initial password")
	f.StringVar(&newUser.firstName, "firstname", "", "first name")
	f.StringVar(&newUser.lastName, "lastname", "", "last name")
	f.StringVar(&newUser.role, "role", domain.RoleAdmin, "admin, staff or user")

	for _, name := range []string{"username", "email", "password"} {
		_ = createUserCmd.MarkFlagRequired(name)
	}
}

func optionalFlag(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
