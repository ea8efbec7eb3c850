package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newEntityCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entity",
		Short: "Entity lifecycle and credential commands",
	}

	cmd.AddCommand(newEntityConnectCmd())
	cmd.AddCommand(newEntityDisconnectCmd())
	cmd.AddCommand(newEntityRegisterCmd())
	cmd.AddCommand(newEntityLoginCmd())
	cmd.AddCommand(newEntityLogoutCmd())
	cmd.AddCommand(newEntityPasswordCmd())
	cmd.AddCommand(newEntityChatCmd())
	cmd.AddCommand(newEntityCommandCmd())
	cmd.AddCommand(newEntitySessionCmd())
	cmd.AddCommand(newEntityInboxCmd())
	cmd.AddCommand(newEntityShowCmd())

	return cmd
}

func entityPath(id, op string) string {
	if op == "" {
		return "/api/v1/entities/" + id
	}
	return "/api/v1/entities/" + id + "/" + op
}

func newEntityConnectCmd() *cobra.Command {
	var x, y, z float64

	cmd := &cobra.Command{
		Use:   "connect <id>",
		Short: "Connect an entity and start its authentication gate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{
				"state": map[string]any{
					"position": map[string]float64{"x": x, "y": y, "z": z},
				},
			}

			var result SessionResult
			if err := client.Post(entityPath(args[0], "connect"), req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().Float64Var(&x, "x", 0, "Spawn X coordinate")
	cmd.Flags().Float64Var(&y, "y", 64, "Spawn Y coordinate")
	cmd.Flags().Float64Var(&z, "z", 0, "Spawn Z coordinate")

	return cmd
}

func newEntityDisconnectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "disconnect <id>",
		Short: "Disconnect an entity from the world",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post(entityPath(args[0], "disconnect"), nil, nil); err != nil {
				return err
			}
			NewOutput(cfg.Output).PrintMessage("disconnected")
			return nil
		},
	}
}

func newEntityRegisterCmd() *cobra.Command {
	var user, pass string

	cmd := &cobra.Command{
		Use:   "register <id>",
		Short: "Register a new account for a gated entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if user == "" || pass == "" {
				return fmt.Errorf("--user and --pass are required")
			}

			req := map[string]string{
				"username": user,
				"password": pass,
				"confirm":  pass,
			}

			var result SessionResult
			if err := client.Post(entityPath(args[0], "register"), req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Username (required)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newEntityLoginCmd() *cobra.Command {
	var user, pass string

	cmd := &cobra.Command{
		Use:   "login <id>",
		Short: "Log a gated entity into an existing account",
		Long: `Log a gated entity into an existing account.

Omitting --user reattaches the entity to the account it was last bound to.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pass == "" {
				return fmt.Errorf("--pass is required")
			}

			req := map[string]string{
				"username": user,
				"password": pass,
			}

			var result SessionResult
			if err := client.Post(entityPath(args[0], "login"), req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Username (optional if previously bound)")
	cmd.Flags().StringVar(&pass, "pass", "", "Password (required)")
	_ = cmd.MarkFlagRequired("pass")

	return cmd
}

func newEntityLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout <id>",
		Short: "Unbind an entity's account and disconnect it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post(entityPath(args[0], "logout"), nil, nil); err != nil {
				return err
			}
			NewOutput(cfg.Output).PrintMessage("logged out")
			return nil
		},
	}
}

func newEntityPasswordCmd() *cobra.Command {
	var current, newPass string

	cmd := &cobra.Command{
		Use:   "password <id>",
		Short: "Change the password of an authenticated entity's account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if current == "" || newPass == "" {
				return fmt.Errorf("--current and --new are required")
			}

			req := map[string]string{
				"current": current,
				"new":     newPass,
				"confirm": newPass,
			}

			if err := client.Post(entityPath(args[0], "password"), req, nil); err != nil {
				return err
			}
			NewOutput(cfg.Output).PrintMessage("password changed")
			return nil
		},
	}

	cmd.Flags().StringVar(&current, "current", "", "Current password (required)")
	cmd.Flags().StringVar(&newPass, "new", "", "New password (required)")
	_ = cmd.MarkFlagRequired("current")
	_ = cmd.MarkFlagRequired("new")

	return cmd
}

func newEntityChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat <id> <text>",
		Short: "Ask the gate whether the entity may chat",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"text": args[1]}

			var result DecisionResult
			if err := client.Post(entityPath(args[0], "chat"), req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newEntityCommandCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "command <id> <name>",
		Short: "Ask the gate whether the entity may run a command",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]string{"name": args[1]}

			var result DecisionResult
			if err := client.Post(entityPath(args[0], "command"), req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newEntitySessionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "session <id>",
		Short: "Show an entity's gate state and remaining grace time",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result SessionResult
			if err := client.Get(entityPath(args[0], "session"), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newEntityInboxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inbox <id>",
		Short: "Show messages and titles delivered to an entity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result InboxResult
			if err := client.Get(entityPath(args[0], "inbox"), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}

func newEntityShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show an entity's live world state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result EntityResult
			if err := client.Get(entityPath(args[0], ""), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output).Print(result)
			return nil
		},
	}
}
