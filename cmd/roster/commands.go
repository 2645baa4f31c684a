package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/five82/roster/internal/app"
	"github.com/five82/roster/internal/controller"
	"github.com/five82/roster/internal/directory"
)

// withRuntime boots a headless runtime, loads the current list and hands
// both to fn. Mutations need the list first since new ids derive from it.
func withRuntime(cmd *cobra.Command, flags *globalFlags, fn func(ctx context.Context, rt *app.Runtime) error) error {
	ctx := cmd.Context()
	opts := flags.options(cmd.ErrOrStderr())
	opts.Headless = true

	rt, err := app.Bootstrap(ctx, opts)
	if err != nil {
		return err
	}
	defer func() { _ = rt.Close(context.Background()) }()

	if _, err := await(ctx, rt.Controller.LoadAll()); err != nil {
		return err
	}
	return fn(ctx, rt)
}

// await waits for task and turns anything but an applied outcome into an error.
func await(ctx context.Context, task *controller.Task) (controller.Result, error) {
	res, err := task.Wait(ctx)
	if err != nil {
		return res, fmt.Errorf("%s: %w", task.Op(), err)
	}
	if !res.OK() {
		return res, fmt.Errorf("%s", res)
	}
	return res, nil
}

func parseID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid user id %q", raw)
	}
	return id, nil
}

func newListCmd(flags *globalFlags) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Fetch and print every user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, flags, func(ctx context.Context, rt *app.Runtime) error {
				return printUsers(cmd.OutOrStdout(), rt.Controller.Snapshot().Users, asJSON)
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newAddCmd(flags *globalFlags) *cobra.Command {
	var name, email string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuntime(cmd, flags, func(ctx context.Context, rt *app.Runtime) error {
				res, err := await(ctx, rt.Controller.AddUser(name, email))
				if err != nil {
					return err
				}
				u, _ := res.Snapshot.Find(res.UserID)
				return printUsers(cmd.OutOrStdout(), []directory.User{u}, asJSON)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "full name (required)")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newUpdateCmd(flags *globalFlags) *cobra.Command {
	var name, email string
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change a user's name and email",
		Long: `Send a new name and email for the user. A flag that is not given keeps
the user's current value.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withRuntime(cmd, flags, func(ctx context.Context, rt *app.Runtime) error {
				current, found := rt.Controller.Snapshot().Find(id)
				if !cmd.Flags().Changed("name") {
					if !found {
						return fmt.Errorf("user %d not found; pass both --name and --email", id)
					}
					name = current.Name
				}
				if !cmd.Flags().Changed("email") {
					if !found {
						return fmt.Errorf("user %d not found; pass both --name and --email", id)
					}
					email = current.Email
				}

				res, err := await(ctx, rt.Controller.UpdateUser(id, name, email))
				if err != nil {
					return err
				}
				u, ok := res.Snapshot.Find(id)
				if !ok {
					// Accepted remotely but absent locally; nothing to show.
					fmt.Fprintf(cmd.OutOrStdout(), "user %d updated (status %d)\n", id, res.Status)
					return nil
				}
				return printUsers(cmd.OutOrStdout(), []directory.User{u}, asJSON)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new full name")
	cmd.Flags().StringVar(&email, "email", "", "new email address")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func newDeleteCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withRuntime(cmd, flags, func(ctx context.Context, rt *app.Runtime) error {
				res, err := await(ctx, rt.Controller.DeleteUser(id))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted user %d (%d remaining)\n", id, len(res.Snapshot.Users))
				return nil
			})
		},
	}
}

func printUsers(out io.Writer, users []directory.User, asJSON bool) error {
	if asJSON {
		if users == nil {
			users = []directory.User{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(users)
	}

	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "USERNAME", "EMAIL", "COMPANY").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return header
			}
			return cell
		})
	for _, u := range users {
		t.Row(strconv.Itoa(u.ID), u.Name, u.Username, u.Email, u.Company.Name)
	}
	_, err := fmt.Fprintln(out, t.Render())
	return err
}
