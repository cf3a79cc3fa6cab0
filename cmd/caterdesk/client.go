package main

import (
	"fmt"

	"github.com/caterdesk/caterdesk/caterdesk"
	"github.com/caterdesk/caterdesk/types"
	"github.com/spf13/cobra"
)

type clientList []types.Client

// Table implements tabular
func (l clientList) Table() ([]string, [][]string) {
	rows := make([][]string, 0, len(l))
	for _, c := range l {
		created := ""
		if c.CreatedAt != nil {
			created = c.CreatedAt.Local().Format("2006-01-02")
		}
		rows = append(rows, []string{c.ID, c.Name, c.Email, c.Phone, created})
	}
	return []string{"ID", "NAME", "EMAIL", "PHONE", "CREATED"}, rows
}

// addClientCommands adds the client command group
func (cli *CLI) addClientCommands() {
	clientCmd := &cobra.Command{
		Use:     "client",
		Aliases: []string{"clients"},
		Short:   "Manage clients",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List clients",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withApp(func(app *caterdesk.App) error {
				book, err := cli.book(app)
				if err != nil {
					return WrapError("list clients", err)
				}
				clients := book.Clients
				if query, _ := cmd.Flags().GetString("search"); query != "" {
					ids, err := matchingIDs(app, types.Clients, query)
					if err != nil {
						return WrapError("list clients", err)
					}
					matched := clients[:0]
					for _, c := range clients {
						if ids[c.ID] {
							matched = append(matched, c)
						}
					}
					clients = matched
				}
				return cli.outputResult(clientList(clients))
			})
		},
	}
	listCmd.Flags().String("search", "", "Only clients whose name, email or phone contains this text")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withApp(func(app *caterdesk.App) error {
				c, ok, err := app.FindClient(args[0])
				if err != nil {
					return WrapError("show client", err)
				}
				if !ok {
					return NewNotFoundError("show client", "client", args[0], CommonSuggestions.CheckID)
				}
				return cli.outputResult(c)
			})
		},
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			name, _ := flags.GetString("name")
			email, _ := flags.GetString("email")
			phone, _ := flags.GetString("phone")
			address, _ := flags.GetString("address")

			return cli.withApp(func(app *caterdesk.App) error {
				c, err := app.SaveClient(types.Client{
					Name:    name,
					Email:   email,
					Phone:   phone,
					Address: address,
				})
				if err != nil {
					return WrapError("add client", err)
				}
				return cli.outputResult(c)
			})
		},
	}
	addClientFlags(addCmd)
	_ = addCmd.MarkFlagRequired("name")

	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := newChangedFields("update client", cmd.Flags())
			fields.str("name", "name")
			fields.str("email", "email")
			fields.str("phone", "phone")
			fields.str("address", "address")
			update, err := fields.result()
			if err != nil {
				return err
			}

			return cli.withApp(func(app *caterdesk.App) error {
				rec, err := app.Update(types.Clients, args[0], update)
				if err != nil {
					return wrapRecordError("update client", "client", args[0], err)
				}
				c, err := types.DecodeRecord[types.Client](rec)
				if err != nil {
					return WrapError("update client", err)
				}
				return cli.outputResult(c)
			})
		},
	}
	addClientFlags(updateCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a client",
		Long: `Remove a client. Events booked for the client are kept and show the
client as Unknown.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withApp(func(app *caterdesk.App) error {
				ok, err := cli.confirm(cmd.Context(), fmt.Sprintf("Delete client %s?", args[0]))
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
				if err := app.Delete(types.Clients, args[0]); err != nil {
					return WrapError("delete client", err)
				}
				if !cli.viperInst.GetBool("quiet") {
					fmt.Fprintf(cli.out, "Deleted client %s\n", args[0])
				}
				return nil
			})
		},
	}

	clientCmd.AddCommand(listCmd, showCmd, addCmd, updateCmd, deleteCmd)
	cli.rootCmd.AddCommand(clientCmd)
}

func addClientFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "Client name")
	cmd.Flags().String("email", "", "Email address")
	cmd.Flags().String("phone", "", "Phone number")
	cmd.Flags().String("address", "", "Postal address")
}
