package main

import (
	"fmt"

	"github.com/caterdesk/caterdesk/caterdesk"
	"github.com/caterdesk/caterdesk/types"
	"github.com/spf13/cobra"
)

// dishList prints the price list
type dishList []types.Dish

// Table implements tabular
func (l dishList) Table() ([]string, [][]string) {
	rows := make([][]string, 0, len(l))
	for _, d := range l {
		rows = append(rows, []string{d.ID, d.Name, d.Category, d.Price.StringFixed(2)})
	}
	return []string{"ID", "NAME", "CATEGORY", "PRICE"}, rows
}

// addDishCommands adds the dish command group
func (cli *CLI) addDishCommands() {
	dishCmd := &cobra.Command{
		Use:     "dish",
		Aliases: []string{"dishes"},
		Short:   "Manage the price list",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List dishes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withApp(func(app *caterdesk.App) error {
				book, err := cli.book(app)
				if err != nil {
					return WrapError("list dishes", err)
				}
				dishes := book.Dishes
				if query, _ := cmd.Flags().GetString("search"); query != "" {
					ids, err := matchingIDs(app, types.Dishes, query)
					if err != nil {
						return WrapError("list dishes", err)
					}
					matched := dishes[:0]
					for _, d := range dishes {
						if ids[d.ID] {
							matched = append(matched, d)
						}
					}
					dishes = matched
				}
				return cli.outputResult(dishList(dishes))
			})
		},
	}
	listCmd.Flags().String("search", "", "Only dishes whose name or category contains this text")

	showCmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one dish",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withApp(func(app *caterdesk.App) error {
				d, ok, err := app.FindDish(args[0])
				if err != nil {
					return WrapError("show dish", err)
				}
				if !ok {
					return NewNotFoundError("show dish", "dish", args[0], CommonSuggestions.CheckID)
				}
				return cli.outputResult(d)
			})
		},
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a dish",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			name, _ := flags.GetString("name")
			category, _ := flags.GetString("category")
			description, _ := flags.GetString("description")
			priceStr, _ := flags.GetString("price")

			price, err := parseMoney("add dish", "price", priceStr)
			if err != nil {
				return err
			}

			return cli.withApp(func(app *caterdesk.App) error {
				d, err := app.SaveDish(types.Dish{
					Name:        name,
					Category:    category,
					Price:       price,
					Description: description,
				})
				if err != nil {
					return WrapError("add dish", err)
				}
				return cli.outputResult(d)
			})
		},
	}
	addDishFlags(addCmd)
	_ = addCmd.MarkFlagRequired("name")

	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a dish",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fields := newChangedFields("update dish", cmd.Flags())
			fields.str("name", "name")
			fields.str("category", "category")
			fields.str("description", "description")
			fields.money("price", "price")
			update, err := fields.result()
			if err != nil {
				return err
			}

			return cli.withApp(func(app *caterdesk.App) error {
				rec, err := app.Update(types.Dishes, args[0], update)
				if err != nil {
					return wrapRecordError("update dish", "dish", args[0], err)
				}
				d, err := types.DecodeRecord[types.Dish](rec)
				if err != nil {
					return WrapError("update dish", err)
				}
				return cli.outputResult(d)
			})
		},
	}
	addDishFlags(updateCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a dish from the price list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withApp(func(app *caterdesk.App) error {
				ok, err := cli.confirm(cmd.Context(), fmt.Sprintf("Delete dish %s?", args[0]))
				if err != nil {
					return err
				}
				if !ok {
					return nil
				}
				if err := app.Delete(types.Dishes, args[0]); err != nil {
					return WrapError("delete dish", err)
				}
				if !cli.viperInst.GetBool("quiet") {
					fmt.Fprintf(cli.out, "Deleted dish %s\n", args[0])
				}
				return nil
			})
		},
	}

	dishCmd.AddCommand(listCmd, showCmd, addCmd, updateCmd, deleteCmd)
	cli.rootCmd.AddCommand(dishCmd)
}

func addDishFlags(cmd *cobra.Command) {
	cmd.Flags().String("name", "", "Dish name")
	cmd.Flags().String("category", "", "Menu category, e.g. Starters")
	cmd.Flags().String("price", "0", "Price per serving")
	cmd.Flags().String("description", "", "Short description")
}
