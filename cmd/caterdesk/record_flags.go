package main

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/caterdesk/caterdesk/caterdesk"
	"github.com/caterdesk/caterdesk/types"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
)

// parseMoney reads an amount flag
func parseMoney(operation, field, value string) (types.Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return types.Money{}, NewValidationError(operation, field, value,
			"Amounts are plain decimals such as 250 or 99.50")
	}
	return types.NewMoney(d), nil
}

// parseMenu reads repeated dishId[:quantity] flags. A dish given without a
// quantity is served to every guest.
func parseMenu(operation string, values []string, guests int) ([]types.MenuItem, error) {
	menu := make([]types.MenuItem, 0, len(values))
	for _, v := range values {
		dishID, qty, hasQty := strings.Cut(v, ":")
		dishID = strings.TrimSpace(dishID)
		if dishID == "" {
			return nil, NewValidationError(operation, "menu item", v,
				"Menu items are written dishId or dishId:quantity, e.g. --menu 0190...:40")
		}
		if !hasQty {
			menu = append(menu, types.MenuItem{DishID: dishID, Quantity: types.FlexInt(guests)})
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(qty))
		if err != nil || n < 0 {
			return nil, NewValidationError(operation, "menu quantity", v,
				"Quantities are whole numbers of servings")
		}
		menu = append(menu, types.MenuItem{DishID: dishID, Quantity: types.FlexInt(n)})
	}
	return menu, nil
}

// changedFields builds a partial record out of the flags the user set.
// Amount flags become JSON numbers; menus are replaced whole.
type changedFields struct {
	operation string
	flags     *pflag.FlagSet
	fields    types.Record
	err       error

	menuItems []types.MenuItem
	menuSet   bool
}

func newChangedFields(operation string, flags *pflag.FlagSet) *changedFields {
	return &changedFields{operation: operation, flags: flags, fields: types.Record{}}
}

func (c *changedFields) str(flag, field string) {
	if c.err != nil || !c.flags.Changed(flag) {
		return
	}
	v, _ := c.flags.GetString(flag)
	c.fields[field] = v
}

func (c *changedFields) money(flag, field string) {
	if c.err != nil || !c.flags.Changed(flag) {
		return
	}
	v, _ := c.flags.GetString(flag)
	m, err := parseMoney(c.operation, flag, v)
	if err != nil {
		c.err = err
		return
	}
	c.fields[field] = json.Number(m.String())
}

func (c *changedFields) integer(flag, field string) {
	if c.err != nil || !c.flags.Changed(flag) {
		return
	}
	v, _ := c.flags.GetInt(flag)
	c.fields[field] = v
}

func (c *changedFields) boolean(flag, field string) {
	if c.err != nil || !c.flags.Changed(flag) {
		return
	}
	v, _ := c.flags.GetBool(flag)
	c.fields[field] = v
}

func (c *changedFields) status(flag, field string) {
	if c.err != nil || !c.flags.Changed(flag) {
		return
	}
	v, _ := c.flags.GetString(flag)
	st, err := types.ParseEventStatus(v)
	if err != nil {
		c.err = NewValidationError(c.operation, flag, v, "Use one of: Tentative, Confirmed, Completed, Cancelled")
		return
	}
	c.fields[field] = string(st)
}

// menu replaces the menu. Dishes without a quantity get guests servings.
func (c *changedFields) menu(flag string, guests int) {
	if c.err != nil || !c.flags.Changed(flag) {
		return
	}
	v, _ := c.flags.GetStringArray(flag)
	menu, err := parseMenu(c.operation, v, guests)
	if err != nil {
		c.err = err
		return
	}
	c.menuItems, c.menuSet = menu, true
}

// rescale sets every menu quantity to guests, starting from current when
// no new menu was given
func (c *changedFields) rescale(current []types.MenuItem, guests int) {
	if c.err != nil {
		return
	}
	if !c.menuSet {
		c.menuItems = append([]types.MenuItem(nil), current...)
		c.menuSet = true
	}
	for i := range c.menuItems {
		c.menuItems[i].Quantity = types.FlexInt(guests)
	}
}

// result returns the collected fields, failing when nothing was set
func (c *changedFields) result() (types.Record, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.menuSet {
		items := make([]interface{}, 0, len(c.menuItems))
		for _, m := range c.menuItems {
			items = append(items, map[string]interface{}{"dishId": m.DishID, "quantity": int(m.Quantity)})
		}
		c.fields["menu"] = items
	}
	if len(c.fields) == 0 {
		return nil, &CLIError{
			Operation:   c.operation,
			Cause:       "no fields to update",
			Suggestions: []string{CommonSuggestions.RunHelp},
		}
	}
	return c.fields, nil
}

// wrapRecordError turns a missing record into a not found error
func wrapRecordError(operation, resource, id string, err error) error {
	if errors.Is(err, caterdesk.ErrNotFound) {
		return NewNotFoundError(operation, resource, id, CommonSuggestions.CheckID)
	}
	return WrapError(operation, err)
}
