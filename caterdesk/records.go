package caterdesk

import (
	"fmt"

	"github.com/caterdesk/caterdesk/caterdesk/billing"
	"github.com/caterdesk/caterdesk/internal/validation"
	"github.com/caterdesk/caterdesk/types"
)

// Dishes returns the price list
func (a *App) Dishes() ([]types.Dish, error) {
	return list[types.Dish](a, types.Dishes)
}

// FindDish looks up a dish
func (a *App) FindDish(id string) (types.Dish, bool, error) {
	return find[types.Dish](a, types.Dishes, id)
}

// SaveDish creates the dish when it has no id, otherwise replaces the
// fields it carries
func (a *App) SaveDish(d types.Dish) (types.Dish, error) {
	return save(a, types.Dishes, d)
}

// Clients returns all clients
func (a *App) Clients() ([]types.Client, error) {
	return list[types.Client](a, types.Clients)
}

// FindClient looks up a client
func (a *App) FindClient(id string) (types.Client, bool, error) {
	return find[types.Client](a, types.Clients, id)
}

// SaveClient creates or updates a client. CreatedAt is stamped on creation
// and kept from the stored record on update.
func (a *App) SaveClient(c types.Client) (types.Client, error) {
	if c.ID != "" {
		existing, ok, err := a.FindClient(c.ID)
		if err != nil {
			return types.Client{}, err
		}
		if ok {
			c.CreatedAt = existing.CreatedAt
		}
	}
	if c.CreatedAt == nil {
		now := a.now()
		c.CreatedAt = &now
	}
	return save(a, types.Clients, c)
}

// Events returns all events
func (a *App) Events() ([]types.Event, error) {
	return list[types.Event](a, types.Events)
}

// FindEvent looks up an event
func (a *App) FindEvent(id string) (types.Event, bool, error) {
	return find[types.Event](a, types.Events, id)
}

// SaveEvent creates or updates an event. A missing status becomes
// Tentative.
func (a *App) SaveEvent(e types.Event) (types.Event, error) {
	e.Status = e.EffectiveStatus()
	if e.Menu == nil {
		e.Menu = []types.MenuItem{}
	}
	return save(a, types.Events, e)
}

// Update merges fields into the record with the given id. The merged
// record must satisfy the field rules of its collection.
func (a *App) Update(c types.Collection, id string, fields types.Record) (types.Record, error) {
	existing, ok, err := a.Store.Find(c, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", c, id, ErrNotFound)
	}

	update := fields.Clone()
	update["id"] = id
	delete(update, "createdAt")
	if err := validation.Record(c, existing.Merge(update)); err != nil {
		return nil, err
	}
	return a.Store.Upsert(c, update)
}

// Delete removes a record. A missing id is not an error.
func (a *App) Delete(c types.Collection, id string) error {
	return a.Store.Delete(c, id)
}

// Book returns the typed view of the current document, for totals and
// the dashboard
func (a *App) Book() (*billing.Book, error) {
	doc, err := a.Store.GetDocument()
	if err != nil {
		return nil, err
	}
	book := billing.NewBook(doc)
	for _, problem := range book.Skipped {
		a.logger.Warn("skipping undecodable record", "problem", problem)
	}
	return book, nil
}

func list[T any](a *App, c types.Collection) ([]T, error) {
	recs, err := a.Store.List(c)
	if err != nil {
		return nil, err
	}
	out, skipped := types.DecodeRecords[T](recs)
	for _, err := range skipped {
		a.logger.Warn("skipping undecodable record", "collection", c, "error", err)
	}
	return out, nil
}

func find[T any](a *App, c types.Collection, id string) (T, bool, error) {
	var zero T
	rec, ok, err := a.Store.Find(c, id)
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := types.DecodeRecord[T](rec)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

func save[T any](a *App, c types.Collection, v T) (T, error) {
	var zero T
	if err := validation.Struct(v); err != nil {
		return zero, err
	}
	rec, err := types.EncodeRecord(v)
	if err != nil {
		return zero, err
	}
	stored, err := a.Store.Upsert(c, rec)
	if err != nil {
		return zero, err
	}
	return types.DecodeRecord[T](stored)
}
