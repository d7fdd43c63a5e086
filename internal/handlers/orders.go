package handlers

import (
	"context"
	"net/http"

	"github.com/alfredjeanlab/tablefn/internal/crud"
	"github.com/alfredjeanlab/tablefn/internal/idgen"
	"github.com/alfredjeanlab/tablefn/internal/model"
	"github.com/alfredjeanlab/tablefn/internal/store"
)

// Orders returns the orders handler. Orders are owned by a user and listed
// per user through a secondary index on userId.
func Orders(d Deps) *crud.Handler {
	logger := d.logger().With("domain", DomainOrders)
	r := &crud.Resource{
		Name:      "Order",
		Topic:     DomainOrders,
		Table:     d.Store.Table(d.Tables.Orders),
		Key:       model.OrderID,
		Required:  []string{model.OrderUserID},
		Mutable:   model.OrderFields,
		IDPrefix:  idgen.OrderPrefix,
		Prepare:   prepareOrder,
		Publisher: d.publisher(),
		Logger:    logger,
	}
	byUser := store.Index{Name: d.Tables.OrdersUserIndex, Attr: model.OrderUserID}
	return crud.NewHandler(DomainOrders, d.logger(),
		crud.Route{Method: http.MethodPost, Pattern: "/orders", Op: r.Save},
		crud.Route{Method: http.MethodGet, Pattern: "/orders", Op: r.List},
		crud.Route{Method: http.MethodPatch, Pattern: "/orders/{ordersID}", Op: r.Update},
		crud.Route{Method: http.MethodGet, Pattern: "/orders/user/{id}", Op: r.QueryBy(byUser, "orders")},
	)
}

// prepareOrder checks that userId can key the user index.
func prepareOrder(_ context.Context, in store.Item) (store.Item, store.Item, error) {
	if _, ok := in[model.OrderUserID].(string); !ok {
		return nil, nil, crud.InputError(model.OrderUserID + " must be a string")
	}
	return in, in, nil
}
