package handlers

import (
	"net/http"

	"github.com/alfredjeanlab/tablefn/internal/crud"
	"github.com/alfredjeanlab/tablefn/internal/idgen"
	"github.com/alfredjeanlab/tablefn/internal/model"
)

// Notifications returns the notifications handler. Notifications are opaque
// attribute bags keyed by notificationID.
func Notifications(d Deps) *crud.Handler {
	logger := d.logger().With("domain", DomainNotifications)
	r := &crud.Resource{
		Name:      "Notification",
		Topic:     DomainNotifications,
		Table:     d.Store.Table(d.Tables.Notifications),
		Key:       model.NotificationID,
		IDPrefix:  idgen.NotificationPrefix,
		Publisher: d.publisher(),
		Logger:    logger,
	}
	return crud.NewHandler(DomainNotifications, d.logger(),
		crud.Route{Method: http.MethodPost, Pattern: "/notifications", Op: r.Save},
		crud.Route{Method: http.MethodGet, Pattern: "/notifications/{notificationID}", Op: r.Get},
	)
}
