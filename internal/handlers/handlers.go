// Package handlers instantiates the generic CRUD handler for the accounts,
// notifications, and orders tables.
package handlers

import (
	"log/slog"

	"github.com/alfredjeanlab/tablefn/internal/credential"
	"github.com/alfredjeanlab/tablefn/internal/crud"
	"github.com/alfredjeanlab/tablefn/internal/events"
	"github.com/alfredjeanlab/tablefn/internal/store"
)

// Domain names, also used as event subject segments.
const (
	DomainAccounts      = "accounts"
	DomainNotifications = "notifications"
	DomainOrders        = "orders"
)

// Domains lists every domain in a stable order.
var Domains = []string{DomainAccounts, DomainNotifications, DomainOrders}

// Tables names the backing tables and secondary indexes.
type Tables struct {
	Accounts      string
	Notifications string
	Orders        string
	// LoginIndex is keyed on the normalized account login email.
	LoginIndex string
	// OrdersUserIndex is keyed on the owning user of an order.
	OrdersUserIndex string
}

// DefaultTables returns the table and index names used when none are configured.
func DefaultTables() Tables {
	return Tables{
		Accounts:        "accounts",
		Notifications:   "notifications",
		Orders:          "orders",
		LoginIndex:      "loginEmail-index",
		OrdersUserIndex: "userId-index",
	}
}

// Deps are the process-wide collaborators shared by every handler.
type Deps struct {
	Store     store.Store
	Tables    Tables
	Publisher events.Publisher
	Hasher    *credential.Hasher
	Logger    *slog.Logger
}

func (d Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

func (d Deps) publisher() events.Publisher {
	if d.Publisher != nil {
		return d.Publisher
	}
	return &events.NoopPublisher{}
}

// New returns the handler for domain, or nil when the domain is unknown.
func New(domain string, d Deps) *crud.Handler {
	switch domain {
	case DomainAccounts:
		return Accounts(d)
	case DomainNotifications:
		return Notifications(d)
	case DomainOrders:
		return Orders(d)
	default:
		return nil
	}
}

// All returns one handler per domain, in Domains order.
func All(d Deps) []*crud.Handler {
	out := make([]*crud.Handler, 0, len(Domains))
	for _, name := range Domains {
		out = append(out, New(name, d))
	}
	return out
}
