package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/alfredjeanlab/tablefn/internal/credential"
	"github.com/alfredjeanlab/tablefn/internal/crud"
	"github.com/alfredjeanlab/tablefn/internal/events"
	"github.com/alfredjeanlab/tablefn/internal/model"
	"github.com/alfredjeanlab/tablefn/internal/store"
)

const msgBadCredentials = "incorrect login credentials"

// accounts adds credential handling and login on top of the generic resource.
type accounts struct {
	*crud.Resource
	hasher     *credential.Hasher
	loginIndex store.Index
	logger     *slog.Logger
}

// Accounts returns the accounts handler. Passwords are stored as bcrypt
// hashes and never returned; login looks the account up by normalized email.
func Accounts(d Deps) *crud.Handler {
	logger := d.logger().With("domain", DomainAccounts)
	a := &accounts{
		hasher:     d.Hasher,
		loginIndex: store.Index{Name: d.Tables.LoginIndex, Attr: model.AccountLoginKey},
		logger:     logger,
	}
	a.Resource = &crud.Resource{
		Name:      "Account",
		Topic:     DomainAccounts,
		Table:     d.Store.Table(d.Tables.Accounts),
		Key:       model.AccountID,
		Required:  []string{model.AccountName},
		Mutable:   model.AccountFields,
		Prepare:   a.prepare,
		Present:   presentAccount,
		Publisher: d.publisher(),
		Logger:    logger,
	}
	return crud.NewHandler(DomainAccounts, d.logger(),
		crud.Route{Method: http.MethodPost, Pattern: "/accounts", Op: a.Save},
		crud.Route{Method: http.MethodGet, Pattern: "/account/{id}", Op: a.Get},
		crud.Route{Method: http.MethodPatch, Pattern: "/account/login", Op: a.login},
		crud.Route{Method: http.MethodPatch, Pattern: "/account/{id}", Op: a.Update},
		crud.Route{Method: http.MethodDelete, Pattern: "/account/{id}", Op: a.Delete},
		crud.Route{Method: http.MethodGet, Pattern: "/accounts", Op: a.List},
	)
}

// prepare replaces the plaintext password with its hash, derives the login
// index key, and initializes the activity flag.
func (a *accounts) prepare(_ context.Context, in store.Item) (store.Item, store.Item, error) {
	stored := store.Clone(in)
	echo := store.Clone(in)
	delete(stored, model.AccountLoginKey)

	if raw, ok := in[model.AccountLogin]; ok {
		login, ok := raw.(map[string]any)
		if !ok {
			return nil, nil, crud.InputError(model.AccountLogin + " must be an object")
		}
		email, _ := login[model.AccountLoginEmail].(string)
		password, _ := login[model.AccountPassword].(string)
		var ve model.ValidationError
		if !model.IsPresent(email) {
			ve.Add(model.AccountLogin+"."+model.AccountLoginEmail, "is required")
		}
		if password == "" {
			ve.Add(model.AccountLogin+"."+model.AccountPassword, "is required")
		}
		if err := ve.Err(); err != nil {
			return nil, nil, err
		}
		if a.hasher == nil {
			return nil, nil, crud.ServerError("failed to save account", errors.New("no password hasher configured"))
		}
		hash, err := a.hasher.Hash(password)
		if errors.Is(err, credential.ErrPasswordTooLong) {
			ve.Add(model.AccountLogin+"."+model.AccountPassword, fmt.Sprintf("must be at most %d bytes", credential.MaxPasswordBytes))
			return nil, nil, &ve
		}
		if err != nil {
			return nil, nil, crud.ServerError("failed to save account", err)
		}

		storedLogin := stored[model.AccountLogin].(map[string]any)
		delete(storedLogin, model.AccountPassword)
		storedLogin[model.AccountPasswordHash] = hash
		stored[model.AccountLoginKey] = credential.NormalizeEmail(email)

		echoLogin := echo[model.AccountLogin].(map[string]any)
		delete(echoLogin, model.AccountPassword)
		delete(echoLogin, model.AccountPasswordHash)
	}

	switch activity := stored[model.AccountActivity].(type) {
	case nil:
		stored[model.AccountActivity] = map[string]any{model.AccountActive: false}
	case map[string]any:
		// Only a successful login may set the flag.
		activity[model.AccountActive] = false
		if echoActivity, ok := echo[model.AccountActivity].(map[string]any); ok {
			echoActivity[model.AccountActive] = false
		}
	default:
		return nil, nil, crud.InputError(model.AccountActivity + " must be an object")
	}
	return stored, echo, nil
}

// presentAccount strips credential material from a stored account.
func presentAccount(item store.Item) store.Item {
	out := store.Clone(item)
	delete(out, model.AccountLoginKey)
	if login, ok := out[model.AccountLogin].(map[string]any); ok {
		delete(login, model.AccountPasswordHash)
		delete(login, model.AccountPassword)
	}
	return out
}

// login verifies an email and password and marks the matched account active.
func (a *accounts) login(ctx context.Context, req *crud.Request) (crud.Result, error) {
	body, err := req.Object()
	if err != nil {
		return crud.Result{}, err
	}
	email, _ := body[model.AccountLoginEmail].(string)
	password, _ := body[model.AccountPassword].(string)
	var ve model.ValidationError
	if !model.IsPresent(email) {
		ve.Add(model.AccountLoginEmail, "is required")
	}
	if password == "" {
		ve.Add(model.AccountPassword, "is required")
	}
	if err := ve.Err(); err != nil {
		return crud.Result{}, err
	}

	candidates, err := a.Table.Query(ctx, a.loginIndex, credential.NormalizeEmail(email))
	if err != nil {
		return crud.Result{}, crud.ServerError("failed to log in", err)
	}
	id, ok := a.match(candidates, password)
	if !ok {
		return crud.Result{}, crud.StatusError(http.StatusNotFound, msgBadCredentials)
	}

	attrs, err := a.Table.Update(ctx, store.Key{Attr: model.AccountID, Value: id}, model.AccountActivePath, true)
	if err != nil {
		return crud.Result{}, crud.ServerError("failed to activate account", err)
	}
	a.Publish(ctx, events.ActionLogin, id, attrs)

	env := crud.Success(crud.OpLogin)
	env.ID = id
	return crud.Result{Status: http.StatusOK, Body: env}, nil
}

// match returns the id of the first candidate whose stored hash verifies.
func (a *accounts) match(candidates []store.Item, password string) (string, bool) {
	if a.hasher == nil {
		return "", false
	}
	for _, item := range candidates {
		hash, _ := lookupString(item, model.AccountPasswordHashPath)
		id, _ := item[model.AccountID].(string)
		if hash == "" || id == "" {
			continue
		}
		err := a.hasher.Verify(hash, password)
		if err == nil {
			return id, true
		}
		if !errors.Is(err, credential.ErrMismatch) {
			a.logger.Warn("unreadable password hash", "id", id, "error", err)
		}
	}
	return "", false
}

func lookupString(item store.Item, path string) (string, bool) {
	v, ok := store.Lookup(item, path)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
