package crud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alfredjeanlab/tablefn/internal/events"
	"github.com/alfredjeanlab/tablefn/internal/idgen"
	"github.com/alfredjeanlab/tablefn/internal/model"
	"github.com/alfredjeanlab/tablefn/internal/store"
)

// Resource parameterizes the executors for one table.
type Resource struct {
	// Name is the human-readable record name, e.g. "Account".
	Name string
	// Topic is the event subject segment, e.g. "accounts".
	Topic string
	Table store.Table
	// Key is the primary key attribute.
	Key string
	// Required lists attributes besides Key that must be present on create.
	Required []string
	// Mutable is the allow-list for single-field updates.
	Mutable model.FieldSet
	// IDPrefix, when set, generates a missing key on create.
	IDPrefix string

	// Prepare turns a validated create request into the stored record and
	// the item echoed back to the caller.
	Prepare func(ctx context.Context, in store.Item) (stored, echo store.Item, err error)
	// Present redacts a stored record before it leaves the handler.
	Present func(store.Item) store.Item

	Publisher events.Publisher
	Logger    *slog.Logger
}

func (r *Resource) lower() string { return strings.ToLower(r.Name) }

func (r *Resource) notFound() error { return notFoundError(r.Name + " not found") }

func (r *Resource) present(item store.Item) store.Item {
	if item == nil || r.Present == nil {
		return item
	}
	return r.Present(item)
}

func (r *Resource) presentAll(items []store.Item) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		out = append(out, r.present(it))
	}
	return out
}

func (r *Resource) key(value string) store.Key {
	return store.Key{Attr: r.Key, Value: value}
}

func (r *Resource) requireParam(req *Request) (string, error) {
	if !model.IsPresent(req.Param) {
		return "", InputError(r.Key + " is required")
	}
	return req.Param, nil
}

// Publish emits a record-change event. Failures are logged and otherwise
// ignored: the store write has already succeeded.
func (r *Resource) Publish(ctx context.Context, action events.Action, key string, item store.Item) {
	if r.Publisher == nil {
		return
	}
	subject := events.Subject(r.Topic, action)
	ev := events.RecordChanged{Table: r.Table.Name(), Key: key, Item: item}
	if err := r.Publisher.Publish(ctx, subject, ev); err != nil {
		r.logger().Warn("publish failed", "subject", subject, "key", key, "error", err)
	}
}

func (r *Resource) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// Save validates and upserts a full record.
func (r *Resource) Save(ctx context.Context, req *Request) (Result, error) {
	in, err := req.Object()
	if err != nil {
		return Result{}, err
	}
	item := store.Clone(in)

	if r.IDPrefix != "" && !model.IsPresent(item[r.Key]) {
		id, err := idgen.GenerateWithPrefix(r.IDPrefix)
		if err != nil {
			return Result{}, ServerError("failed to save "+r.lower(), err)
		}
		item[r.Key] = id
	}
	if err := model.RequireFields(item, append([]string{r.Key}, r.Required...)...); err != nil {
		return Result{}, err
	}
	key, ok := item[r.Key].(string)
	if !ok {
		return Result{}, InputError(r.Key + " must be a string")
	}

	stored, echo := item, item
	if r.Prepare != nil {
		stored, echo, err = r.Prepare(ctx, item)
		if err != nil {
			return Result{}, err
		}
	}

	if err := r.Table.Put(ctx, stored); err != nil {
		return Result{}, ServerError("failed to save "+r.lower(), err)
	}
	r.Publish(ctx, events.ActionSaved, key, r.present(store.Clone(stored)))

	env := Success(OpSave)
	env.Item = echo
	return Result{Status: http.StatusOK, Body: env}, nil
}

// Get returns one record by the path parameter.
func (r *Resource) Get(ctx context.Context, req *Request) (Result, error) {
	id, err := r.requireParam(req)
	if err != nil {
		return Result{}, err
	}
	item, err := r.Table.Get(ctx, r.key(id))
	if errors.Is(err, store.ErrNotFound) {
		return Result{}, r.notFound()
	}
	if err != nil {
		return Result{}, ServerError("failed to get "+r.lower(), err)
	}
	return Result{Status: http.StatusOK, Body: r.present(item)}, nil
}

// List returns one page of records with no filter.
func (r *Resource) List(ctx context.Context, _ *Request) (Result, error) {
	items, err := r.Table.Scan(ctx)
	if err != nil {
		return Result{}, ServerError("failed to list "+r.lower()+"s", err)
	}
	return Result{Status: http.StatusOK, Body: map[string]any{"items": r.presentAll(items)}}, nil
}

// Update assigns one allow-listed attribute on an existing record.
func (r *Resource) Update(ctx context.Context, req *Request) (Result, error) {
	id, err := r.requireParam(req)
	if err != nil {
		return Result{}, err
	}
	body, err := req.Object()
	if err != nil {
		return Result{}, err
	}
	var field string
	if raw, ok := body[model.UpdateKey]; ok && raw != nil {
		if field, ok = raw.(string); !ok {
			return Result{}, InputError(model.UpdateKey + " must be a string")
		}
	}
	value := body[model.UpdateValue]
	if err := r.Mutable.ValidateUpdate(field, value); err != nil {
		return Result{}, err
	}

	attrs, err := r.Table.Update(ctx, r.key(id), field, value)
	if errors.Is(err, store.ErrNotFound) {
		return Result{}, r.notFound()
	}
	if err != nil {
		return Result{}, ServerError("failed to update "+r.lower(), err)
	}
	r.Publish(ctx, events.ActionUpdated, id, attrs)

	env := Success(OpUpdate)
	env.UpdatedAttributes = attrs
	return Result{Status: http.StatusOK, Body: env}, nil
}

// Delete removes a record and returns its prior value, if any.
func (r *Resource) Delete(ctx context.Context, req *Request) (Result, error) {
	id, err := r.requireParam(req)
	if err != nil {
		return Result{}, err
	}
	old, err := r.Table.Delete(ctx, r.key(id))
	if err != nil {
		return Result{}, ServerError("failed to delete "+r.lower(), err)
	}
	old = r.present(old)
	r.Publish(ctx, events.ActionDeleted, id, old)

	return Result{Status: http.StatusOK, Body: deleteEnvelope{
		Operation: OpDelete,
		Message:   msgSuccess,
		Item:      old,
	}}, nil
}

// QueryBy returns an operation listing the records whose index attribute
// equals the path parameter. Results are returned under field.
func (r *Resource) QueryBy(index store.Index, field string) Operation {
	return func(ctx context.Context, req *Request) (Result, error) {
		if !model.IsPresent(req.Param) {
			return Result{}, InputError(index.Attr + " is required")
		}
		items, err := r.Table.Query(ctx, index, req.Param)
		if err != nil {
			return Result{}, ServerError(fmt.Sprintf("failed to query %ss", r.lower()), err)
		}
		return Result{Status: http.StatusOK, Body: map[string]any{field: r.presentAll(items)}}, nil
	}
}
