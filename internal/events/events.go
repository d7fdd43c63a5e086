// Package events publishes record-change notifications to the event bus.
// Subjects follow "tablefn.<resource>.<action>".
package events

import (
	"context"
	"strings"
)

// SubjectPrefix is the root of every subject this package publishes on.
const SubjectPrefix = "tablefn"

// AllSubjects matches every record-change subject.
const AllSubjects = SubjectPrefix + ".>"

// Action names the kind of change a RecordChanged event reports.
type Action string

const (
	ActionSaved   Action = "saved"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
	ActionLogin   Action = "login"
)

// Subject returns the subject for a change to topic, e.g.
// Subject("orders", ActionSaved) == "tablefn.orders.saved".
func Subject(topic string, action Action) string {
	return SubjectPrefix + "." + topic + "." + string(action)
}

// ParseSubject splits a subject produced by Subject. ok is false when the
// subject does not have that shape.
func ParseSubject(subject string) (topic string, action Action, ok bool) {
	parts := strings.Split(subject, ".")
	if len(parts) != 3 || parts[0] != SubjectPrefix || parts[1] == "" || parts[2] == "" {
		return "", "", false
	}
	return parts[1], Action(parts[2]), true
}

// RecordChanged is the payload of every record-change event. Item carries
// the stored attributes for saves, the changed attributes for updates, and
// the removed record for deletes. It never carries credential material.
type RecordChanged struct {
	Table string         `json:"table"`
	Key   string         `json:"key"`
	Item  map[string]any `json:"item,omitempty"`
}

// Publisher is the interface for emitting events.
type Publisher interface {
	Publish(ctx context.Context, subject string, event any) error
	Close() error
}
