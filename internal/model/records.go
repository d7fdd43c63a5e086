// Package model holds the attribute names, update allow-lists, and
// validation errors for the account, notification, and order records.
package model

// Account attributes.
const (
	AccountID           = "id"
	AccountName         = "name"
	AccountLogin        = "login"
	AccountLoginEmail   = "email"
	AccountPassword     = "password"
	AccountPasswordHash = "passwordHash"
	// AccountLoginKey is the normalized email the login index is keyed on.
	AccountLoginKey         = "loginEmail"
	AccountActivity         = "activity"
	AccountActive           = "active"
	AccountActivePath       = AccountActivity + "." + AccountActive
	AccountPasswordHashPath = AccountLogin + "." + AccountPasswordHash
)

// Notification attributes.
const (
	NotificationID = "notificationID"
)

// Order attributes.
const (
	OrderID     = "id"
	OrderUserID = "userId"
)

// Update request body attributes.
const (
	UpdateKey   = "updateKey"
	UpdateValue = "updateValue"
)

// AccountFields lists the account attributes a single-field update may set.
// Credentials and the activity flag are managed by create and login only.
var AccountFields = FieldSet{
	"name":    FieldTypeString,
	"phone":   FieldTypeString,
	"address": FieldTypeObject,
}

// OrderFields lists the order attributes a single-field update may set.
var OrderFields = FieldSet{
	"status":          FieldTypeString,
	"items":           FieldTypeList,
	"total":           FieldTypeNumber,
	"notes":           FieldTypeString,
	"shippingAddress": FieldTypeObject,
}
