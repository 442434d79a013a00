package domain

import (
	"strings"

	"golang.org/x/text/currency"
)

// FileType represents the allowed file types for import uploads.
type FileType string

const (
	FileTypePDF FileType = "pdf"
)

// AllowedContentTypes maps sniffed MIME content types back to FileType.
var AllowedContentTypes = map[string]FileType{
	"application/pdf": FileTypePDF,
}

// UserRole defines who is acting on a wedding.
type UserRole string

const (
	RolePlanner UserRole = "planner"
	RoleCouple  UserRole = "couple"
)

// VendorType is the closed set of vendor categories.
type VendorType string

const (
	VendorTypeVenue          VendorType = "Venue"
	VendorTypePhotographer   VendorType = "Photographer"
	VendorTypeVideographer   VendorType = "Videographer"
	VendorTypeCaterer        VendorType = "Caterer"
	VendorTypeFlorist        VendorType = "Florist"
	VendorTypeMusic          VendorType = "Music"
	VendorTypeDJ             VendorType = "DJ"
	VendorTypeBand           VendorType = "Band"
	VendorTypeOfficiant      VendorType = "Officiant"
	VendorTypeHairMakeup     VendorType = "Hair & Makeup"
	VendorTypePlanner        VendorType = "Planner"
	VendorTypeCake           VendorType = "Cake"
	VendorTypeTransportation VendorType = "Transportation"
	VendorTypeRentals        VendorType = "Rentals"
	VendorTypeStationery     VendorType = "Stationery"
	VendorTypeAttire         VendorType = "Attire"
	VendorTypeLighting       VendorType = "Lighting"
	VendorTypeDecor          VendorType = "Decor"
	VendorTypeOther          VendorType = "Other"
)

// VendorTypes lists every valid vendor type in display order.
var VendorTypes = []VendorType{
	VendorTypeVenue, VendorTypePhotographer, VendorTypeVideographer, VendorTypeCaterer,
	VendorTypeFlorist, VendorTypeMusic, VendorTypeDJ, VendorTypeBand, VendorTypeOfficiant,
	VendorTypeHairMakeup, VendorTypePlanner, VendorTypeCake, VendorTypeTransportation,
	VendorTypeRentals, VendorTypeStationery, VendorTypeAttire, VendorTypeLighting,
	VendorTypeDecor, VendorTypeOther,
}

// Valid reports whether t belongs to the closed vendor type set.
func (t VendorType) Valid() bool {
	for _, v := range VendorTypes {
		if v == t {
			return true
		}
	}
	return false
}

// PaymentType is how an installment is paid.
type PaymentType string

const (
	PaymentTypeCash         PaymentType = "cash"
	PaymentTypeBankTransfer PaymentType = "bank_transfer"
)

// Valid reports whether p is a known payment type.
func (p PaymentType) Valid() bool {
	return p == PaymentTypeCash || p == PaymentTypeBankTransfer
}

// OperationAction is what a parsed operation does to the roster.
type OperationAction string

const (
	ActionCreate OperationAction = "create"
	ActionUpdate OperationAction = "update"
)

// FieldType drives answer normalization for a clarification.
type FieldType string

const (
	FieldTypeText   FieldType = "text"
	FieldTypeNumber FieldType = "number"
	FieldTypeDate   FieldType = "date"
	FieldTypeEmail  FieldType = "email"
	FieldTypePhone  FieldType = "phone"
	FieldTypeChoice FieldType = "choice"
)

// SessionState is the lifecycle of an import session.
type SessionState string

const (
	SessionStateDraft      SessionState = "draft"
	SessionStateExtracting SessionState = "extracting"
	SessionStateReviewing  SessionState = "reviewing"
	SessionStateExecuting  SessionState = "executing"
	SessionStateCommitted  SessionState = "committed"
	SessionStateCancelled  SessionState = "cancelled"
)

// CurrencyCode returns s as an upper-case ISO 4217 code. It reports false when s is not
// a recognized currency.
func CurrencyCode(s string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(s))
	if len(code) != 3 {
		return "", false
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return "", false
	}
	return unit.String(), true
}
