package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Scheme names match the programs listed on the portal.
const (
	SchemeFloodRelief        = "Flood Relief Fund"
	SchemeDroughtRelief      = "Drought Relief Fund"
	SchemePMAwasYojana       = "PM Awas Yojana"
	SchemeSwachhBharat       = "Swachh Bharat Mission"
	SchemeAgricultureSupport = "Agriculture Support Scheme"
)

func Schemes() []string {
	return []string{
		SchemeFloodRelief,
		SchemeDroughtRelief,
		SchemePMAwasYojana,
		SchemeSwachhBharat,
		SchemeAgricultureSupport,
	}
}

// Attachment is one uploaded document, kept as a filename plus a
// base64 data-URI payload so the whole application can travel as a
// single record.
type Attachment struct {
	FileName string `json:"name"`
	Data     string `json:"data"`
}

func (a *Attachment) IsZero() bool {
	return a == nil || a.Data == ""
}

// Value/Scan let an Attachment live in a JSONB column.
func (a Attachment) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *Attachment) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	}
	return errors.New("models: unsupported scan type for Attachment")
}

type NullAttachment struct {
	Attachment Attachment
	Valid      bool
}

func (na NullAttachment) Value() (driver.Value, error) {
	if !na.Valid {
		return nil, nil
	}
	return json.Marshal(na.Attachment)
}

func (na *NullAttachment) Scan(src any) error {
	if src == nil {
		na.Valid = false
		return nil
	}
	na.Valid = true
	return na.Attachment.Scan(src)
}

func (na NullAttachment) MarshalJSON() ([]byte, error) {
	if !na.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(na.Attachment)
}

func (na *NullAttachment) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		na.Valid = false
		return nil
	}
	na.Valid = true
	return json.Unmarshal(data, &na.Attachment)
}

// FamilyMember mirrors the member block of the application form. Age is
// kept as entered; the wizard interprets it when applying the
// adult-only requirements.
type FamilyMember struct {
	Name                   string         `json:"name"`
	Age                    string         `json:"age"`
	Occupation             string         `json:"occupation"`
	AadhaarNo              string         `json:"aadhar_no"`
	AadhaarImage           NullAttachment `json:"aadhar_image"`
	PanNo                  string         `json:"pan_no"`
	PanImage               NullAttachment `json:"pan_image"`
	LandOwner              string         `json:"land_owner"`
	IncomeCertificate      NullAttachment `json:"income_certificate"`
	ResidentialCertificate NullAttachment `json:"residential_certificate"`
	MaritalStatus          string         `json:"marital_status"`
}

// FamilyMembers gets stored as a single JSONB column.
type FamilyMembers []FamilyMember

func (fm FamilyMembers) Value() (driver.Value, error) {
	return json.Marshal(fm)
}

func (fm *FamilyMembers) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, fm)
	case string:
		return json.Unmarshal([]byte(v), fm)
	}
	return errors.New("models: unsupported scan type for FamilyMembers")
}

type Application struct {
	ID                     string         `db:"id" json:"id"`
	Scheme                 string         `db:"scheme" json:"scheme"`
	Name                   string         `db:"name" json:"name"`
	Age                    string         `db:"age" json:"age"`
	Occupation             string         `db:"occupation" json:"occupation"`
	MaritalStatus          string         `db:"marital_status" json:"marital_status"`
	LandOwner              string         `db:"land_owner" json:"land_owner"`
	AadhaarNo              string         `db:"aadhar_no" json:"aadhar_no"`
	PanNo                  string         `db:"pan_no" json:"pan_no"`
	State                  string         `db:"state" json:"state"`
	District               string         `db:"district" json:"district"`
	PinCode                string         `db:"pin_code" json:"pin_code"`
	WardNo                 string         `db:"ward_no" json:"ward_no"`
	Address                string         `db:"address" json:"address"`
	MobileNo               string         `db:"mobile_no" json:"mobile_no"`
	Email                  string         `db:"email" json:"email"`
	AadhaarImage           NullAttachment `db:"aadhar_image" json:"aadhar_image"`
	PanImage               NullAttachment `db:"pan_image" json:"pan_image"`
	IncomeCertificate      NullAttachment `db:"income_certificate" json:"income_certificate"`
	ResidentialCertificate NullAttachment `db:"residential_certificate" json:"residential_certificate"`
	FamilyPhoto            NullAttachment `db:"family_photo" json:"family_photo"`
	FamilyMembers          FamilyMembers  `db:"family_members" json:"family_members"`
	TrackingID             string         `db:"tracking_id" json:"tracking_id"`
	Status                 string         `db:"status" json:"status"`
	CreatedAt              time.Time      `db:"created_at" json:"created_at"`
}
