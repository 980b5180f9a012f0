// Package wizard drives an applicant through the three-step
// application form: scheme selection, personal information, family
// details. The whole wizard is JSON-serializable so in-progress state
// can live in the session cache between requests.
package wizard

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nyaaypath/nyaaypath/internal/models"
	"github.com/nyaaypath/nyaaypath/internal/tracking"
	"github.com/nyaaypath/nyaaypath/internal/validator"
)

type Step string

const (
	StepScheme    Step = "scheme"
	StepPersonal  Step = "personal"
	StepFamily    Step = "family"
	StepSubmitted Step = "submitted"
)

var (
	ErrUnknownScheme = errors.New("unknown scheme")
	ErrWrongStep     = errors.New("action not allowed at this step")
	ErrLastMember    = errors.New("at least one family member is required")
	ErrNoSuchMember  = errors.New("no family member at that position")
	ErrSubmitted     = errors.New("application has already been submitted")
)

// IncompleteStepError reports which fields block a forward transition.
type IncompleteStepError struct {
	Missing []string
}

func (e *IncompleteStepError) Error() string {
	return "Please fill or upload the following fields: " + strings.Join(e.Missing, ", ")
}

// Applicant holds the step-2 form fields plus the applicant's own
// identity documents. The identity subset mirrors a family member;
// on the personal→family transition it becomes member 1.
type Applicant struct {
	Name       string `json:"name"`
	Age        string `json:"age"`
	Occupation string `json:"occupation"`
	State      string `json:"state"`
	District   string `json:"district"`
	PinCode    string `json:"pin_code"`
	WardNo     string `json:"ward_no"`
	Address    string `json:"address"`
	MobileNo   string `json:"mobile_no"`
	Email      string `json:"email"`

	AadhaarNo              string                `json:"aadhar_no"`
	AadhaarImage           models.NullAttachment `json:"aadhar_image"`
	PanNo                  string                `json:"pan_no"`
	PanImage               models.NullAttachment `json:"pan_image"`
	LandOwner              string                `json:"land_owner"`
	IncomeCertificate      models.NullAttachment `json:"income_certificate"`
	ResidentialCertificate models.NullAttachment `json:"residential_certificate"`
	MaritalStatus          string                `json:"marital_status"`
}

type Wizard struct {
	Step        Step                  `json:"step"`
	Scheme      string                `json:"scheme"`
	Applicant   Applicant             `json:"applicant"`
	Members     models.FamilyMembers  `json:"members"`
	FamilyPhoto models.NullAttachment `json:"family_photo"`
	TrackingID  string                `json:"tracking_id"`
}

// New starts a wizard at the scheme step with a single empty family
// member, the same shape the form opens with.
func New() *Wizard {
	return &Wizard{
		Step:    StepScheme,
		Members: models.FamilyMembers{{}},
	}
}

// SetScheme records the chosen scheme. Only schemes from the published
// list are accepted.
func (w *Wizard) SetScheme(scheme string) error {
	if w.Step == StepSubmitted {
		return ErrSubmitted
	}
	if !validator.In(scheme, models.Schemes()...) {
		return fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}

	w.Scheme = scheme
	return nil
}

// SetPersonal replaces the step-2 fields, applying the same input
// normalization the form does.
func (w *Wizard) SetPersonal(a Applicant) error {
	if w.Step == StepSubmitted {
		return ErrSubmitted
	}

	a.Name = NormalizeName(a.Name)
	a.Age = NormalizeDigits(a.Age, 3)
	a.Occupation = NormalizeName(a.Occupation)
	a.District = NormalizeName(a.District)
	a.PinCode = NormalizeDigits(a.PinCode, 6)
	a.WardNo = NormalizeDigits(a.WardNo, 0)
	a.MobileNo = NormalizeDigits(a.MobileNo, 10)
	a.AadhaarNo = NormalizeAadhaar(a.AadhaarNo)
	a.PanNo = NormalizePan(a.PanNo)

	w.Applicant = a
	return nil
}

// Next advances one step when the current step's gate is satisfied.
func (w *Wizard) Next() error {
	switch w.Step {
	case StepScheme:
		if w.Scheme == "" {
			return &IncompleteStepError{Missing: []string{"Scheme"}}
		}
		w.Step = StepPersonal
		return nil

	case StepPersonal:
		var missing []string
		for _, f := range []struct{ label, value string }{
			{"Name", w.Applicant.Name},
			{"State", w.Applicant.State},
			{"District", w.Applicant.District},
			{"Pin Code", w.Applicant.PinCode},
			{"Ward Number", w.Applicant.WardNo},
			{"Complete Address", w.Applicant.Address},
		} {
			if !validator.NotBlank(f.value) {
				missing = append(missing, f.label)
			}
		}
		if len(missing) > 0 {
			return &IncompleteStepError{Missing: missing}
		}

		w.syncApplicantToFirstMember()
		w.Step = StepFamily
		return nil

	case StepFamily:
		return errors.New("use Complete to leave the family step")

	default:
		return ErrSubmitted
	}
}

// Back moves to the previous editable step.
func (w *Wizard) Back() error {
	switch w.Step {
	case StepPersonal:
		w.Step = StepScheme
	case StepFamily:
		w.Step = StepPersonal
	default:
		return ErrWrongStep
	}
	return nil
}

// The applicant is the implicit first family member; their identity
// fields overwrite member 1 whenever step 2 is left forward.
func (w *Wizard) syncApplicantToFirstMember() {
	if len(w.Members) == 0 {
		w.Members = models.FamilyMembers{{}}
	}

	a := w.Applicant
	w.Members[0] = models.FamilyMember{
		Name:                   a.Name,
		Age:                    a.Age,
		Occupation:             a.Occupation,
		AadhaarNo:              a.AadhaarNo,
		AadhaarImage:           a.AadhaarImage,
		PanNo:                  a.PanNo,
		PanImage:               a.PanImage,
		LandOwner:              a.LandOwner,
		IncomeCertificate:      a.IncomeCertificate,
		ResidentialCertificate: a.ResidentialCertificate,
		MaritalStatus:          a.MaritalStatus,
	}
}

// AddMember appends an empty member record. There is no upper bound.
func (w *Wizard) AddMember() int {
	w.Members = append(w.Members, models.FamilyMember{})
	return len(w.Members) - 1
}

// RemoveMember deletes the member at idx. The list never drops below
// one member.
func (w *Wizard) RemoveMember(idx int) error {
	if idx < 0 || idx >= len(w.Members) {
		return ErrNoSuchMember
	}
	if len(w.Members) == 1 {
		return ErrLastMember
	}

	w.Members = append(w.Members[:idx], w.Members[idx+1:]...)
	return nil
}

// MemberPatch edits individual fields of one member; nil fields are
// left untouched.
type MemberPatch struct {
	Name                   *string            `json:"name"`
	Age                    *string            `json:"age"`
	Occupation             *string            `json:"occupation"`
	AadhaarNo              *string            `json:"aadhar_no"`
	AadhaarImage           *models.Attachment `json:"aadhar_image"`
	PanNo                  *string            `json:"pan_no"`
	PanImage               *models.Attachment `json:"pan_image"`
	LandOwner              *string            `json:"land_owner"`
	IncomeCertificate      *models.Attachment `json:"income_certificate"`
	ResidentialCertificate *models.Attachment `json:"residential_certificate"`
	MaritalStatus          *string            `json:"marital_status"`
}

func (w *Wizard) UpdateMember(idx int, patch MemberPatch) error {
	if idx < 0 || idx >= len(w.Members) {
		return ErrNoSuchMember
	}

	m := &w.Members[idx]

	if patch.Name != nil {
		m.Name = NormalizeName(*patch.Name)
	}
	if patch.Age != nil {
		m.Age = NormalizeDigits(*patch.Age, 3)
	}
	if patch.Occupation != nil {
		m.Occupation = NormalizeName(*patch.Occupation)
	}
	if patch.AadhaarNo != nil {
		m.AadhaarNo = NormalizeAadhaar(*patch.AadhaarNo)
	}
	if patch.AadhaarImage != nil {
		m.AadhaarImage = models.NullAttachment{Attachment: *patch.AadhaarImage, Valid: true}
	}
	if patch.PanNo != nil {
		m.PanNo = NormalizePan(*patch.PanNo)
	}
	if patch.PanImage != nil {
		m.PanImage = models.NullAttachment{Attachment: *patch.PanImage, Valid: true}
	}
	if patch.LandOwner != nil {
		m.LandOwner = *patch.LandOwner
	}
	if patch.IncomeCertificate != nil {
		m.IncomeCertificate = models.NullAttachment{Attachment: *patch.IncomeCertificate, Valid: true}
	}
	if patch.ResidentialCertificate != nil {
		m.ResidentialCertificate = models.NullAttachment{Attachment: *patch.ResidentialCertificate, Valid: true}
	}
	if patch.MaritalStatus != nil {
		m.MaritalStatus = *patch.MaritalStatus
	}

	return nil
}

func (w *Wizard) SetFamilyPhoto(att models.Attachment) {
	w.FamilyPhoto = models.NullAttachment{Attachment: att, Valid: true}
}

// Complete validates the family step and assembles the finished
// application record: attachments already encoded, tracking id
// derived, timestamp stamped, status pending. It does not persist and
// does not change step; call MarkSubmitted once the record has been
// stored so a failed write keeps the applicant's data editable.
func (w *Wizard) Complete(now time.Time) (*models.Application, error) {
	if w.Step == StepSubmitted {
		return nil, ErrSubmitted
	}
	if w.Step != StepFamily {
		return nil, ErrWrongStep
	}

	if err := w.Validate(); err != nil {
		return nil, err
	}

	a := w.Applicant
	app := &models.Application{
		Scheme:                 w.Scheme,
		Name:                   a.Name,
		Age:                    a.Age,
		Occupation:             a.Occupation,
		MaritalStatus:          a.MaritalStatus,
		LandOwner:              a.LandOwner,
		AadhaarNo:              a.AadhaarNo,
		PanNo:                  a.PanNo,
		State:                  a.State,
		District:               a.District,
		PinCode:                a.PinCode,
		WardNo:                 a.WardNo,
		Address:                a.Address,
		MobileNo:               a.MobileNo,
		Email:                  a.Email,
		AadhaarImage:           a.AadhaarImage,
		PanImage:               a.PanImage,
		IncomeCertificate:      a.IncomeCertificate,
		ResidentialCertificate: a.ResidentialCertificate,
		FamilyPhoto:            w.FamilyPhoto,
		FamilyMembers:          append(models.FamilyMembers(nil), w.Members...),
		TrackingID:             tracking.Derive(a.Name, a.AadhaarNo, a.PanNo),
		Status:                 "pending",
		CreatedAt:              now,
	}

	return app, nil
}

// MarkSubmitted records the terminal state after a successful persist.
func (w *Wizard) MarkSubmitted(trackingID string) {
	w.Step = StepSubmitted
	w.TrackingID = trackingID
}
