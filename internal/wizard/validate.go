package wizard

import (
	"fmt"
	"strconv"

	"github.com/nyaaypath/nyaaypath/internal/models"
	"github.com/nyaaypath/nyaaypath/internal/validator"
)

const adultAge = 18

// Validate checks the family-step completion gate: every member must
// satisfy the age-conditional field requirements, a family photo must
// be attached, and the mobile number must be exactly 10 digits. All
// violations across all members are aggregated into one error so the
// applicant sees the full list at once.
func (w *Wizard) Validate() error {
	var missing []string

	for i, m := range w.Members {
		missing = append(missing, missingMemberFields(m, i)...)
	}

	if !w.FamilyPhoto.Valid {
		missing = append(missing, "Family Photo")
	}
	if len(w.Applicant.MobileNo) != 10 {
		missing = append(missing, "Mobile Number (10 digits)")
	}

	if len(missing) > 0 {
		return &IncompleteStepError{Missing: missing}
	}

	return nil
}

// Field labels and ordering match the form's diagnostics; "Member 1"
// is always the first list entry at validation time.
func missingMemberFields(m models.FamilyMember, idx int) []string {
	var missing []string

	add := func(label string) {
		missing = append(missing, fmt.Sprintf("Member %d: %s", idx+1, label))
	}

	if !validator.NotBlank(m.Name) {
		add("Name")
	}
	if !validator.NotBlank(m.Age) {
		add("Age")
	}
	if !validator.NotBlank(m.Occupation) {
		add("Occupation")
	}
	if !validator.NotBlank(m.AadhaarNo) {
		add("Aadhar No")
	}
	if !m.AadhaarImage.Valid {
		add("Aadhar Image")
	}
	if !validator.NotBlank(m.LandOwner) {
		add("Land Owner")
	}
	if !m.IncomeCertificate.Valid {
		add("Income Certificate")
	}
	if !m.ResidentialCertificate.Valid {
		add("Residential Certificate")
	}

	if IsAdult(m.Age) {
		if !validator.NotBlank(m.PanNo) {
			add("PAN No")
		}
		if !m.PanImage.Valid {
			add("PAN Image")
		}
		if !validator.NotBlank(m.MaritalStatus) {
			add("Marital Status")
		}
	}

	return missing
}

// IsAdult reports whether the entered age is 18 or above. A blank or
// unparseable age counts as a minor; the blank-age case is already a
// violation of its own.
func IsAdult(age string) bool {
	n, err := strconv.Atoi(age)
	if err != nil {
		return false
	}
	return n >= adultAge
}
