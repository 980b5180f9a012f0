package wizard

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/nyaaypath/nyaaypath/internal/models"
	"github.com/stretchr/testify/require"
)

func attachment(name string) models.Attachment {
	return models.Attachment{FileName: name, Data: "data:image/jpeg;base64,aGVsbG8="}
}

func nullAttachment(name string) models.NullAttachment {
	return models.NullAttachment{Attachment: attachment(name), Valid: true}
}

func completeApplicant() Applicant {
	return Applicant{
		Name:                   "Rajesh Kumar",
		Age:                    "42",
		Occupation:             "farmer",
		State:                  "Bihar",
		District:               "patna",
		PinCode:                "800001",
		WardNo:                 "12",
		Address:                "Village Rampur, Block Phulwari",
		MobileNo:               "9876543210",
		AadhaarNo:              "123456789012",
		AadhaarImage:           nullAttachment("aadhaar.jpg"),
		PanNo:                  "ab12cd34",
		PanImage:               nullAttachment("pan.jpg"),
		LandOwner:              "yes",
		IncomeCertificate:      nullAttachment("income.pdf"),
		ResidentialCertificate: nullAttachment("residence.pdf"),
		MaritalStatus:          "married",
	}
}

func wizardAtFamilyStep(t *testing.T) *Wizard {
	t.Helper()

	w := New()
	require.NoError(t, w.SetScheme(models.SchemePMAwasYojana))
	require.NoError(t, w.Next())
	require.NoError(t, w.SetPersonal(completeApplicant()))
	require.NoError(t, w.Next())
	require.Equal(t, StepFamily, w.Step)

	w.SetFamilyPhoto(attachment("family.jpg"))
	return w
}

func TestSchemeGate(t *testing.T) {
	w := New()

	err := w.Next()
	var incomplete *IncompleteStepError
	require.ErrorAs(t, err, &incomplete)
	require.Contains(t, incomplete.Missing, "Scheme")

	require.ErrorIs(t, w.SetScheme("Free Laptops"), ErrUnknownScheme)

	require.NoError(t, w.SetScheme(models.SchemeFloodRelief))
	require.NoError(t, w.Next())
	require.Equal(t, StepPersonal, w.Step)
}

func TestPersonalGateListsMissingFields(t *testing.T) {
	w := New()
	require.NoError(t, w.SetScheme(models.SchemeDroughtRelief))
	require.NoError(t, w.Next())

	require.NoError(t, w.SetPersonal(Applicant{Name: "ASHA DEVI"}))

	err := w.Next()
	var incomplete *IncompleteStepError
	require.ErrorAs(t, err, &incomplete)
	require.Contains(t, incomplete.Missing, "State")
	require.Contains(t, incomplete.Missing, "District")
	require.Contains(t, incomplete.Missing, "Pin Code")
	require.Contains(t, incomplete.Missing, "Ward Number")
	require.Contains(t, incomplete.Missing, "Complete Address")
	require.NotContains(t, incomplete.Missing, "Name")
	require.Equal(t, StepPersonal, w.Step)
}

func TestPersonalNormalization(t *testing.T) {
	w := New()
	require.NoError(t, w.SetScheme(models.SchemeSwachhBharat))
	require.NoError(t, w.Next())

	require.NoError(t, w.SetPersonal(Applicant{
		Name:      "rajesh kumar",
		District:  "patna",
		PinCode:   "800001234",
		WardNo:    "ward 12",
		MobileNo:  "+91 98765 43210 99",
		AadhaarNo: "1234-5678-9012-3456",
		PanNo:     "ab12cd34efgh",
	}))

	require.Equal(t, "RAJESH KUMAR", w.Applicant.Name)
	require.Equal(t, "PATNA", w.Applicant.District)
	require.Equal(t, "800001", w.Applicant.PinCode)
	require.Equal(t, "12", w.Applicant.WardNo)
	require.Equal(t, "9198765432", w.Applicant.MobileNo)
	require.Equal(t, "1234 5678 9012", w.Applicant.AadhaarNo)
	require.Equal(t, "AB12CD34", w.Applicant.PanNo)
}

func TestApplicantSyncsToFirstMember(t *testing.T) {
	w := wizardAtFamilyStep(t)

	require.Len(t, w.Members, 1)
	require.Equal(t, "RAJESH KUMAR", w.Members[0].Name)
	require.Equal(t, "1234 5678 9012", w.Members[0].AadhaarNo)
	require.Equal(t, "AB12CD34", w.Members[0].PanNo)
	require.True(t, w.Members[0].PanImage.Valid)
}

func TestBackAndForwardKeepsData(t *testing.T) {
	w := wizardAtFamilyStep(t)

	require.NoError(t, w.Back())
	require.Equal(t, StepPersonal, w.Step)
	require.NoError(t, w.Back())
	require.Equal(t, StepScheme, w.Step)
	require.ErrorIs(t, w.Back(), ErrWrongStep)

	require.NoError(t, w.Next())
	require.NoError(t, w.Next())
	require.Equal(t, StepFamily, w.Step)
	require.Equal(t, models.SchemePMAwasYojana, w.Scheme)
}

func TestRemoveLastMemberIsRejected(t *testing.T) {
	w := New()
	require.Len(t, w.Members, 1)

	require.ErrorIs(t, w.RemoveMember(0), ErrLastMember)
	require.Len(t, w.Members, 1)

	w.AddMember()
	require.NoError(t, w.RemoveMember(1))
	require.Len(t, w.Members, 1)
	require.ErrorIs(t, w.RemoveMember(0), ErrLastMember)

	require.ErrorIs(t, w.RemoveMember(5), ErrNoSuchMember)
}

func TestUpdateMemberPatchesSingleFields(t *testing.T) {
	w := New()

	name := "sita devi"
	age := "16"
	require.NoError(t, w.UpdateMember(0, MemberPatch{Name: &name, Age: &age}))
	require.Equal(t, "SITA DEVI", w.Members[0].Name)
	require.Equal(t, "16", w.Members[0].Age)
	require.Empty(t, w.Members[0].Occupation)

	img := attachment("aadhaar.jpg")
	require.NoError(t, w.UpdateMember(0, MemberPatch{AadhaarImage: &img}))
	require.True(t, w.Members[0].AadhaarImage.Valid)
	require.Equal(t, "SITA DEVI", w.Members[0].Name)

	require.ErrorIs(t, w.UpdateMember(3, MemberPatch{Name: &name}), ErrNoSuchMember)
}

func TestAdultMemberRequiresPanAndMaritalStatus(t *testing.T) {
	w := wizardAtFamilyStep(t)

	idx := w.AddMember()
	require.NoError(t, w.UpdateMember(idx, completeMemberPatch("RAMESH KUMAR", "30")))

	// drop the adult-only fields
	empty := ""
	require.NoError(t, w.UpdateMember(idx, MemberPatch{PanNo: &empty, MaritalStatus: &empty}))
	w.Members[idx].PanImage = models.NullAttachment{}

	_, err := w.Complete(time.Now())
	var incomplete *IncompleteStepError
	require.ErrorAs(t, err, &incomplete)
	require.Contains(t, incomplete.Missing, "Member 2: PAN No")
	require.Contains(t, incomplete.Missing, "Member 2: PAN Image")
	require.Contains(t, incomplete.Missing, "Member 2: Marital Status")
}

func TestMinorMemberSkipsAdultFields(t *testing.T) {
	w := wizardAtFamilyStep(t)

	idx := w.AddMember()
	patch := completeMemberPatch("CHOTU KUMAR", "12")
	empty := ""
	patch.PanNo = &empty
	patch.MaritalStatus = &empty
	require.NoError(t, w.UpdateMember(idx, patch))
	w.Members[idx].PanImage = models.NullAttachment{}

	_, err := w.Complete(time.Now())
	require.NoError(t, err)
}

func TestAdultMissingPanImageDiagnostic(t *testing.T) {
	w := wizardAtFamilyStep(t)

	// the applicant (member 1) loses their PAN image
	w.Members[0].PanImage = models.NullAttachment{}

	_, err := w.Complete(time.Now())
	var incomplete *IncompleteStepError
	require.ErrorAs(t, err, &incomplete)
	require.Contains(t, incomplete.Missing, "Member 1: PAN Image")
	require.Contains(t, err.Error(), "Member 1: PAN Image")
}

func TestFamilyPhotoAndMobileGate(t *testing.T) {
	w := wizardAtFamilyStep(t)
	w.FamilyPhoto = models.NullAttachment{}
	w.Applicant.MobileNo = "98765"

	_, err := w.Complete(time.Now())
	var incomplete *IncompleteStepError
	require.ErrorAs(t, err, &incomplete)
	require.Contains(t, incomplete.Missing, "Family Photo")
	require.Contains(t, incomplete.Missing, "Mobile Number (10 digits)")
}

func TestCompleteBuildsApplication(t *testing.T) {
	w := wizardAtFamilyStep(t)
	now := time.Date(2025, 7, 14, 9, 30, 0, 0, time.UTC)

	app, err := w.Complete(now)
	require.NoError(t, err)

	require.Equal(t, models.SchemePMAwasYojana, app.Scheme)
	require.Equal(t, "RAJE 9012 AB12", app.TrackingID)
	require.Equal(t, "pending", app.Status)
	require.Equal(t, now, app.CreatedAt)
	require.Len(t, app.FamilyMembers, 1)
	require.True(t, app.FamilyPhoto.Valid)

	// Complete alone must not advance the wizard; a failed persist
	// keeps the applicant's data editable.
	require.Equal(t, StepFamily, w.Step)

	w.MarkSubmitted(app.TrackingID)
	require.Equal(t, StepSubmitted, w.Step)
	require.Equal(t, app.TrackingID, w.TrackingID)

	_, err = w.Complete(now)
	require.ErrorIs(t, err, ErrSubmitted)
	require.ErrorIs(t, w.SetScheme(models.SchemeFloodRelief), ErrSubmitted)
}

func TestWizardJSONRoundTrip(t *testing.T) {
	w := wizardAtFamilyStep(t)
	w.AddMember()

	raw, err := json.Marshal(w)
	require.NoError(t, err)

	var restored Wizard
	require.NoError(t, json.Unmarshal(raw, &restored))

	require.Equal(t, w.Step, restored.Step)
	require.Equal(t, w.Scheme, restored.Scheme)
	require.Equal(t, w.Applicant, restored.Applicant)
	require.Equal(t, w.Members, restored.Members)
	require.Equal(t, w.FamilyPhoto, restored.FamilyPhoto)
}

func TestIsAdult(t *testing.T) {
	require.True(t, IsAdult("18"))
	require.True(t, IsAdult("65"))
	require.False(t, IsAdult("17"))
	require.False(t, IsAdult(""))
	require.False(t, IsAdult("abc"))
}

func completeMemberPatch(name, age string) MemberPatch {
	occupation := "FARMER"
	aadhaar := "9876 5432 1098"
	pan := "ZX98YW76"
	landOwner := "no"
	marital := "single"
	aadhaarImg := attachment("aadhaar.jpg")
	panImg := attachment("pan.jpg")
	incomeCert := attachment("income.pdf")
	resCert := attachment("residence.pdf")

	return MemberPatch{
		Name:                   &name,
		Age:                    &age,
		Occupation:             &occupation,
		AadhaarNo:              &aadhaar,
		AadhaarImage:           &aadhaarImg,
		PanNo:                  &pan,
		PanImage:               &panImg,
		LandOwner:              &landOwner,
		IncomeCertificate:      &incomeCert,
		ResidentialCertificate: &resCert,
		MaritalStatus:          &marital,
	}
}
