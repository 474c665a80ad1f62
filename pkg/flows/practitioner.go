package flows

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/aretw0/homecare/pkg/api"
	"github.com/aretw0/homecare/pkg/domain"
	"github.com/aretw0/homecare/pkg/dsl"
	"github.com/aretw0/homecare/pkg/schema"
	"github.com/aretw0/homecare/pkg/wizard"
	"github.com/mitchellh/mapstructure"
)

// PractitionerFlow is the catalog name of the practitioner application.
const PractitionerFlow = "practitioner"

// Maximum certificate size accepted by the application.
const maxCertificateMB = 5

// PractitionerDefinition describes the four-section application.
func PractitionerDefinition() *domain.Definition {
	pdf := dsl.PDFUpTo(maxCertificateMB)
	return dsl.New(PractitionerFlow).
		Title("Join as a physiotherapist").
		FailureMessage("Failed to submit application. Please try again.").
		Defaults(func(domain.Input) domain.Answers {
			return domain.Answers{"bpth": false, "mpth": false, "has_electrotherapy_equipment": false}
		}).
		Payload(practitionerPayload).
		Step("personal").
		Title("Personal details").
		Text("full_name", "Full Name").
		Number("age", "Age").
		Select("gender", "Gender", "male", "female", "other").
		Phone("contact_number", "Contact Number").
		Text("email", "Email").
		Text("mothers_name", "Mother's Name").
		Textarea("permanent_address", "Permanent Address").
		Textarea("temporary_address", "Temporary Address (optional)").
		Digits("pin_code", "PIN Code", 6).
		Text("city", "City").
		Require("full_name", "age", "gender", "contact_number", "email", "mothers_name", "permanent_address", "pin_code", "city").
		Step("education").
		Title("Education").
		Text("institution_name", "Institution Name").
		Text("location", "Location").
		Text("degree", "Degree").
		Boolean("bpth", "BPTh").
		Boolean("mpth", "MPTh").
		Text("mpth_specialization", "MPTh Specialization (optional)").
		Number("aggregate_percentage", "Aggregate Percentage").
		Number("year_of_graduation", "Year of Graduation").
		Number("year_of_post_graduation", "Year of Post Graduation (optional)").
		Text("research_title", "Research Title (optional)").
		Textarea("other_courses", "Other Courses (optional)").
		Text("registration_no", "Registration No.").
		File("degree_certificate", "Upload Degree Certificate (PDF, max 5MB)", pdf).
		Files("certifications", "Upload Certifications (PDF, max 5MB each)", pdf).
		Require("institution_name", "location", "degree", "aggregate_percentage", "year_of_graduation", "registration_no").
		Step("bank").
		Title("Bank details").
		Text("bank_name", "Bank Name").
		Text("branch_name", "Branch Name").
		Textarea("branch_address", "Branch Address").
		Digits("account_number", "Account Number", 18).
		Upper("ifsc_code", "IFSC Code", 11).
		Upper("pan_card_number", "PAN Card Number", 10).
		Digits("aadhar_number", "Aadhar Number", 12).
		Text("upi_id", "UPI ID (optional)").
		Require("bank_name", "branch_name", "branch_address", "account_number", "ifsc_code", "pan_card_number", "aadhar_number").
		Step("joining").
		Title("Joining details").
		Number("years_of_experience", "Years of Experience").
		Boolean("has_electrotherapy_equipment", "Do you have electrotherapy equipment?").
		Select("travel_distance", "How far can you travel?", "5km", "10km", "15km", "20km+").
		Select("emergency_availability", "Available for emergency visits?", "yes", "maybe", "no").
		Field(domain.Field{Key: "unique_practice", Label: "What makes your practice unique?", Kind: domain.KindTextarea, Normalize: domain.MaxLength(500)}).
		Field(domain.Field{Key: "standout_quality", Label: "What quality makes you stand out?", Kind: domain.KindTextarea, Normalize: domain.MaxLength(500)}).
		Require("years_of_experience", "travel_distance", "emergency_availability", "unique_practice", "standout_quality").
		Done().
		MustBuild()
}

// Application is the practitioner payload: the JSON body plus the files
// uploaded once the application exists.
type Application struct {
	Body           api.PractitionerApplication
	Degree         *domain.FileHandle
	Certifications []domain.FileHandle
}

// decodeSection copies the string and bool answers into a section struct.
// Numeric fields are tagged out and coerced separately.
func decodeSection(answers domain.Answers, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	plain := make(map[string]any, len(answers))
	for k, v := range answers {
		switch v.(type) {
		case domain.FileHandle, []domain.FileHandle:
			continue
		}
		plain[k] = v
	}
	return dec.Decode(plain)
}

func practitionerPayload(in domain.Input) (any, error) {
	a := in.Answers
	var app api.PractitionerApplication
	for _, section := range []any{&app.PersonalDetails, &app.Education, &app.BankDetails, &app.JoiningDetails} {
		if err := decodeSection(a, section); err != nil {
			return nil, fmt.Errorf("decode application: %w", err)
		}
	}

	c := schema.NewCoercer(a)
	app.PersonalDetails.Age = c.Int("age")
	app.Education.AggregatePercentage = c.Float("aggregate_percentage")
	app.Education.YearOfGraduation = c.Int("year_of_graduation")
	app.Education.YearOfPostGraduation = c.OptionalInt("year_of_post_graduation")
	app.JoiningDetails.YearsOfExperience = c.Int("years_of_experience")
	if err := c.Err(); err != nil {
		return nil, err
	}

	out := Application{Body: app, Certifications: a.Files("certifications")}
	if files := a.Files("degree_certificate"); len(files) > 0 {
		d := files[0]
		out.Degree = &d
	}
	return out, nil
}

// ApplicationResult is the outcome of a complete application.
type ApplicationResult struct {
	ID       string `json:"id"`
	Message  string `json:"message"`
	Uploaded int    `json:"uploaded"`
}

// applicationSubmitter applies once and then uploads the certificates.
// A retry after a failed upload reuses the application id and skips the files
// already accepted, since the backend rejects a second application per email.
type applicationSubmitter struct {
	backend PractitionerAPI
	flow    *base

	mu       sync.Mutex
	id       string
	email    string
	message  string
	uploaded map[string]bool
}

func (s *applicationSubmitter) submit(ctx context.Context, payload any) (any, error) {
	app := payload.(Application)
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(app.Body.PersonalDetails.Email)
	if s.id == "" || s.email != email {
		resp, err := s.backend.ApplyPractitioner(ctx, app.Body)
		if err != nil {
			return nil, err
		}
		s.id, s.email, s.message = resp.ID, email, resp.Message
		s.uploaded = make(map[string]bool)
		s.flow.logger.Info("Application created", "id", resp.ID)
	}

	type upload struct {
		kind string
		file domain.FileHandle
	}
	var uploads []upload
	if app.Degree != nil {
		uploads = append(uploads, upload{api.CertificateDegree, *app.Degree})
	}
	for _, f := range app.Certifications {
		uploads = append(uploads, upload{api.CertificateCertification, f})
	}

	// Keyed by content, not position: a file removed before a retry shifts the others.
	for _, u := range uploads {
		key := fmt.Sprintf("%s/%s/%d", u.kind, u.file.Name, u.file.Size)
		if !s.uploaded[key] {
			if _, err := s.backend.UploadCertificate(ctx, s.id, u.kind, u.file); err != nil {
				return nil, fmt.Errorf("upload %s %q: %w", u.kind, u.file.Name, err)
			}
			s.uploaded[key] = true
		}
	}
	return ApplicationResult{ID: s.id, Message: s.message, Uploaded: len(uploads)}, nil
}

// Practitioner is a live practitioner application.
type Practitioner struct {
	base
	submitter *applicationSubmitter
}

// OpenPractitioner starts an application. No login is needed.
func OpenPractitioner(deps Deps) (*Practitioner, error) {
	p := &Practitioner{}
	p.submitter = &applicationSubmitter{backend: deps.Backend, flow: &p.base}
	e, err := wizard.New(PractitionerDefinition(), p.submitter.submit, deps.engineOptions()...)
	if err != nil {
		return nil, err
	}
	p.base = base{engine: e, logger: deps.logger()}
	return p, nil
}

// ApplicationID returns the backend id once the application was accepted,
// even if some uploads are still pending.
func (p *Practitioner) ApplicationID() string {
	p.submitter.mu.Lock()
	defer p.submitter.mu.Unlock()
	return p.submitter.id
}
