package api

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"github.com/aretw0/homecare/pkg/domain"
)

// Certificate types accepted by the upload endpoint.
const (
	CertificateDegree        = "degree"
	CertificateCertification = "certification"
)

// PersonalDetails is the first application section.
type PersonalDetails struct {
	FullName         string `json:"full_name" mapstructure:"full_name"`
	Age              int    `json:"age" mapstructure:"-"`
	Gender           string `json:"gender" mapstructure:"gender"`
	ContactNumber    string `json:"contact_number" mapstructure:"contact_number"`
	Email            string `json:"email" mapstructure:"email"`
	MothersName      string `json:"mothers_name" mapstructure:"mothers_name"`
	PermanentAddress string `json:"permanent_address" mapstructure:"permanent_address"`
	TemporaryAddress string `json:"temporary_address,omitempty" mapstructure:"temporary_address"`
	PinCode          string `json:"pin_code" mapstructure:"pin_code"`
	City             string `json:"city" mapstructure:"city"`
}

// Education is the academic section.
type Education struct {
	InstitutionName      string  `json:"institution_name" mapstructure:"institution_name"`
	Location             string  `json:"location" mapstructure:"location"`
	Degree               string  `json:"degree" mapstructure:"degree"`
	BPTh                 bool    `json:"bpth" mapstructure:"bpth"`
	MPTh                 bool    `json:"mpth" mapstructure:"mpth"`
	MPThSpecialization   string  `json:"mpth_specialization,omitempty" mapstructure:"mpth_specialization"`
	AggregatePercentage  float64 `json:"aggregate_percentage" mapstructure:"-"`
	YearOfGraduation     int     `json:"year_of_graduation" mapstructure:"-"`
	YearOfPostGraduation *int    `json:"year_of_post_graduation" mapstructure:"-"`
	ResearchTitle        string  `json:"research_title,omitempty" mapstructure:"research_title"`
	OtherCourses         string  `json:"other_courses,omitempty" mapstructure:"other_courses"`
	RegistrationNo       string  `json:"registration_no" mapstructure:"registration_no"`
}

// BankDetails is the payout section.
type BankDetails struct {
	BankName      string `json:"bank_name" mapstructure:"bank_name"`
	BranchName    string `json:"branch_name" mapstructure:"branch_name"`
	BranchAddress string `json:"branch_address" mapstructure:"branch_address"`
	AccountNumber string `json:"account_number" mapstructure:"account_number"`
	IFSCCode      string `json:"ifsc_code" mapstructure:"ifsc_code"`
	PANCardNumber string `json:"pan_card_number" mapstructure:"pan_card_number"`
	AadharNumber  string `json:"aadhar_number" mapstructure:"aadhar_number"`
	UPIID         string `json:"upi_id,omitempty" mapstructure:"upi_id"`
}

// JoiningDetails is the availability section.
type JoiningDetails struct {
	YearsOfExperience          int    `json:"years_of_experience" mapstructure:"-"`
	HasElectrotherapyEquipment bool   `json:"has_electrotherapy_equipment" mapstructure:"has_electrotherapy_equipment"`
	TravelDistance             string `json:"travel_distance" mapstructure:"travel_distance"`
	EmergencyAvailability      string `json:"emergency_availability" mapstructure:"emergency_availability"`
	UniquePractice             string `json:"unique_practice" mapstructure:"unique_practice"`
	StandoutQuality            string `json:"standout_quality" mapstructure:"standout_quality"`
}

// PractitionerApplication is the body of POST /practitioner/apply.
type PractitionerApplication struct {
	PersonalDetails PersonalDetails `json:"personal_details"`
	Education       Education       `json:"education"`
	BankDetails     BankDetails     `json:"bank_details"`
	JoiningDetails  JoiningDetails  `json:"joining_details"`
}

// ApplyResponse acknowledges an application.
type ApplyResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

// UploadResponse acknowledges a certificate upload.
type UploadResponse struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
}

// ApplyPractitioner submits an application.
func (c *Client) ApplyPractitioner(ctx context.Context, app PractitionerApplication) (*ApplyResponse, error) {
	var out ApplyResponse
	if err := c.doJSON(ctx, http.MethodPost, "/practitioner/apply", app, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadCertificate sends one PDF as multipart form data.
func (c *Client) UploadCertificate(ctx context.Context, practitionerID, certificateType string, f domain.FileHandle) (*UploadResponse, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, f.Name))
	h.Set("Content-Type", f.MimeType)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("api: create file part: %w", err)
	}
	if _, err := part.Write(f.Data); err != nil {
		return nil, fmt.Errorf("api: write file part: %w", err)
	}
	if err := w.WriteField("certificate_type", certificateType); err != nil {
		return nil, fmt.Errorf("api: write certificate type: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("api: close multipart body: %w", err)
	}

	path := "/practitioner/" + url.PathEscape(practitionerID) + "/upload-certificate"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, fmt.Errorf("api: build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var out UploadResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
