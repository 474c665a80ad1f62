package flows

import (
	"context"
	"fmt"
	"net/url"

	"github.com/aretw0/homecare/pkg/api"
	"github.com/aretw0/homecare/pkg/domain"
	"github.com/aretw0/homecare/pkg/dsl"
	"github.com/aretw0/homecare/pkg/schema"
	"github.com/aretw0/homecare/pkg/wizard"
)

// AssessmentFlow is the catalog name of the assessment intake.
const AssessmentFlow = "assessment"

// Complaint is one chief-complaint category.
type Complaint struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
}

// Complaints lists the categories offered on the complaint step.
var Complaints = []Complaint{
	{ID: "joint_muscle", Label: "Joint or muscle pain / injury"},
	{ID: "nerve_related", Label: "Nerve-related problem"},
	{ID: "walking_balance", Label: "Difficulty walking or balance issues"},
	{ID: "post_surgery", Label: "Surgery done recently"},
	{ID: "sports_injury", Label: "Sports injury or fitness pain"},
	{ID: "community_care", Label: "Community / home-bound care"},
}

var conditionalQuestions = map[string][]domain.Field{
	"joint_muscle": {
		dsl.SelectField("painLocation", "Where is your pain?", "Neck", "Shoulder", "Back", "Knee", "Hip", "Ankle / Foot"),
		dsl.SelectField("painDuration", "Pain duration", "< 2 weeks", "2–6 weeks", "> 6 weeks"),
		dsl.RangeField("painSeverity", "Pain severity (0–10)", 0, 10),
		dsl.BooleanField("painWithMovement", "Does pain increase with movement?"),
	},
	"nerve_related": {
		dsl.SelectField("neuroDiagnosis", "Have you been diagnosed with", "Stroke", "Spinal cord injury", "Parkinson's", "Nerve compression / slipped disc"),
		dsl.SelectField("neuroSymptoms", "Current difficulty", "Weakness in arm/leg", "Tingling or numbness", "Difficulty walking", "Balance problems"),
		dsl.SelectField("walkIndependently", "Can you walk independently?", "Yes", "With support", "No"),
	},
	"walking_balance": {
		dsl.SelectField("geriatricExperience", "Do you experience", "Fear of falling", "Difficulty getting up", "General weakness", "Balance issues"),
		dsl.BooleanField("recentFalls", "Any recent falls?"),
		dsl.BooleanField("assistanceAtHome", "Need assistance at home?"),
	},
	"post_surgery": {
		dsl.SelectField("surgeryType", "Surgery type", "Knee replacement", "Hip replacement", "Spine surgery", "Fracture fixation"),
		dsl.NumberField("surgeryDays", "Days since surgery"),
		dsl.BooleanField("stitchesRemoved", "Stitches removed?"),
		dsl.BooleanField("doctorAdvised", "Doctor advised physiotherapy?"),
	},
	"sports_injury": {
		dsl.SelectField("activityLevel", "Activity level", "Gym", "Running", "Sports (football, cricket, etc.)"),
		dsl.SelectField("injuryType", "Injury type", "Muscle strain", "Ligament injury", "Overuse pain"),
		dsl.BooleanField("duringActivity", "Happened during sports?"),
	},
	"community_care": {
		dsl.SelectField("careType", "Looking for", "Long-term home care", "Bed-bound patient rehab", "Group physiotherapy"),
		dsl.SelectField("patientCondition", "Patient condition", "Bed-bound", "Wheelchair-bound", "Limited mobility"),
	},
}

// ConditionalQuestions returns the follow-up questions for a complaint category.
// Unknown categories have none.
func ConditionalQuestions(category string) []domain.Field {
	return append([]domain.Field(nil), conditionalQuestions[category]...)
}

func complaintIDs() []string {
	ids := make([]string, len(Complaints))
	for i, c := range Complaints {
		ids[i] = c.ID
	}
	return ids
}

// AssessmentDefinition describes the three-step intake.
func AssessmentDefinition() *domain.Definition {
	return dsl.New(AssessmentFlow).
		Title("Physiotherapy assessment").
		FailureMessage("Failed to submit. Please try again.").
		Payload(assessmentPayload).
		Step("basic").
		Title("Tell us about yourself").
		Text("name", "Full Name").Placeholder("Enter your name").
		Number("age", "Age").
		Select("gender", "Gender", "male", "female", "other").
		Text("city", "City / Area").Placeholder("e.g., Koramangala, Bangalore").
		Phone("contact", "Contact Number").Placeholder("10-digit mobile number").
		Require("name", "age", "gender", "city", "contact").
		Step("complaint").
		Title("What brings you here?").
		Select("chiefComplaint", "Chief complaint", complaintIDs()...).
		Require("chiefComplaint").
		Step("details").
		Title("A few more questions").
		Describe("These help us match you with the right physiotherapist.").
		Conditional("chiefComplaint", ConditionalQuestions).
		Done().
		MustBuild()
}

func assessmentPayload(in domain.Input) (any, error) {
	a := in.Answers
	c := schema.NewCoercer(a)
	category := a.String("chiefComplaint")

	conditional := make(map[string]any)
	for _, f := range ConditionalQuestions(category) {
		v, ok := a[f.Key]
		if !ok || domain.IsEmpty(v) {
			continue
		}
		switch f.Kind {
		case domain.KindNumber, domain.KindRange:
			conditional[f.Key] = c.Int(f.Key)
		default:
			conditional[f.Key] = v
		}
	}

	req := api.AssessmentRequest{
		BasicDetails: api.BasicDetails{
			Name:          a.String("name"),
			Age:           c.Int("age"),
			Gender:        a.String("gender"),
			CityArea:      a.String("city"),
			ContactNumber: a.String("contact"),
		},
		ChiefComplaint:     category,
		ConditionalAnswers: conditional,
	}
	if err := c.Err(); err != nil {
		return nil, err
	}
	return req, nil
}

// AssessmentResult is the server's verdict on a submitted assessment.
type AssessmentResult struct {
	ID                 string `json:"id"`
	RecommendedService string `json:"recommended_service"`
}

// BookingPath is where the client continues: the booking flow for the
// recommended service, linked to this assessment.
func (r AssessmentResult) BookingPath() string {
	return fmt.Sprintf("/book/%s?assessment=%s", url.PathEscape(r.RecommendedService), url.QueryEscape(r.ID))
}

// BookingParams are the params to open the booking flow with.
func (r AssessmentResult) BookingParams() map[string]string {
	return map[string]string{ParamService: r.RecommendedService, ParamAssessment: r.ID}
}

// Assessment is a live assessment intake.
type Assessment struct {
	base
}

// OpenAssessment starts an assessment intake.
func OpenAssessment(deps Deps) (*Assessment, error) {
	backend := deps.Backend
	submit := func(ctx context.Context, payload any) (any, error) {
		created, err := backend.CreateAssessment(ctx, payload.(api.AssessmentRequest))
		if err != nil {
			return nil, err
		}
		return AssessmentResult{ID: created.ID, RecommendedService: created.RecommendedService}, nil
	}
	e, err := wizard.New(AssessmentDefinition(), submit, deps.engineOptions()...)
	if err != nil {
		return nil, err
	}
	return &Assessment{base: base{engine: e, logger: deps.logger()}}, nil
}

// Result returns the server recommendation once submitted.
func (a *Assessment) Result() (AssessmentResult, bool) {
	r, ok := a.engine.State().Result.(AssessmentResult)
	return r, ok
}
