package wizard

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// StepCount is the number of wizard steps.
const StepCount = 6

// MinimumAge is the lowest accepted applicant age in whole years.
const MinimumAge = 18

const dateLayout = "2006-01-02"

// Step describes one wizard page for clients rendering the form.
type Step struct {
	Number int      `json:"number"`
	Title  string   `json:"title"`
	Fields []string `json:"fields"`
}

// Steps is the fixed six-step schema.
var Steps = []Step{
	{
		Number: 1,
		Title:  "Personal details",
		Fields: []string{
			"firstName", "lastName", "email", "phone", "dateOfBirth",
			"address", "suburb", "state", "postcode",
			"emergencyName", "emergencyPhone", "emergencyRelationship",
			"availability", "startDate", "workRights",
		},
	},
	{
		Number: 2,
		Title:  "Driver licence upload",
		Fields: []string{"licenceFile"},
	},
	{
		Number: 3,
		Title:  "Identity verification",
		Fields: []string{"idType1", "idFile1", "idType2", "idFile2"},
	},
	{
		Number: 4,
		Title:  "Tax details",
		Fields: []string{"tfn", "superFund"},
	},
	{
		Number: 5,
		Title:  "Bank details",
		Fields: []string{"bankName", "bsb", "accountNumber"},
	},
	{
		Number: 6,
		Title:  "Review and consent",
		Fields: []string{"termsAccepted", "privacyAccepted"},
	},
}

// attachmentChecker reports whether an uploaded file exists for the field.
type attachmentChecker func(ctx context.Context, subjectID, fieldName string) bool

// validateStep runs the leaving-step predicate against the merged session
// fields. A nil error permits the forward transition.
func validateStep(ctx context.Context, step int, subjectID string, fields map[string]any, hasAttachment attachmentChecker, now time.Time) error {
	switch step {
	case 1:
		return validateAge(fields, now)
	case 2:
		return nil
	case 3:
		return validateIdentity(ctx, subjectID, fields, hasAttachment)
	case 4:
		if stringField(fields, "tfn") == "" {
			return fmt.Errorf("tax file number is required")
		}
		return nil
	case 5:
		if stringField(fields, "bsb") == "" {
			return fmt.Errorf("BSB is required")
		}
		if stringField(fields, "accountNumber") == "" {
			return fmt.Errorf("account number is required")
		}
		return nil
	case 6:
		if !boolField(fields, "termsAccepted") {
			return fmt.Errorf("terms must be accepted")
		}
		if !boolField(fields, "privacyAccepted") {
			return fmt.Errorf("privacy statement must be accepted")
		}
		return nil
	default:
		return fmt.Errorf("unknown step %d", step)
	}
}

// validateAge rejects applicants under MinimumAge. Age is whole completed
// years: one day short of the birthday still counts as the previous age.
// A missing or blank dateOfBirth passes; it is not this check's job to
// enforce presence.
func validateAge(fields map[string]any, now time.Time) error {
	dobRaw := stringField(fields, "dateOfBirth")
	if dobRaw == "" {
		return nil
	}
	dob, err := time.Parse(dateLayout, dobRaw)
	if err != nil {
		return fmt.Errorf("date of birth must be in YYYY-MM-DD format")
	}
	if ageYears(dob, now) < MinimumAge {
		return fmt.Errorf("applicants must be at least %d years old", MinimumAge)
	}
	return nil
}

func ageYears(dob, now time.Time) int {
	years := now.Year() - dob.Year()
	anniversary := dob.AddDate(years, 0, 0)
	if anniversary.After(now) {
		years--
	}
	return years
}

func validateIdentity(ctx context.Context, subjectID string, fields map[string]any, hasAttachment attachmentChecker) error {
	type1 := stringField(fields, "idType1")
	type2 := stringField(fields, "idType2")
	if type1 != "" && type1 == type2 {
		return fmt.Errorf("the two identity documents must be of different types")
	}
	if type1 == "" || stringField(fields, "idFile1") == "" {
		return fmt.Errorf("first identity document and its file are required")
	}
	if type2 == "" || stringField(fields, "idFile2") == "" {
		return fmt.Errorf("second identity document and its file are required")
	}
	if hasAttachment != nil {
		if !hasAttachment(ctx, subjectID, "idFile1") {
			return fmt.Errorf("first identity document has not been uploaded")
		}
		if !hasAttachment(ctx, subjectID, "idFile2") {
			return fmt.Errorf("second identity document has not been uploaded")
		}
	}
	return nil
}

func stringField(fields map[string]any, key string) string {
	v, ok := fields[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
	return strings.TrimSpace(s)
}

func boolField(fields map[string]any, key string) bool {
	switch v := fields[key].(type) {
	case bool:
		return v
	case string:
		return strings.EqualFold(strings.TrimSpace(v), "true")
	default:
		return false
	}
}
