package notify

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/mssola/useragent"

	"intake-backend/internal/applications"
	"intake-backend/internal/attachments"
)

// Alert carries everything the recruiter message renders.
type Alert struct {
	App         applications.Application
	Attachments []attachments.Ref
	SentAt      time.Time
	Location    *time.Location
}

// FormatAlert renders the recruiter alert as chat HTML. Sections with no
// data are omitted.
func FormatAlert(a Alert) string {
	var b strings.Builder

	loc := a.Location
	if loc == nil {
		loc = time.UTC
	}
	title := applications.JobCategories[a.App.Category]
	if title == "" {
		title = a.App.Category
	}

	b.WriteString("<b>New application in progress</b>\n")
	fmt.Fprintf(&b, "Time: %s\n", a.SentAt.In(loc).Format("2 Jan 2006 3:04 PM MST"))
	fmt.Fprintf(&b, "Role: %s\n", esc(title))
	fmt.Fprintf(&b, "Progress: step %d of 6\n", a.App.CurrentStep)
	fmt.Fprintf(&b, "Reference: %s\n", esc(a.App.SubjectID))

	writeSection(&b, "Applicant", a.App.Fields, []fieldLabel{
		{"firstName", "First name"},
		{"lastName", "Last name"},
		{"email", "Email"},
		{"phone", "Phone"},
		{"dateOfBirth", "Date of birth"},
		{"address", "Address"},
		{"suburb", "Suburb"},
		{"state", "State"},
		{"postcode", "Postcode"},
	})

	writeSection(&b, "Payroll details", a.App.Fields, []fieldLabel{
		{"tfn", "Tax file number"},
		{"bsb", "BSB"},
		{"accountNumber", "Account number"},
		{"bankName", "Bank"},
		{"superFund", "Super fund"},
	})

	writeSection(&b, "Emergency contact", a.App.Fields, []fieldLabel{
		{"emergencyName", "Name"},
		{"emergencyPhone", "Phone"},
		{"emergencyRelationship", "Relationship"},
	})

	writeSection(&b, "Work preferences", a.App.Fields, []fieldLabel{
		{"availability", "Availability"},
		{"startDate", "Earliest start"},
		{"workRights", "Work rights"},
	})

	if len(a.Attachments) > 0 {
		b.WriteString("\n<b>Documents</b>\n")
		for _, ref := range a.Attachments {
			fmt.Fprintf(&b, "- %s: %s (%s, %d bytes)\n",
				esc(ref.FieldName), esc(ref.OriginalName), esc(ref.MimeType), ref.ByteSize)
		}
	}

	writeDevice(&b, a.App.Environment)

	return strings.TrimRight(b.String(), "\n")
}

type fieldLabel struct {
	key   string
	label string
}

func writeSection(b *strings.Builder, title string, fields map[string]any, labels []fieldLabel) {
	var lines []string
	for _, fl := range labels {
		v, ok := fields[fl.key]
		if !ok {
			continue
		}
		s := strings.TrimSpace(fmt.Sprintf("%v", v))
		if s == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", fl.label, esc(s)))
	}
	if len(lines) == 0 {
		return
	}
	fmt.Fprintf(b, "\n<b>%s</b>\n", title)
	for _, l := range lines {
		b.WriteString(l)
		b.WriteString("\n")
	}
}

func writeDevice(b *strings.Builder, env applications.Environment) {
	var lines []string
	if env.UserAgent != "" {
		ua := useragent.New(env.UserAgent)
		name, version := ua.Browser()
		if name != "" {
			lines = append(lines, fmt.Sprintf("Browser: %s %s on %s", esc(name), esc(version), esc(ua.OS())))
		} else {
			lines = append(lines, fmt.Sprintf("User agent: %s", esc(env.UserAgent)))
		}
		if ua.Mobile() {
			lines = append(lines, "Device: mobile")
		}
	}
	if env.ScreenResolution != "" {
		lines = append(lines, fmt.Sprintf("Screen: %s", esc(env.ScreenResolution)))
	}
	if env.Timezone != "" {
		lines = append(lines, fmt.Sprintf("Timezone: %s", esc(env.Timezone)))
	}
	if env.Locale != "" {
		lines = append(lines, fmt.Sprintf("Locale: %s", esc(env.Locale)))
	}
	if env.Platform != "" {
		lines = append(lines, fmt.Sprintf("Platform: %s", esc(env.Platform)))
	}
	if len(lines) == 0 {
		return
	}
	b.WriteString("\n<b>Device</b>\n")
	for _, l := range lines {
		b.WriteString(l)
		b.WriteString("\n")
	}
}

func esc(s string) string {
	return html.EscapeString(s)
}
