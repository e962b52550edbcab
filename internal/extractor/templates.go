package extractor

import (
	"fmt"
	"sort"
	"strings"
)

// TranscriptPlaceholder marks where the transcript goes in an instruction.
const TranscriptPlaceholder = "{{TRANSCRIPT}}"

const insuranceSystem = "You are a highly intelligent AI trained to analyze call transcripts for insurance purposes."

// Template is one business question asked of a transcript.
type Template struct {
	Name        string
	System      string
	Instruction string
	// Headers are accepted prefixes of a well formed reply. Empty means any.
	Headers []string
	// Fields are the keys requested in structured mode.
	Fields []string
}

// Prompt substitutes the transcript into the instruction.
func (t Template) Prompt(transcript string) string {
	return strings.ReplaceAll(t.Instruction, TranscriptPlaceholder, transcript)
}

// StructuredPrompt asks for a JSON object with exactly the template fields.
func (t Template) StructuredPrompt(transcript string) string {
	var b strings.Builder
	b.WriteString(t.Prompt(transcript))
	b.WriteString("\n\nReturn ONLY a JSON object with exactly these keys: ")
	b.WriteString(strings.Join(t.Fields, ", "))
	b.WriteString(". Use \"Yes\"/\"No\" or TRUE/FALSE for yes/no questions and an empty string when the transcript does not say. Do not wrap the JSON in backticks.")
	return b.String()
}

// HeaderOK reports whether text starts with one of the expected headers.
func (t Template) HeaderOK(text string) bool {
	if len(t.Headers) == 0 {
		return true
	}
	trimmed := strings.TrimSpace(text)
	for _, h := range t.Headers {
		if strings.HasPrefix(trimmed, h) {
			return true
		}
	}
	return false
}

var templates = map[string]Template{}

func register(t Template) { templates[t.Name] = t }

// Lookup returns the named template.
func Lookup(name string) (Template, error) {
	t, ok := templates[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Template{}, fmt.Errorf("unknown analysis template %q (known: %s)", name, strings.Join(Names(), ", "))
	}
	return t, nil
}

// Names lists the registered templates in sorted order.
func Names() []string {
	out := make([]string, 0, len(templates))
	for n := range templates {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func init() {
	register(Template{
		Name:   "billability",
		System: insuranceSystem,
		Instruction: `Analyze the following call transcript:
{{TRANSCRIPT}}

Based on the transcript, determine:
1. A brief call summary including key details and outcomes.
2. If the call is billable. A call is not billable if any of the following is true:
   - The prospect lives in a nursing home.
   - The prospect does not have a bank account, debit card, or credit card.
   - The prospect needs a power of attorney present when making financial decisions.
   - The prospect is 81 years old or older.
   - The prospect does not know they are on the call to speak with an agent regarding final expense or life insurance.
3. If a quote for final expense or life insurance was given.
4. If a sale was made, indicated by the prospect providing their bank account and routing numbers or their credit card number. Include the insurance carrier and monthly premium if available.`,
		Fields: []string{"summary", "billable", "quote_given", "sale_made", "insurance_carrier", "monthly_premium"},
	})

	register(Template{
		Name:   "renewal",
		System: insuranceSystem,
		Instruction: `Analyze the following call transcript:
{{TRANSCRIPT}}

You are analyzing a call between our AI voice agent and an ACA health insurance customer. For each of the seven categories below decide TRUE or FALSE and give a brief justification citing the transcript. An appointment needs a specific date and time; a callback does not. Appointment and callback cannot both be TRUE.

1. contacted: did the customer answer and speak with the AI?
2. renewal: did the customer agree to receive renewal documents by email?
3. consent: did the customer agree that the agency may continue as their Agent of Record?
4. appointment: did the customer agree to a specific date and time to meet an agent? If TRUE give the date and time.
5. callback: did the customer ask to be called back without a specific time?
6. addons: did the customer express interest in life or dental insurance?
7. remove: did the customer ask us to stop calling?

Output format, one line per category and nothing before the first line:
contacted: TRUE/FALSE - justification
renewal: TRUE/FALSE - justification
consent: TRUE/FALSE - justification
appointment: TRUE/FALSE - date and time or justification
callback: TRUE/FALSE - justification
addons: TRUE/FALSE - justification
remove: TRUE/FALSE - justification

Base every determination solely on the transcript.`,
		Headers: []string{"contacted:", "**contacted**:"},
		Fields:  []string{"contacted", "renewal", "consent", "appointment", "callback", "addons", "remove"},
	})

	register(Template{
		Name:   "consent",
		System: insuranceSystem,
		Instruction: `{{TRANSCRIPT}}

You are an expert in phone call analysis. Using the transcript above, evaluate this call between our insurance agent AI and the customer:

1. Customer engagement: did the customer answer the phone call?
2. Consent preparation: how did the customer respond when offered consent forms and documents to prepare for the coming plan year?
3. Enrollment consent: did the customer give permission to search and enroll them in a Marketplace health plan and be contacted moving forward? If the answer was negative, how did they respond to the follow-up offer of clarification?
4. Additional insurance: how did the customer respond to the dental, vision and life insurance add-ons?
5. Appointment: was an appointment scheduled? If so give the date and time.
6. Additional inquiries: did the customer ask other questions or raise concerns? Describe them.
7. Call summary: a brief, concise summary of the key points and outcomes.`,
		Fields: []string{"answered", "consent_preparation", "enrollment_consent", "addons_response", "appointment", "inquiries", "summary"},
	})

	register(Template{
		Name:   "solar",
		System: "You are an AI assistant analyzing call transcripts. Provide ONLY the requested structured data.",
		Instruction: `Analyze the following solar lead call transcript:
{{TRANSCRIPT}}

1. Callback lead qualification. The prospect qualifies only if BOTH are true:
   - Homeowner status: the prospect is a homeowner.
   - Electric bill: the prospect's electric bill is $100 or more per month.
   If either is not met, the prospect is Not Qualified.

2. Extract, for information only:
   - First name and last name
   - Phone number
   - Credit score: does the prospect agree their credit score is 600 or above (or fair/decent)?
   - Roof sunlight exposure: does the roof get good sunlight with no major shade?
   - Was the prospect transferred to a solar specialist?
   - If not transferred, did the agent tell the prospect they will receive a callback?
   - Did the prospect say they were not interested in speaking to someone about solar?
   - Did the prospect say they don't know their zip code?

3. Respond in exactly this format:
**Callback Lead Qualification**: [Qualified/Not Qualified]

**Reason for Disqualification (if applicable)**: [criteria not met]

**Extracted Information**:
- First Name: [first name]
- Last Name: [last name]
- Credit Score: [Yes/No]
- Roof Sunlight Exposure: [Yes/No]
- Phone Number: [phone number]
- Was the Prospect Transferred to a Solar Specialist?: [Yes/No]
- If No Transfer, Did the Agent Inform the Prospect About a Callback?: [Yes/No]
- Did the prospect say that they were not interested in speaking to someone about solar?: [Yes/No]
- Did the prospect say that they don't know their zip code?: [Yes/No]`,
		Headers: []string{"**Callback Lead Qualification**:", "Callback Lead Qualification:"},
		Fields: []string{
			"callback_lead_qualification", "disqualification_reason", "first_name", "last_name",
			"credit_score", "roof_sunlight_exposure", "phone_number", "transferred",
			"callback_informed", "not_interested", "unknown_zip_code",
		},
	})

	register(Template{
		Name:   "persona",
		System: insuranceSystem,
		Instruction: `Analyze the following call transcript:
{{TRANSCRIPT}}

This is a live transfer call about final expense insurance. Do not grade the individual call; describe the recurring patterns it shows.

Prospect persona: give a unique identifier (for example Planner Paul), age range, marital status, occupation, income level, primary goals for final expense coverage, main concerns, buying motivations, preferred communication methods and notable decision-making patterns.

Agent persona: give a unique identifier (for example Consultant Chris), communication style, problem-solving approach, sales techniques, objection handling strategies, apparent experience level, likely performance outcomes and areas for improvement.`,
		Fields: []string{"prospect_persona", "agent_persona"},
	})

	register(Template{
		Name:   "sale",
		System: insuranceSystem,
		Instruction: `Analyze the following call transcript:
{{TRANSCRIPT}}

Purpose: evaluate a live transfer call to decide if a final expense insurance application was submitted and whether the call is billable.

1. Application submission. Any of these indicate an application was submitted:
   - The prospect provides their bank routing number and account number.
   - The prospect provides a debit or credit card number.
   - A third party joins the call for verification.
   - The agent explicitly states the application was submitted.

2. Billability. The call is billable unless ANY of these are true:
   - The prospect lives in a nursing home or assisted living facility.
   - The prospect has no bank account, debit card or credit card.
   - The prospect needs a power of attorney present for financial decisions.
   - The prospect is unaware the call is about final expense or life insurance.
   - The call is a prank or the prospect is only wasting the agent's time.
   - The prospect is 81 years old or more.
   - The prospect has been diagnosed with Alzheimer's or dementia.

3. If no application was submitted, describe the last quote given.

Finish with a summary using exactly these labels:
Billable Call: Yes/No
Application Submitted: Yes/No
Monthly Premium:
Insurance Carrier:
Coverage Amount:
Policy Type:
Reason for not purchasing:
Follow-up set: Yes/No`,
		Fields: []string{
			"billable_call", "application_submitted", "monthly_premium", "insurance_carrier",
			"coverage_amount", "policy_type", "reason_for_not_purchasing", "follow_up_set",
		},
	})
}
