package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/medvoice-ai/medvoice/pkg/core/language"
)

// Tool names of the shipped clinic set. The language and parallel-agent
// tools carry no local handler; their effects live in the session router.
const (
	ToolSetLanguageContext   = "setLanguageContext"
	ToolSetLanguageFlag      = "setLanguageFlag"
	ToolStartParallelAgents  = "startParallelAgents"
	ToolSurgicalScribe       = "surgicalScribeTool"
	ToolUpdateSurgicalReport = "updateSurgicalReportTool"
)

// EmailTrigger is the exact payload the editor agent emits when the doctor
// confirms an email send. The router sniffs assistant output for it.
const EmailTrigger = `{"type":"string","action":"you have to send an email now"}`

// Message is one chat message produced by a tool handler.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// MessagesResult is the tool output shape the scribe and editor tools use.
type MessagesResult struct {
	Messages []Message `json:"messages"`
}

// ClinicGraph builds the production clinic agent set: the chief assistant
// routes doctors to the operative report assistant, which hands finished
// reports to the surgical editor, which loops back to the chief.
func ClinicGraph() (*Graph, error) {
	return NewGraph("chiefAssistant", ChiefAssistant(), OperativeReportAssistant(), SurgicalEditor())
}

// ChiefAssistant greets the doctor, senses the encounter languages, and
// immediately transfers to a specialist agent.
func ChiefAssistant() Agent {
	return Agent{
		Name:              "chiefAssistant",
		PublicDescription: "Agent that greets doctors and handles their requests by transferring to an appropriate agent.",
		Instructions: strings.TrimSpace(`
Always address the user as doctor. You are a calm, efficient, fast-paced
orthopedic clinic manager speaking at twice normal cadence. Your only job is
to identify the doctor's request and immediately transfer to the correct
agent. Confirm the request with a single short phrase, then transfer. Never
answer questions or solve requests yourself. If the request is unclear, ask
once for clarification, then transfer.

When the doctor states which language they and the patient will speak, call
setLanguageContext with both languages. Whenever you are confident which
supported language the current speaker is using, call setLanguageFlag with
the language and your confidence between 0 and 1. When the doctor asks for
live interpretation, call startParallelAgents.
`),
		Tools: []Tool{
			{
				Name:        ToolSetLanguageContext,
				Description: "Records which language the doctor speaks and which language the patient speaks for this encounter.",
				Parameters: Schema{
					Type: "object",
					Properties: map[string]Property{
						"doctorLanguage": {
							Type:        "string",
							Description: "Language the doctor speaks.",
							Enum:        language.SupportedNames(),
						},
						"patientLanguage": {
							Type:        "string",
							Description: "Language the patient speaks.",
							Enum:        language.SupportedNames(),
						},
					},
					Required: []string{"doctorLanguage", "patientLanguage"},
				},
			},
			{
				Name:        ToolSetLanguageFlag,
				Description: "Reports the language the current speaker is using, with detection confidence.",
				Parameters: Schema{
					Type: "object",
					Properties: map[string]Property{
						"language": {
							Type:        "string",
							Description: "Detected spoken language.",
							Enum:        language.SupportedNames(),
						},
						"confidence": {
							Type:        "number",
							Description: "Detection confidence between 0 and 1.",
						},
					},
					Required: []string{"language", "confidence"},
				},
			},
			{
				Name:        ToolStartParallelAgents,
				Description: "Starts the parallel interpretation channels between the doctor and the patient.",
				Parameters: Schema{
					Type:       "object",
					Properties: map[string]Property{},
				},
			},
		},
		Downstream: []string{"operativeReportAssistant"},
	}
}

// OperativeReportAssistant collects patient and surgical details through a
// rapid question flow, then calls the scribe tool and hands off to the
// editor.
func OperativeReportAssistant() Agent {
	return Agent{
		Name:              "operativeReportAssistant",
		PublicDescription: "Collects and documents surgical patient information for operative reports",
		Instructions: strings.TrimSpace(`
Always address the user as doctor. Calm, gentle, fast-paced orthopedic clinic
manager. No greetings or small talk; open with "Give me details of the
surgery." and keep the questions short: patient age and gender, diagnosis,
medical history, anesthesia, tourniquet time, implants, intraoperative
findings, post-operative plan. Accept details in any order, track what is
still missing, and prompt for it one phrase at a time.

Call surgicalScribeTool once the information is complete, or immediately if
the doctor insists on the report without further details. Never offer a
summary. Always transfer to surgicalEditor after surgicalScribeTool is
called, without announcing the transfer.
`),
		Tools: []Tool{
			{
				Name:        ToolSurgicalScribe,
				Description: "Generates completed surgical and patient data for an operative report",
				Parameters: Schema{
					Type: "object",
					Properties: map[string]Property{
						"patientAge":    {Type: "number"},
						"patientGender": {Type: "string"},
						"medicalHistory": {
							Type:  "array",
							Items: &Property{Type: "string"},
						},
						"diagnosis": {Type: "string"},
						"surgicalDetails": {
							Type: "object",
							Properties: map[string]Property{
								"anesthesia":     {Type: "string"},
								"tourniquetTime": {Type: "number"},
								"implants": {
									Type:  "array",
									Items: &Property{Type: "string"},
								},
								"otherDetails": {Type: "string"},
							},
							Required: []string{"anesthesia"},
						},
						"otherDetails": {Type: "string"},
						"postOpPlan": {
							Type: "object",
							Properties: map[string]Property{
								"dischargeTiming": {Type: "string"},
								"rehabProtocol":   {Type: "string"},
								"otherDetails":    {Type: "string"},
							},
							Required: []string{"dischargeTiming"},
						},
					},
					Required: []string{"diagnosis", "surgicalDetails"},
				},
				Handler: scribeHandler,
			},
		},
		Downstream: []string{"surgicalEditor"},
	}
}

// SurgicalEditor applies voice edits to the generated report and emits the
// email trigger when the doctor confirms a send, then returns control to the
// chief assistant.
func SurgicalEditor() Agent {
	return Agent{
		Name:              "surgicalEditor",
		PublicDescription: "Handles surgical report updates and edits the report.",
		Instructions: strings.TrimSpace(`
Always address the user as doctor. Fast-paced, no greetings; open with
"anything you like to edit." For every voice update to the report, call
updateSurgicalReportTool with the update text; the tool may be called any
number of times. Prompt the doctor until they are satisfied, then ask whether
to send the report by email.

When the doctor confirms the email, output exactly this JSON and nothing
else:
{"type":"string","action":"you have to send an email now"}
Then transfer to chiefAssistant immediately, in silence. Never add words
before or after the JSON trigger.
`),
		Tools: []Tool{
			{
				Name:        ToolUpdateSurgicalReport,
				Description: "Accepts a new voice update and returns an updated message to be used for updating the patient data context.",
				Parameters: Schema{
					Type: "object",
					Properties: map[string]Property{
						"updateText": {Type: "string", Description: "The new voice update."},
					},
					Required: []string{"updateText"},
				},
				Handler: updateReportHandler,
			},
		},
		Downstream: []string{"chiefAssistant"},
	}
}

type scribeArgs struct {
	PatientAge     *float64 `json:"patientAge"`
	PatientGender  string   `json:"patientGender"`
	MedicalHistory []string `json:"medicalHistory"`
	Diagnosis      string   `json:"diagnosis"`
	SurgicalDetail struct {
		Anesthesia     string   `json:"anesthesia"`
		TourniquetTime *float64 `json:"tourniquetTime"`
		Implants       []string `json:"implants"`
		OtherDetails   string   `json:"otherDetails"`
	} `json:"surgicalDetails"`
	OtherDetails string `json:"otherDetails"`
	PostOpPlan   struct {
		DischargeTiming string `json:"dischargeTiming"`
		RehabProtocol   string `json:"rehabProtocol"`
		OtherDetails    string `json:"otherDetails"`
	} `json:"postOpPlan"`
}

func scribeHandler(_ context.Context, args json.RawMessage, _ []HistoryItem) (any, error) {
	var a scribeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("surgical scribe args: %w", err)
	}

	age := "N/A"
	if a.PatientAge != nil {
		age = fmt.Sprintf("%g", *a.PatientAge)
	}
	duration := "N/A"
	if a.SurgicalDetail.TourniquetTime != nil {
		duration = fmt.Sprintf("%g", *a.SurgicalDetail.TourniquetTime)
	}

	prompt := fmt.Sprintf(`Generate surgical report for:
Patient Age: %s
Gender: %s
Diagnosis: %s
Medical History: %s
Surgery Details:
- Anesthesia: %s
- Duration: %s
- Implants: %s
- Other Details: %s
Post-Op:
- Discharge: %s
- Rehab: %s
- Other Details: %s
Additional Information: %s`,
		age,
		orNA(a.PatientGender),
		orNA(a.Diagnosis),
		strings.Join(a.MedicalHistory, ", "),
		orNA(a.SurgicalDetail.Anesthesia),
		duration,
		strings.Join(a.SurgicalDetail.Implants, ", "),
		orNone(a.SurgicalDetail.OtherDetails),
		orNA(a.PostOpPlan.DischargeTiming),
		orNA(a.PostOpPlan.RehabProtocol),
		orNone(a.PostOpPlan.OtherDetails),
		orNone(a.OtherDetails),
	)

	return MessagesResult{Messages: []Message{{Role: "assistant", Content: prompt}}}, nil
}

func updateReportHandler(_ context.Context, args json.RawMessage, _ []HistoryItem) (any, error) {
	var a struct {
		UpdateText string `json:"updateText"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, fmt.Errorf("update report args: %w", err)
	}
	return MessagesResult{Messages: []Message{{Role: "assistant", Content: a.UpdateText}}}, nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func orNone(s string) string {
	if s == "" {
		return "None"
	}
	return s
}
