package ai

import (
	"fmt"
	"strings"

	"github.com/zhouzirui/travel-tavern/backend/internal/model/traveler"
)

// BaseSystemPrompt is used whenever no traveler profile applies.
const BaseSystemPrompt = "You are a helpful chat assistant."

// PromptTemplate holds the fixed parts of the personalized prompt.
type PromptTemplate struct {
	Role     string
	Currency string
	Rules    []string
}

// DefaultPromptTemplate returns the travel assistant template.
func DefaultPromptTemplate() PromptTemplate {
	return PromptTemplate{
		Role:     "You are a helpful and personal travel assistant.",
		Currency: "INR",
		Rules: []string{
			"Read the user's question.",
			"Use the profile data above to give a specific, personalized answer.",
			"Do NOT mention that you are an AI. Speak naturally, as an assistant.",
			`If the user asks a generic question (like "hi"), just give a normal answer.`,
			`If the user asks for travel advice (like "where should I go?"), use their profile to suggest a *new* country they have *not* visited that matches their activities and budget for the current season.`,
			"When suggesting a location, **you must** create a simple 5-day itinerary.",
		},
	}
}

// PromptBuilder renders system prompts.
type PromptBuilder struct {
	template PromptTemplate
}

// NewPromptBuilder creates a builder with the default template.
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{template: DefaultPromptTemplate()}
}

// BuildSystemPrompt returns the personalized prompt for profile, or the base
// prompt when profile is nil.
func (pb *PromptBuilder) BuildSystemPrompt(profile *traveler.Profile, season string) string {
	if profile == nil {
		return BaseSystemPrompt
	}

	activities := make([]string, 0, len(profile.Activities))
	for _, a := range profile.Activities {
		activities = append(activities, "    * "+a)
	}

	rules := make([]string, 0, len(pb.template.Rules))
	for i, r := range pb.template.Rules {
		rules = append(rules, fmt.Sprintf("%d. %s", i+1, r))
	}

	return fmt.Sprintf(`%s You are speaking directly to a user named %s.

You have access to %s's private travel preferences. Here is their profile:
* **Current Season:** %s
* **Preferred Travel Seasons:** %s
* **Maximum Budget:** %s (%s)
* **Preferred Activities:**
%s
* **Countries Already Visited:** %s

YOUR TASK:
%s`,
		pb.template.Role,
		profile.Name,
		profile.Name,
		season,
		strings.Join(profile.PreferredSeasons, ", "),
		profile.Budget,
		pb.template.Currency,
		strings.Join(activities, "\n"),
		strings.Join(profile.Visited, ", "),
		strings.Join(rules, "\n"),
	)
}
