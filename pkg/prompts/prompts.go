// Package prompts holds the built-in personalization strategy catalog and
// resolves the effective prompt set for a submission.
package prompts

import (
	"net/http"
	"strings"

	"github.com/Gobusters/ectoerror/httperror"

	"github.com/Ramsey-B/aga/pkg/models"
)

// Mode selects between the fixed default flow and the power-user flow.
type Mode string

const (
	ModeStandard Mode = "standard"
	ModePower    Mode = "power"
)

// Strategy tags. StrategyCustom carries a user-authored instruction prompt
// instead of a built-in one.
const (
	StrategyCompanyAchievements = "company-achievements"
	StrategyRecentNews          = "recent-news"
	StrategyRoleSpecific        = "role-specific"
	StrategyCustom              = "custom"
)

// Fixed defaults shared by every strategy unless a power-user override applies.
const (
	DefaultTask = "Create a personalized icebreaker sentence based on the provided company information."

	DefaultGuidelines = "• Use a conversational tone that sounds human and natural\n• Keep it short — maximum 25 words\n• Write at a grade 6 reading level using simple language"

	DefaultExample = "Instead of: \"I appreciate how Heaven's Pets combines heartfelt, personalized pet cremation services with thoughtful keepsakes, truly honoring each pet's unique memory.\"\n\nWrite: \"I like how Heaven's Pets gives loving pet cremation services and keepsakes that honor each pet.\""
)

const companyAchievementsResearch = `You are a research assistant that finds recent company achievements and milestones for personalized cold outreach. Focus on the most current accomplishments, announcements, and recognition from the past 6 months that demonstrate momentum and success.

Research this lead and find recent achievements for personalized cold outreach. Focus on finding:
- Recent awards, certifications, or industry recognition (last 6 months)
- New funding rounds, investments, or financial milestones
- Major partnerships, acquisitions, or strategic alliances
- Product launches, feature releases, or service expansions
- Team growth, new executive hires, or company expansions
- Media coverage or press mentions for recent accomplishments

If no recent achievements are available, focus on:
- Company history and establishment date
- Overall business growth or stability indicators
- Industry position or market presence
- Core business developments or service evolution
- General company trajectory and business model

# Output Format
Company Overview: [Brief description of what they do]
Recent Achievement: [Most impressive recent accomplishment OR notable company milestone/background]
Latest News: [Secondary recent development OR general business strength/position]
Summary: [1 sentence about their recent momentum OR their established market position and business focus]`

const companyAchievementsPersonalization = `# Task
Create a personalized icebreaker sentence based on the provided company information. This will be the opening line of a cold outreach email.

## Main focus
Focus on complimenting their services, achievements, or notable business aspects using simple language. If achievement data isn't available: Use research information to comment on their service quality, business approach, or industry expertise in simple terms

• Use a conversational tone that sounds human and natural
• Keep it short — maximum 25 words
• Write at a grade 6 reading level using simple language
• Do not use em dashes (—) or complex punctuation
• Only write in English
• Do not ask questions or request meetings
• Do not guess, exaggerate, or invent information — only use the data provided
• Paraphrase information rather than copying sentences directly

## Example:
Instead of: "I appreciate how Heaven's Pets combines heartfelt, personalized pet cremation services with thoughtful keepsakes, truly honoring each pet's unique memory."

Write: "I like how Heaven's Pets gives loving pet cremation services and keepsakes that honor each pet."

## Output Format:
Return only a JSON object with the personalized sentence:

{
"personalized_sentence": ""
}

If insufficient information is available to create a meaningful personalized sentence, return an empty string.

IMPORTANT: If you cannot generate a message, return an empty string.`

const recentNewsResearch = `You are a research assistant that finds recent news coverage and public announcements for personalized cold outreach. Focus on press mentions, announcements, and coverage from the past 3 months.

Research this lead and find recent news for personalized cold outreach. Focus on finding:
- Press releases and official announcements
- Media coverage, interviews, or podcast appearances
- Event appearances, conference talks, or sponsorships
- Notable social or community activity

If no recent news is available, fall back to the company's most recent known public activity.

# Output Format
Company Overview: [Brief description of what they do]
Latest News: [Most recent newsworthy item]
Summary: [1 sentence about what they have been up to lately]`

const recentNewsPersonalization = `# Task
Create a personalized icebreaker sentence that references the company's most recent news or announcement. This will be the opening line of a cold outreach email.

## Main focus
Lead with the newest item found in research. Mention it naturally, as a peer would in conversation, without sounding like a press summary.

• Use a conversational tone that sounds human and natural
• Keep it short — maximum 25 words
• Write at a grade 6 reading level using simple language
• Do not guess, exaggerate, or invent information — only use the data provided

## Output Format:
Return only a JSON object with the personalized sentence:

{
"personalized_sentence": ""
}

If insufficient information is available to create a meaningful personalized sentence, return an empty string.`

const roleSpecificResearch = `You are a research assistant that profiles a lead's role and responsibilities for personalized cold outreach. Focus on what this specific person does at their company.

Research this lead and their role. Focus on finding:
- Their title, seniority, and likely responsibilities
- Team or department they lead or belong to
- Public work attributable to them (posts, talks, projects)
- How their role relates to the company's business

# Output Format
Role Overview: [What this person does]
Notable Work: [Anything attributable to them personally]
Summary: [1 sentence connecting their role to the company's direction]`

const roleSpecificPersonalization = `# Task
Create a personalized icebreaker sentence tailored to the lead's specific role and responsibilities. This will be the opening line of a cold outreach email.

## Main focus
Speak to what this person does day to day, not just what their company does. Compliment work attributable to them when research surfaces any.

• Use a conversational tone that sounds human and natural
• Keep it short — maximum 25 words
• Write at a grade 6 reading level using simple language
• Do not guess, exaggerate, or invent information — only use the data provided

## Output Format:
Return only a JSON object with the personalized sentence:

{
"personalized_sentence": ""
}

If insufficient information is available to create a meaningful personalized sentence, return an empty string.`

// builtin pairs an instruction prompt with its research prompt.
type builtin struct {
	personalization string
	research        string
}

var catalog = map[string]builtin{
	StrategyCompanyAchievements: {companyAchievementsPersonalization, companyAchievementsResearch},
	StrategyRecentNews:          {recentNewsPersonalization, recentNewsResearch},
	StrategyRoleSpecific:        {roleSpecificPersonalization, roleSpecificResearch},
}

// Strategies returns the built-in strategy tags plus "custom", in menu order.
func Strategies() []string {
	return []string{StrategyCompanyAchievements, StrategyRecentNews, StrategyRoleSpecific, StrategyCustom}
}

// Resolved is the effective prompt set for one submission.
type Resolved struct {
	Strategy              string
	PersonalizationPrompt string
	ResearchPrompt        string
	Task                  string
	Guidelines            string
	Example               string
}

// Resolve computes the effective prompts. Standard mode ignores strategy,
// custom prompt, and overrides entirely. Overrides apply only to the
// task/guidelines/example trio, and only in power-user custom mode.
func Resolve(mode Mode, strategy string, customPrompt string, overrides *models.PromptOverrides) (Resolved, error) {
	if mode != ModePower {
		b := catalog[StrategyCompanyAchievements]
		return Resolved{
			Strategy:              StrategyCompanyAchievements,
			PersonalizationPrompt: b.personalization,
			ResearchPrompt:        b.research,
			Task:                  DefaultTask,
			Guidelines:            DefaultGuidelines,
			Example:               DefaultExample,
		}, nil
	}

	if strategy == StrategyCustom {
		if strings.TrimSpace(customPrompt) == "" {
			return Resolved{}, httperror.NewHTTPError(http.StatusBadRequest, "custom strategy requires a prompt")
		}

		r := Resolved{
			Strategy:              StrategyCustom,
			PersonalizationPrompt: customPrompt,
			ResearchPrompt:        companyAchievementsResearch,
			Task:                  DefaultTask,
			Guidelines:            DefaultGuidelines,
			Example:               DefaultExample,
		}
		if overrides != nil {
			if v := overrides.Task; v != nil && strings.TrimSpace(*v) != "" {
				r.Task = *v
			}
			if v := overrides.Guidelines; v != nil && strings.TrimSpace(*v) != "" {
				r.Guidelines = *v
			}
			if v := overrides.Example; v != nil && strings.TrimSpace(*v) != "" {
				r.Example = *v
			}
		}

		return r, nil
	}

	b, ok := catalog[strategy]
	if !ok {
		return Resolved{}, httperror.NewHTTPError(http.StatusBadRequest, "unknown personalization strategy")
	}

	return Resolved{
		Strategy:              strategy,
		PersonalizationPrompt: b.personalization,
		ResearchPrompt:        b.research,
		Task:                  DefaultTask,
		Guidelines:            DefaultGuidelines,
		Example:               DefaultExample,
	}, nil
}
