package models

import "time"

// Profile holds per-user flags and saved prompt overrides. IsPowerUser seeds
// the submission form's mode toggle but does not lock it; a power user may
// still submit in standard mode.
type Profile struct {
	UserID             string     `json:"user_id" db:"user_id"`
	Email              string     `json:"email" db:"email"`
	IsPowerUser        bool       `json:"is_power_user" db:"is_power_user"`
	PromptTask         *string    `json:"prompt_task,omitempty" db:"prompt_task"`
	PromptGuidelines   *string    `json:"prompt_guidelines,omitempty" db:"prompt_guidelines"`
	PromptExample      *string    `json:"prompt_example,omitempty" db:"prompt_example"`
	PromptsUpdatedAt   *time.Time `json:"prompts_updated_at,omitempty" db:"prompts_updated_at"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
}

// PromptOverrides are the user-edited replacements for the fixed default
// prompt blocks, persisted from a preview-and-save action. Nil fields fall
// back to the built-in defaults.
type PromptOverrides struct {
	Task       *string `json:"task,omitempty"`
	Guidelines *string `json:"guidelines,omitempty"`
	Example    *string `json:"example,omitempty"`
}

// Overrides returns the profile's saved prompt overrides
func (p *Profile) Overrides() PromptOverrides {
	if p == nil {
		return PromptOverrides{}
	}
	return PromptOverrides{
		Task:       p.PromptTask,
		Guidelines: p.PromptGuidelines,
		Example:    p.PromptExample,
	}
}
