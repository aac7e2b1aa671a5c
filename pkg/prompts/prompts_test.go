package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/aga/pkg/models"
)

func ptr(s string) *string { return &s }

func TestResolve(t *testing.T) {
	t.Run("standard mode ignores all power-user state", func(t *testing.T) {
		overrides := &models.PromptOverrides{Task: ptr("my task")}

		resolved, err := Resolve(ModeStandard, StrategyRecentNews, "my custom prompt", overrides)
		require.NoError(t, err)
		assert.Equal(t, StrategyCompanyAchievements, resolved.Strategy)
		assert.Equal(t, DefaultTask, resolved.Task)
		assert.Equal(t, DefaultGuidelines, resolved.Guidelines)
		assert.Equal(t, DefaultExample, resolved.Example)
		assert.Contains(t, resolved.ResearchPrompt, "recent company achievements")
		assert.Contains(t, resolved.PersonalizationPrompt, "personalized icebreaker sentence")
	})

	t.Run("power mode resolves a built-in strategy with default trio", func(t *testing.T) {
		resolved, err := Resolve(ModePower, StrategyRecentNews, "", nil)
		require.NoError(t, err)
		assert.Equal(t, StrategyRecentNews, resolved.Strategy)
		assert.Contains(t, resolved.ResearchPrompt, "recent news coverage")
		assert.Equal(t, DefaultTask, resolved.Task)
	})

	t.Run("custom strategy requires a prompt", func(t *testing.T) {
		_, err := Resolve(ModePower, StrategyCustom, "   ", nil)
		assert.Error(t, err)
	})

	t.Run("custom strategy uses the supplied prompt", func(t *testing.T) {
		resolved, err := Resolve(ModePower, StrategyCustom, "compliment their logo", nil)
		require.NoError(t, err)
		assert.Equal(t, StrategyCustom, resolved.Strategy)
		assert.Equal(t, "compliment their logo", resolved.PersonalizationPrompt)
		assert.Equal(t, DefaultTask, resolved.Task)
	})

	t.Run("overrides apply only in custom mode", func(t *testing.T) {
		overrides := &models.PromptOverrides{
			Task:    ptr("override task"),
			Example: ptr("override example"),
		}

		custom, err := Resolve(ModePower, StrategyCustom, "a prompt", overrides)
		require.NoError(t, err)
		assert.Equal(t, "override task", custom.Task)
		assert.Equal(t, DefaultGuidelines, custom.Guidelines)
		assert.Equal(t, "override example", custom.Example)

		builtin, err := Resolve(ModePower, StrategyRoleSpecific, "", overrides)
		require.NoError(t, err)
		assert.Equal(t, DefaultTask, builtin.Task)
		assert.Equal(t, DefaultExample, builtin.Example)
	})

	t.Run("blank overrides fall back to defaults", func(t *testing.T) {
		overrides := &models.PromptOverrides{Task: ptr("  ")}

		resolved, err := Resolve(ModePower, StrategyCustom, "a prompt", overrides)
		require.NoError(t, err)
		assert.Equal(t, DefaultTask, resolved.Task)
	})

	t.Run("unknown strategy is rejected", func(t *testing.T) {
		_, err := Resolve(ModePower, "ouija-board", "", nil)
		assert.Error(t, err)
	})
}
