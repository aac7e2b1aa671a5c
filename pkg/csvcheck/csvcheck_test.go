package csvcheck

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	t.Run("should accept a header with all required columns", func(t *testing.T) {
		csv := "First Name,Last Name,LinkedIn,Company Website,Email\nAda,Lovelace,li,example.com,ada@example.com\n"

		result, err := Validate(strings.NewReader(csv))
		require.NoError(t, err)
		assert.True(t, result.Valid)
		assert.Empty(t, result.MissingColumns)
		assert.Equal(t, 2, result.RowCount)
	})

	t.Run("should list every missing required column by name", func(t *testing.T) {
		csv := "First Name,Email\nAda,ada@example.com\n"

		result, err := Validate(strings.NewReader(csv))
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Equal(t, []string{"Last Name", "LinkedIn", "Company Website"}, result.MissingColumns)
		assert.Equal(t, "Missing required columns: Last Name, LinkedIn, Company Website", result.Reason)
	})

	t.Run("should accept the Linkedin URL header variant", func(t *testing.T) {
		csv := "First Name,Last Name,Linkedin URL,Company Website,Email\n"

		result, err := Validate(strings.NewReader(csv))
		require.NoError(t, err)
		assert.True(t, result.Valid)
	})

	t.Run("should trim quotes and whitespace from headers", func(t *testing.T) {
		csv := `"First Name" , "Last Name",LinkedIn,"Company Website", Email` + "\n"

		result, err := Validate(strings.NewReader(csv))
		require.NoError(t, err)
		assert.True(t, result.Valid)
	})

	t.Run("should reject an empty file", func(t *testing.T) {
		result, err := Validate(strings.NewReader("  \n \n"))
		require.NoError(t, err)
		assert.False(t, result.Valid)
		assert.Equal(t, "CSV file is empty", result.Reason)
	})

	t.Run("should report recognized optional columns", func(t *testing.T) {
		csv := "First Name,Last Name,LinkedIn,Company Website,Email,Job Title,Location\n"

		result, err := Validate(strings.NewReader(csv))
		require.NoError(t, err)
		assert.True(t, result.Valid)
		assert.Equal(t, []string{"Job Title", "Location"}, result.OptionalPresent)
	})

	t.Run("should count non-empty rows including the header", func(t *testing.T) {
		csv := "First Name,Last Name,LinkedIn,Company Website,Email\na\nb\nc\n\n"

		result, err := Validate(strings.NewReader(csv))
		require.NoError(t, err)
		assert.Equal(t, 4, result.RowCount)
	})
}
