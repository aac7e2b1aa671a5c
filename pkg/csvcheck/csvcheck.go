// Package csvcheck validates uploaded lead CSV files before a campaign is
// accepted. Only the header row is inspected; row contents are the job
// system's problem.
package csvcheck

import (
	"io"
	"strings"

	"github.com/pkg/errors"
)

// RequiredColumns must all be present in the header row, matched exactly
// after trimming whitespace and double quotes.
var RequiredColumns = []string{"First Name", "Last Name", "LinkedIn", "Company Website", "Email"}

// OptionalColumns are recognized and enhance personalization when present,
// but their absence never fails validation.
var OptionalColumns = []string{"Job Title", "Industry", "Employee Count", "Company Name", "Company LinkedIn URL", "Phone Number", "Location"}

// linkedInVariant is accepted in place of "LinkedIn". Some export flows
// label the column this way.
const linkedInVariant = "Linkedin URL"

// Result reports the outcome of a header check.
type Result struct {
	Valid           bool     `json:"valid"`
	Reason          string   `json:"reason,omitempty"`
	MissingColumns  []string `json:"missingColumns,omitempty"`
	OptionalPresent []string `json:"optionalPresent,omitempty"`
	RowCount        int      `json:"rowCount"`
}

// Validate checks the header row of the CSV in r. A read failure is returned
// as an error; a malformed or incomplete header is a non-error invalid Result.
func Validate(r io.Reader) (Result, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Result{}, errors.Wrap(err, "failed to read csv")
	}

	var lines []string
	for _, line := range strings.Split(string(raw), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}

	if len(lines) == 0 {
		return Result{Valid: false, Reason: "CSV file is empty"}, nil
	}

	headers := map[string]bool{}
	for _, h := range strings.Split(lines[0], ",") {
		h = strings.ReplaceAll(strings.TrimSpace(h), "\"", "")
		headers[h] = true
	}

	var missing []string
	for _, col := range RequiredColumns {
		if headers[col] {
			continue
		}
		if col == "LinkedIn" && headers[linkedInVariant] {
			continue
		}
		missing = append(missing, col)
	}

	if len(missing) > 0 {
		return Result{
			Valid:          false,
			Reason:         "Missing required columns: " + strings.Join(missing, ", "),
			MissingColumns: missing,
			RowCount:       len(lines),
		}, nil
	}

	var optional []string
	for _, col := range OptionalColumns {
		if headers[col] {
			optional = append(optional, col)
		}
	}

	return Result{
		Valid:           true,
		OptionalPresent: optional,
		RowCount:        len(lines),
	}, nil
}
