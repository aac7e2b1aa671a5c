package models

import "strconv"

// ClientMetrics is one usage-accounting row. The upstream job system writes
// counter values as text, so the columns are kept as strings and parsed
// leniently at aggregation time.
type ClientMetrics struct {
	ID                   string  `json:"id" db:"id"`
	UserAuthID           string  `json:"user_auth_id" db:"user_auth_id"`
	NumPersonalizedLeads *string `json:"num_personalized_leads,omitempty" db:"num_personalized_leads"`
	HoursSaved           *string `json:"hours_saved,omitempty" db:"hours_saved"`
	MoneySaved           *string `json:"money_saved,omitempty" db:"money_saved"`
}

// ClientStats is the dashboard's rolled-up metrics triple
type ClientStats struct {
	TotalMessages int `json:"totalMessages"`
	HoursSaved    int `json:"hoursSaved"`
	MoneySaved    int `json:"moneySaved"`
}

// Add accumulates one metrics row into the stats. Absent or non-numeric
// values count as zero.
func (s *ClientStats) Add(row ClientMetrics) {
	s.TotalMessages += parseCounter(row.NumPersonalizedLeads)
	s.HoursSaved += parseCounter(row.HoursSaved)
	s.MoneySaved += parseCounter(row.MoneySaved)
}

func parseCounter(v *string) int {
	if v == nil {
		return 0
	}
	n, err := strconv.Atoi(*v)
	if err != nil {
		return 0
	}
	return n
}
