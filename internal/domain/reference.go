package domain

// League is a reference row seeded once and never mutated.
type League struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Team holds the canonical lowercase identity for a club.
type Team struct {
	ID             int64  `json:"id"`
	NormalizedName string `json:"normalized_name"`
}

// TeamAlias maps a raw provider string (lowercased) to a canonical team.
type TeamAlias struct {
	ID         int64   `json:"id"`
	Alias      string  `json:"alias"`
	TeamID     int64   `json:"team_id"`
	Source     string  `json:"source"`
	Confidence float64 `json:"confidence"`
}
