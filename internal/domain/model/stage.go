package model

// Designer is the author of a stage.
type Designer struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name"`
}

// Stage is a course of fire.
type Stage struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	CreateAt    string   `json:"createAt,omitempty"`
	Papers      int      `json:"papers"`
	Noshoots    int      `json:"noshoots"`
	Poppers     int      `json:"poppers"`
	ImageID     *int     `json:"imageId,omitempty"`
	Designer    Designer `json:"designer"`
	MaxScore    int      `json:"maxScore"`
	MinRounds   int      `json:"minRounds"`
	StageType   string   `json:"stageType"`
}

// StageSummary is the catalog entry used by statistics filters.
type StageSummary struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
