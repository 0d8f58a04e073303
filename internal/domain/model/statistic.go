package model

// GlobalStatistic is the aggregate report returned by globalStatistic.
type GlobalStatistic struct {
	ShootersTotal    int     `json:"shootersTotal"`
	RunsTotal        int     `json:"runsTotal"`
	StagesTotal      int     `json:"stagesTotal"`
	FinishedTotal    int     `json:"finishedTotal"`
	DQTotal          int     `json:"dqTotal"`
	DNFTotal         int     `json:"dnfTotal"`
	AverageHitFactor float64 `json:"averageHitFactor"`
	AverageAccuracy  float64 `json:"averageAccuracy"`
	AlphaZoneTotal   int     `json:"alphaZoneTotal"`
	CharlieZoneTotal int     `json:"charlieZoneTotal"`
	DeltaZoneTotal   int     `json:"deltaZoneTotal"`
	NoShootTotal     int     `json:"noShootTotal"`
	PopperTotal      int     `json:"popperTotal"`
	MissTotal        int     `json:"missTotal"`
	ProErrorTotal    int     `json:"proErrorTotal"`
}

// Catalog holds the option lists shown next to the statistics filters.
type Catalog struct {
	Scoreboards []Scoreboard       `json:"scoreboards"`
	Scorelists  []ScorelistSummary `json:"scorelists"`
	Stages      []StageSummary     `json:"stages"`
}
