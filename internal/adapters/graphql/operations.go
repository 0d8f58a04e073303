package graphql

import (
	"context"

	"github.com/okian/rangeboard/internal/domain/model"
	"github.com/okian/rangeboard/internal/domain/stage"
	"github.com/okian/rangeboard/internal/domain/statistics"
)

func whereID(id int) map[string]any {
	return map[string]any{"id": id}
}

type idOnly struct {
	ID int `json:"id"`
}

// Scorelist reads a scorelist with all of its scores.
func (c *Client) Scorelist(ctx context.Context, id int) (model.Scorelist, error) {
	data, err := c.Do(ctx, OpFindUniqueScorelist, scorelistQuery, map[string]any{"where": whereID(id)})
	if err != nil {
		return model.Scorelist{}, err
	}
	return decodeField[model.Scorelist](OpFindUniqueScorelist, data, "findUniqueScorelist")
}

// Stage reads one stage.
func (c *Client) Stage(ctx context.Context, id int) (model.Stage, error) {
	data, err := c.Do(ctx, OpFindUniqueStage, stageQuery, map[string]any{"where": whereID(id)})
	if err != nil {
		return model.Stage{}, err
	}
	return decodeField[model.Stage](OpFindUniqueStage, data, "findUniqueStage")
}

// DeleteStage removes a stage and returns its id.
func (c *Client) DeleteStage(ctx context.Context, id int) (int, error) {
	data, err := c.Do(ctx, OpDeleteOneStage, deleteStageMutation, map[string]any{"where": whereID(id)})
	if err != nil {
		return 0, err
	}
	out, err := decodeField[idOnly](OpDeleteOneStage, data, "deleteOneStage")
	return out.ID, err
}

// CreateStage creates a stage and returns the new id.
func (c *Client) CreateStage(ctx context.Context, in stage.CreateInput) (int, error) {
	data, err := c.Do(ctx, OpCreateOneStage, createStageMutation, map[string]any{"data": in})
	if err != nil {
		return 0, err
	}
	out, err := decodeField[idOnly](OpCreateOneStage, data, "createOneStage")
	return out.ID, err
}

// SetRounds sets the round count of a scorelist.
func (c *Client) SetRounds(ctx context.Context, id, rounds int) error {
	vars := map[string]any{
		"where": whereID(id),
		"data":  map[string]any{"rounds": map[string]any{"set": rounds}},
	}
	data, err := c.Do(ctx, OpUpdateOneScorelist, updateScorelistMutation, vars)
	if err != nil {
		return err
	}
	_, err = decodeField[idOnly](OpUpdateOneScorelist, data, "updateOneScorelist")
	return err
}

// SwapID exchanges the ids of two scores.
func (c *Client) SwapID(ctx context.Context, id1, id2 int) error {
	_, err := c.Do(ctx, OpSwapID, swapMutation, map[string]any{"id1": id1, "id2": id2})
	return err
}

// GlobalStatistic reads the aggregate report for f.
func (c *Client) GlobalStatistic(ctx context.Context, f statistics.Filter) (model.GlobalStatistic, error) {
	data, err := c.Do(ctx, OpGlobalStatistic, statisticQuery, map[string]any{"filter": f})
	if err != nil {
		return model.GlobalStatistic{}, err
	}
	return decodeField[model.GlobalStatistic](OpGlobalStatistic, data, "globalStatistic")
}

// Catalog reads the scoreboards, scorelists and stages offered as filters.
func (c *Client) Catalog(ctx context.Context) (model.Catalog, error) {
	data, err := c.Do(ctx, OpCatalog, catalogQuery, nil)
	if err != nil {
		return model.Catalog{}, err
	}
	var out model.Catalog
	if out.Scoreboards, err = decodeField[[]model.Scoreboard](OpCatalog, data, "scoreboards"); err != nil {
		return model.Catalog{}, err
	}
	if out.Scorelists, err = decodeField[[]model.ScorelistSummary](OpCatalog, data, "scorelists"); err != nil {
		return model.Catalog{}, err
	}
	if out.Stages, err = decodeField[[]model.StageSummary](OpCatalog, data, "stages"); err != nil {
		return model.Catalog{}, err
	}
	return out, nil
}

// Shooters lists every shooter with their division.
func (c *Client) Shooters(ctx context.Context) ([]model.Shooter, error) {
	data, err := c.Do(ctx, OpFindManyShooter, shootersQuery, nil)
	if err != nil {
		return nil, err
	}
	return decodeField[[]model.Shooter](OpFindManyShooter, data, "findManyShooter")
}
