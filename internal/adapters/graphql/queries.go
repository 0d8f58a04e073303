package graphql

// Operation names, also used as metric labels.
const (
	OpFindUniqueScorelist = "findUniqueScorelist"
	OpFindUniqueStage     = "findUniqueStage"
	OpDeleteOneStage      = "deleteOneStage"
	OpCreateOneStage      = "createOneStage"
	OpUpdateOneScorelist  = "updateOneScorelist"
	OpSwapID              = "swapId"
	OpGlobalStatistic     = "globalStatistic"
	OpCatalog             = "catalog"
	OpFindManyShooter     = "findManyShooter"
)

const scorelistQuery = `query ($where: ScorelistWhereUniqueInput!) {
  findUniqueScorelist(where: $where) {
    id
    createAt
    rounds
    stage { name createAt }
    scores {
      id
      round
      alphas
      charlies
      deltas
      misses
      noshoots
      poppers
      proErrorCount
      time
      hitFactor
      roundPrecentage
      state
      shooter { name }
    }
  }
}`

const stageQuery = `query ($where: StageWhereUniqueInput!) {
  findUniqueStage(where: $where) {
    id
    name
    description
    createAt
    papers
    noshoots
    poppers
    imageId
    designer { name }
    maxScore
    minRounds
    stageType
  }
}`

const deleteStageMutation = `mutation ($where: StageWhereUniqueInput!) {
  deleteOneStage(where: $where) { id }
}`

const createStageMutation = `mutation ($data: StageCreateInput!) {
  createOneStage(data: $data) { id }
}`

const updateScorelistMutation = `mutation ($where: ScorelistWhereUniqueInput!, $data: ScorelistUpdateInput!) {
  updateOneScorelist(where: $where, data: $data) { id }
}`

const swapMutation = `mutation ($id1: Int!, $id2: Int!) {
  swapId(id1: $id1, id2: $id2)
}`

const statisticQuery = `query ($filter: GlobalStatisticFilterInputType) {
  globalStatistic(filter: $filter) {
    shootersTotal
    runsTotal
    stagesTotal
    finishedTotal
    dqTotal
    dnfTotal
    averageHitFactor
    averageAccuracy
    alphaZoneTotal
    charlieZoneTotal
    deltaZoneTotal
    noShootTotal
    popperTotal
    missTotal
    proErrorTotal
  }
}`

const catalogQuery = `query {
  scoreboards { id name }
  stages { id name }
  scorelists {
    id
    createAt
    lastUpdate
    scoreboardId
    rounds
    stage { name }
  }
}`

const shootersQuery = `query {
  findManyShooter { id name division }
}`

func subscriptionQuery(topic string) string {
	return "subscription { " + topic + " }"
}
