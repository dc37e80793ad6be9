//go:build e2e

// test/e2e/e2e_test.go
package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"school-match-workers/internal/catalog"
	"school-match-workers/internal/common/camunda"
	"school-match-workers/internal/common/config"
	"school-match-workers/internal/common/database"
	"school-match-workers/internal/common/logger"
	"school-match-workers/internal/common/validation"
	"school-match-workers/internal/matching"
	"school-match-workers/internal/models"
	"school-match-workers/internal/plans"
	"school-match-workers/pkg/registry"

	searchprograms "school-match-workers/internal/workers/catalog/search-programs"
	lockresult "school-match-workers/internal/workers/matching/lock-result"
	quickmatch "school-match-workers/internal/workers/matching/quick-match"
	scoreprogram "school-match-workers/internal/workers/matching/score-program"
)

// ==========================
// Fixtures
// ==========================

const (
	imperialID = "0d3c1a8e-2f4b-4c6d-9e1f-00000000e2e1"
	leedsID    = "0d3c1a8e-2f4b-4c6d-9e1f-00000000e2e2"
	melbID     = "0d3c1a8e-2f4b-4c6d-9e1f-00000000e2e3"

	imperialCS = "5a7b9c1d-3e5f-4a6b-8c9d-00000000e2e1"
	leedsDS    = "5a7b9c1d-3e5f-4a6b-8c9d-00000000e2e2"
	melbIT     = "5a7b9c1d-3e5f-4a6b-8c9d-00000000e2e3"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS schools (
		id UUID PRIMARY KEY,
		cn_name TEXT,
		en_name TEXT,
		country TEXT,
		city TEXT,
		region TEXT,
		ranking INTEGER,
		tags TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS programs (
		id UUID PRIMARY KEY,
		school_id UUID NOT NULL REFERENCES schools(id) ON DELETE CASCADE,
		cn_name TEXT,
		en_name TEXT,
		degree TEXT,
		duration TEXT,
		tuition_fee TEXT,
		category TEXT,
		faculty TEXT,
		url TEXT
	)`,
}

var fixturePrograms = []models.Program{
	{ID: imperialCS, SchoolID: imperialID, Name: "计算机科学硕士", EnName: "MSc Computing", Degree: "master", TuitionFee: "390000", Category: "计算机"},
	{ID: leedsDS, SchoolID: leedsID, Name: "数据科学硕士", EnName: "MSc Data Science", Degree: "master", TuitionFee: "260000", Category: "计算机"},
	{ID: melbIT, SchoolID: melbID, Name: "信息技术硕士", EnName: "Master of IT", Degree: "master", TuitionFee: "420000", Category: "计算机"},
}

const quickMatchBPMN = `<?xml version="1.0" encoding="UTF-8"?>
<bpmn:definitions xmlns:bpmn="http://www.omg.org/spec/BPMN/20100524/MODEL"
  xmlns:zeebe="http://camunda.org/schema/zeebe/1.0"
  id="quick-match-e2e-definitions" targetNamespace="http://bpmn.io/schema/bpmn">
  <bpmn:process id="quick-match-e2e" isExecutable="true">
    <bpmn:startEvent id="start"><bpmn:outgoing>toMatch</bpmn:outgoing></bpmn:startEvent>
    <bpmn:serviceTask id="match" name="Quick match">
      <bpmn:extensionElements><zeebe:taskDefinition type="quick-match" retries="1" /></bpmn:extensionElements>
      <bpmn:incoming>toMatch</bpmn:incoming>
      <bpmn:outgoing>toEnd</bpmn:outgoing>
    </bpmn:serviceTask>
    <bpmn:endEvent id="end"><bpmn:incoming>toEnd</bpmn:incoming></bpmn:endEvent>
    <bpmn:sequenceFlow id="toMatch" sourceRef="start" targetRef="match" />
    <bpmn:sequenceFlow id="toEnd" sourceRef="match" targetRef="end" />
  </bpmn:process>
</bpmn:definitions>`

type env struct {
	cfg       *config.Config
	conns     *database.Connections
	log       logger.Logger
	provider  catalog.Provider
	store     *plans.Store
	engine    *matching.Engine
	validator *validation.SchemaValidator
}

// ==========================
// Setup
// ==========================

func setup(t *testing.T) *env {
	t.Helper()
	if os.Getenv("E2E") == "" {
		t.Skip("set E2E=1 with Postgres, Redis, Elasticsearch and Zeebe running")
	}

	cfg, err := config.Load()
	require.NoError(t, err)

	ctx := context.Background()
	log := logger.NewTestLogger(t)

	conns, err := database.Connect(ctx, cfg.Database, log)
	require.NoError(t, err, "PostgreSQL connection failed")
	t.Cleanup(func() { conns.Close() })
	require.NotNil(t, conns.Redis, "Redis is required for e2e")

	seedCatalog(t, conns)

	validator, err := validation.NewSchemaValidator(registry.Default())
	require.NoError(t, err)

	pg := catalog.NewPostgresStore(conns.Postgres.DB, cfg.Catalog.PageSize, log)
	cached := catalog.NewCachedProvider(pg, conns.Redis.Client, time.Minute, log)
	_, err = cached.Clear(ctx)
	require.NoError(t, err)

	engine, err := matching.NewEngine(matching.WithParallelism(4))
	require.NoError(t, err)

	return &env{
		cfg:       cfg,
		conns:     conns,
		log:       log,
		provider:  cached,
		store:     plans.NewStore(conns.Redis.Client, time.Hour, log),
		engine:    engine,
		validator: validator,
	}
}

func seedCatalog(t *testing.T, conns *database.Connections) {
	t.Helper()
	db := conns.Postgres.DB
	for _, stmt := range schema {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}

	schools := []struct {
		id, name, enName, country, city string
		ranking                         interface{}
	}{
		{imperialID, "帝国理工学院", "Imperial College London", "英国", "伦敦", 6},
		{leedsID, "利兹大学", "University of Leeds", "英国", "利兹", 75},
		{melbID, "墨尔本大学", "University of Melbourne", "澳大利亚", "墨尔本", nil},
	}
	for _, s := range schools {
		_, err := db.Exec(`INSERT INTO schools (id, cn_name, en_name, country, city, ranking)
			VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (id) DO NOTHING`,
			s.id, s.name, s.enName, s.country, s.city, s.ranking)
		require.NoError(t, err)
	}
	for _, p := range fixturePrograms {
		_, err := db.Exec(`INSERT INTO programs (id, school_id, cn_name, en_name, degree, tuition_fee, category)
			VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (id) DO NOTHING`,
			p.ID, p.SchoolID, p.Name, p.EnName, p.Degree, p.TuitionFee, p.Category)
		require.NoError(t, err)
	}

	t.Cleanup(func() {
		db.Exec(`DELETE FROM schools WHERE id = ANY($1::uuid[])`, "{"+imperialID+","+leedsID+","+melbID+"}")
	})
}

// ==========================
// Handlers against real stores
// ==========================

func TestQuickMatchThenLock(t *testing.T) {
	e := setup(t)
	ctx := context.Background()

	qm := quickmatch.NewHandler(quickmatch.LoadConfig(), e.provider, e.engine, e.store, e.validator, nil, e.log)
	gpa := 3.8
	out, err := qm.Execute(ctx, &quickmatch.Input{
		Criteria: models.UserCriteria{
			Countries:   []string{"英国"},
			Majors:      []string{"计算机"},
			DegreeLevel: models.DegreeMaster,
			GPA:         &gpa,
		},
		PlanName: "e2e",
	})
	require.NoError(t, err)
	require.NotEmpty(t, out.PlanID)
	assert.GreaterOrEqual(t, out.PairsScored, 2)
	for _, r := range out.Results {
		assert.Equal(t, "英国", r.School.Country)
	}

	lr := lockresult.NewHandler(lockresult.LoadConfig(), e.store, e.validator, e.log)
	locked, err := lr.Execute(ctx, &lockresult.Input{PlanID: out.PlanID, Index: 0})
	require.NoError(t, err)
	assert.True(t, locked.Locked)

	plan, err := e.store.Get(ctx, out.PlanID)
	require.NoError(t, err)
	assert.True(t, plan.Results[0].Locked)
}

func TestScoreProgram(t *testing.T) {
	e := setup(t)

	sp := scoreprogram.NewHandler(scoreprogram.LoadConfig(), e.provider, e.engine, e.validator, e.log)
	out, err := sp.Execute(context.Background(), &scoreprogram.Input{
		SchoolID:  melbID,
		ProgramID: melbIT,
		Criteria:  models.UserCriteria{Countries: []string{"英国"}},
	})
	require.NoError(t, err)
	assert.True(t, out.CountryMismatch)
	assert.Equal(t, 0.0, out.MatchScore.Breakdown.Location)
}

func TestSearchPrograms(t *testing.T) {
	e := setup(t)
	if e.conns.Elasticsearch == nil {
		t.Skip("Elasticsearch unavailable")
	}
	es := e.conns.Elasticsearch.Client
	ctx := context.Background()
	index := "programs-e2e"

	mapping := `{"mappings":{"properties":{"schoolId":{"type":"keyword"},"degree":{"type":"keyword"},"category":{"type":"keyword"}}}}`
	res, err := esapi.IndicesCreateRequest{Index: index, Body: bytes.NewReader([]byte(mapping))}.Do(ctx, es)
	require.NoError(t, err)
	res.Body.Close()
	t.Cleanup(func() {
		if res, err := (esapi.IndicesDeleteRequest{Index: []string{index}}).Do(ctx, es); err == nil {
			res.Body.Close()
		}
	})

	for _, p := range fixturePrograms {
		body, err := json.Marshal(p)
		require.NoError(t, err)
		res, err := esapi.IndexRequest{Index: index, DocumentID: p.ID, Body: bytes.NewReader(body), Refresh: "true"}.Do(ctx, es)
		require.NoError(t, err)
		require.False(t, res.IsError(), res.String())
		res.Body.Close()
	}

	h := searchprograms.NewHandler(searchprograms.LoadConfig(), catalog.NewProgramSearcher(es, index), e.validator, e.log)
	out, err := h.Execute(ctx, &searchprograms.Input{Keywords: "Data Science", Degree: "master"})
	require.NoError(t, err)
	require.NotEmpty(t, out.Hits)
	assert.Equal(t, leedsDS, out.Hits[0].Program.ID)

	out, err = h.Execute(ctx, &searchprograms.Input{SchoolIDs: []string{melbID}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.Total)
}

// ==========================
// Through Zeebe
// ==========================

func TestQuickMatchProcess(t *testing.T) {
	e := setup(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client, err := camunda.Connect(ctx, &camunda.ClientConfig{
		GatewayAddress:         e.cfg.Camunda.BrokerAddress,
		UsePlaintextConnection: true,
	}, e.log)
	require.NoError(t, err)
	defer client.Close()

	_, err = client.GetClient().NewDeployResourceCommand().
		AddResource([]byte(quickMatchBPMN), "quick-match-e2e.bpmn").
		Send(ctx)
	require.NoError(t, err)

	handler := quickmatch.NewHandler(quickmatch.LoadConfig(), e.provider, e.engine, e.store, e.validator, nil, e.log)
	w := camunda.NewWorker(client.GetClient(), quickmatch.TaskType,
		camunda.WorkerOptions{MaxJobsActive: 1, Timeout: 30 * time.Second}, handler, nil, e.log)
	defer w.Stop()

	cmd, err := client.GetClient().NewCreateInstanceCommand().
		BPMNProcessId("quick-match-e2e").
		LatestVersion().
		VariablesFromObject(map[string]interface{}{
			"criteria": map[string]interface{}{"countries": []string{"英国"}, "majors": []string{"数据"}},
			"strategy": "conservative",
		})
	require.NoError(t, err)

	result, err := cmd.WithResult().Send(ctx)
	require.NoError(t, err)

	var vars quickmatch.Output
	require.NoError(t, json.Unmarshal([]byte(result.GetVariables()), &vars))
	assert.NotEmpty(t, vars.PlanID)
	assert.Equal(t, models.StrategyConservative, vars.Strategy)
	assert.GreaterOrEqual(t, vars.PairsScored, 2)

	_, err = e.store.Get(ctx, vars.PlanID)
	assert.NoError(t, err)
}
