package gqlapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"analyzeit.org/internal/auth"
	"analyzeit.org/internal/predict"
	"analyzeit.org/internal/stats"
)

// In-memory fakes.

type memUsers struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*auth.User
}

func newMemUsers() *memUsers {
	return &memUsers{nextID: 1, byID: map[int64]*auth.User{}}
}

func (m *memUsers) Create(_ context.Context, u *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return auth.ErrEmailTaken
		}
	}
	u.ID = m.nextID
	u.CreatedAt = time.Now().UTC()
	m.nextID++
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) FindByEmail(_ context.Context, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, auth.ErrNotFound
}

func (m *memUsers) FindByID(_ context.Context, id int64) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, auth.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type memCountries struct {
	mu           sync.Mutex
	nextID       int64
	rows         map[int64]*stats.Country
	getCalls     int
	getManyCalls int
}

func newMemCountries() *memCountries {
	return &memCountries{nextID: 1, rows: map[int64]*stats.Country{}}
}

func (m *memCountries) Create(_ context.Context, name string) (*stats.Country, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := &stats.Country{ID: m.nextID, Name: name}
	m.rows[c.ID] = c
	m.nextID++
	return c, nil
}

func (m *memCountries) Get(_ context.Context, id int64) (*stats.Country, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	c, ok := m.rows[id]
	if !ok {
		return nil, stats.ErrNotFound
	}
	return c, nil
}

func (m *memCountries) GetMany(_ context.Context, ids []int64) ([]*stats.Country, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getManyCalls++
	var out []*stats.Country
	for _, id := range ids {
		if c, ok := m.rows[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memCountries) List(_ context.Context) ([]*stats.Country, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*stats.Country
	for id := int64(1); id < m.nextID; id++ {
		if c, ok := m.rows[id]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memCountries) Update(_ context.Context, id int64, name string) (*stats.Country, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, stats.ErrNotFound
	}
	c.Name = name
	return c, nil
}

func (m *memCountries) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return stats.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type memViruses struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*stats.Virus
}

func newMemViruses() *memViruses {
	return &memViruses{nextID: 1, rows: map[int64]*stats.Virus{}}
}

func (m *memViruses) Create(_ context.Context, name string) (*stats.Virus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := &stats.Virus{ID: m.nextID, Name: name}
	m.rows[v.ID] = v
	m.nextID++
	return v, nil
}

func (m *memViruses) Get(_ context.Context, id int64) (*stats.Virus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.rows[id]
	if !ok {
		return nil, stats.ErrNotFound
	}
	return v, nil
}

func (m *memViruses) GetMany(_ context.Context, ids []int64) ([]*stats.Virus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*stats.Virus
	for _, id := range ids {
		if v, ok := m.rows[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memViruses) List(_ context.Context) ([]*stats.Virus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*stats.Virus
	for id := int64(1); id < m.nextID; id++ {
		if v, ok := m.rows[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memViruses) Update(_ context.Context, id int64, name string) (*stats.Virus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.rows[id]
	if !ok {
		return nil, stats.ErrNotFound
	}
	v.Name = name
	return v, nil
}

func (m *memViruses) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return stats.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type memSeasons struct {
	rows map[int64]*stats.Season
}

func (m *memSeasons) Get(_ context.Context, id int64) (*stats.Season, error) {
	s, ok := m.rows[id]
	if !ok {
		return nil, stats.ErrNotFound
	}
	return s, nil
}

func (m *memSeasons) List(_ context.Context) ([]*stats.Season, error) {
	var out []*stats.Season
	for id := int64(1); id <= int64(len(m.rows)); id++ {
		if s, ok := m.rows[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

type memStatistics struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*stats.DailyStatistic
}

func newMemStatistics() *memStatistics {
	return &memStatistics{nextID: 1, rows: map[int64]*stats.DailyStatistic{}}
}

func (m *memStatistics) Create(_ context.Context, s *stats.DailyStatistic) (*stats.DailyStatistic, error) {
	if s.CountryID <= 0 || s.VirusID <= 0 {
		return nil, stats.ErrInvalidInput
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	cp.ID = m.nextID
	m.rows[cp.ID] = &cp
	m.nextID++
	return &cp, nil
}

func (m *memStatistics) Get(_ context.Context, id int64) (*stats.DailyStatistic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return nil, stats.ErrNotFound
	}
	return s, nil
}

func (m *memStatistics) List(_ context.Context) ([]*stats.DailyStatistic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*stats.DailyStatistic
	for id := int64(1); id < m.nextID; id++ {
		if s, ok := m.rows[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStatistics) ListByCountry(_ context.Context, countryID int64) ([]*stats.DailyStatistic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*stats.DailyStatistic
	for id := int64(1); id < m.nextID; id++ {
		if s, ok := m.rows[id]; ok && s.CountryID == countryID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStatistics) ListByVirus(_ context.Context, virusID int64) ([]*stats.DailyStatistic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*stats.DailyStatistic
	for id := int64(1); id < m.nextID; id++ {
		if s, ok := m.rows[id]; ok && s.VirusID == virusID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStatistics) ListBySeason(_ context.Context, seasonID int64) ([]*stats.DailyStatistic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*stats.DailyStatistic
	for id := int64(1); id < m.nextID; id++ {
		if s, ok := m.rows[id]; ok && s.SeasonID != nil && *s.SeasonID == seasonID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStatistics) ListByDate(_ context.Context, date time.Time) ([]*stats.DailyStatistic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*stats.DailyStatistic
	for id := int64(1); id < m.nextID; id++ {
		if s, ok := m.rows[id]; ok && s.Date.Equal(date) {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStatistics) Update(_ context.Context, id int64, patch stats.StatisticPatch) (*stats.DailyStatistic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.rows[id]
	if !ok {
		return nil, stats.ErrNotFound
	}
	if patch.NouveauxCas != nil {
		s.NouveauxCas = *patch.NouveauxCas
	}
	if patch.NouveauxDeces != nil {
		s.NouveauxDeces = *patch.NouveauxDeces
	}
	if patch.TotalCas != nil {
		s.TotalCas = *patch.TotalCas
	}
	if patch.TotalDeces != nil {
		s.TotalDeces = *patch.TotalDeces
	}
	return s, nil
}

func (m *memStatistics) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return stats.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

type stubPredictor struct {
	doc  *predict.Document
	err  error
	last []string
}

func (s *stubPredictor) Predict(_ context.Context, country, virus, dateStart, dateEnd string) (*predict.Document, error) {
	s.last = []string{country, virus, dateStart, dateEnd}
	if s.err != nil {
		return nil, s.err
	}
	return s.doc, nil
}

// Harness.

type testEnv struct {
	server     *httptest.Server
	users      *memUsers
	countries  *memCountries
	viruses    *memViruses
	seasons    *memSeasons
	statistics *memStatistics
	predictor  *stubPredictor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	tokens, err := auth.NewTokenService("test-secret")
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	env := &testEnv{
		users:      newMemUsers(),
		countries:  newMemCountries(),
		viruses:    newMemViruses(),
		seasons:    &memSeasons{rows: map[int64]*stats.Season{}},
		statistics: newMemStatistics(),
		predictor:  &stubPredictor{doc: &predict.Document{Official: map[string]predict.MetricValue{}, Predictions: map[string]predict.MetricValue{}}},
	}
	api, err := New(Options{
		Auth: auth.NewService(env.users, tokens),
		Repos: stats.Repositories{
			Countries:  env.countries,
			Viruses:    env.viruses,
			Seasons:    env.seasons,
			Statistics: env.statistics,
		},
		Predictor:    env.predictor,
		MaxBodyBytes: 1 << 20,
	})
	if err != nil {
		t.Fatalf("new api: %v", err)
	}
	env.server = httptest.NewServer(api.Handler())
	t.Cleanup(env.server.Close)
	return env
}

type gqlResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors []struct {
		Message    string         `json:"message"`
		Extensions map[string]any `json:"extensions"`
	} `json:"errors"`
}

func (e *testEnv) do(t *testing.T, token, query string) *gqlResponse {
	t.Helper()
	body, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, e.server.URL+"/graphql", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var out gqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return &out
}

func (e *testEnv) register(t *testing.T, email, password string) string {
	t.Helper()
	resp := e.do(t, "", fmt.Sprintf(
		`mutation { register(email: %q, password: %q) { token } }`, email, password))
	if len(resp.Errors) != 0 {
		t.Fatalf("register errors: %+v", resp.Errors)
	}
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp.Data["register"], &payload); err != nil {
		t.Fatalf("decode register payload: %v", err)
	}
	if payload.Token == "" {
		t.Fatal("register returned empty token")
	}
	return payload.Token
}

func errorCode(resp *gqlResponse) string {
	if len(resp.Errors) == 0 {
		return ""
	}
	code, _ := resp.Errors[0].Extensions["code"].(string)
	return code
}

// Tests.

func TestProtectedQueryWithoutToken(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "", `{ allStatistiques { id_stat } }`)
	if got := errorCode(resp); got != codeUnauthenticated {
		t.Fatalf("code = %q, want %q", got, codeUnauthenticated)
	}
	if string(resp.Data["allStatistiques"]) != "null" {
		t.Fatalf("allStatistiques = %s, want null", resp.Data["allStatistiques"])
	}
}

func TestPublicListingsWithoutToken(t *testing.T) {
	env := newTestEnv(t)
	env.countries.Create(context.Background(), "France")
	env.viruses.Create(context.Background(), "COVID-19")

	resp := env.do(t, "", `{ allPays { nom_pays } allVirus { nom_virus } }`)
	if len(resp.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", resp.Errors)
	}
	if string(resp.Data["allPays"]) != `[{"nom_pays":"France"}]` {
		t.Fatalf("allPays = %s", resp.Data["allPays"])
	}
	if string(resp.Data["allVirus"]) != `[{"nom_virus":"COVID-19"}]` {
		t.Fatalf("allVirus = %s", resp.Data["allVirus"])
	}
}

func TestRegisterLoginMe(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "alice@example.com", "s3cret")

	resp := env.do(t, token, `{ me { email } }`)
	if len(resp.Errors) != 0 {
		t.Fatalf("me errors: %+v", resp.Errors)
	}
	if string(resp.Data["me"]) != `{"email":"alice@example.com"}` {
		t.Fatalf("me = %s", resp.Data["me"])
	}

	resp = env.do(t, "", `mutation { login(email: "alice@example.com", password: "s3cret") { token user { email } } }`)
	if len(resp.Errors) != 0 {
		t.Fatalf("login errors: %+v", resp.Errors)
	}

	resp = env.do(t, "", `mutation { login(email: "alice@example.com", password: "wrong") { token } }`)
	if got := errorCode(resp); got != codeInvalidCredentials {
		t.Fatalf("code = %q, want %q", got, codeInvalidCredentials)
	}

	resp = env.do(t, "", `mutation { register(email: "alice@example.com", password: "other") { token } }`)
	if got := errorCode(resp); got != codeUserAlreadyExists {
		t.Fatalf("code = %q, want %q", got, codeUserAlreadyExists)
	}
}

func TestInvalidTokenStillServesPublicFields(t *testing.T) {
	env := newTestEnv(t)
	env.countries.Create(context.Background(), "Italy")

	resp := env.do(t, "not-a-real-token", `{ allPays { nom_pays } }`)
	if len(resp.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", resp.Errors)
	}
	if string(resp.Data["allPays"]) != `[{"nom_pays":"Italy"}]` {
		t.Fatalf("allPays = %s", resp.Data["allPays"])
	}
}

func TestInvalidTokenDoesNotGrantAccess(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "not-a-real-token", `{ me { email } }`)
	if got := errorCode(resp); got != codeUnauthenticated {
		t.Fatalf("code = %q, want %q", got, codeUnauthenticated)
	}
}

func TestNonNumericIDIsValidationError(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "bob@example.com", "pw")

	resp := env.do(t, token, `{ pays(id_pays: "abc") { nom_pays } }`)
	if got := errorCode(resp); got != codeValidation {
		t.Fatalf("code = %q, want %q", got, codeValidation)
	}
}

func TestStatisticLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "carol@example.com", "pw")
	env.countries.Create(context.Background(), "Spain")
	env.viruses.Create(context.Background(), "H5N1")

	resp := env.do(t, token, `mutation {
		createStatistique(id_pays: "1", id_virus: "1", date: "2024-03-01", nouveaux_cas: 12, total_cas: 340) {
			id_stat nouveaux_cas nouveaux_deces total_cas
		}
	}`)
	if len(resp.Errors) != 0 {
		t.Fatalf("create errors: %+v", resp.Errors)
	}
	if string(resp.Data["createStatistique"]) != `{"id_stat":"1","nouveaux_cas":12,"nouveaux_deces":0,"total_cas":340}` {
		t.Fatalf("createStatistique = %s", resp.Data["createStatistique"])
	}

	// Partial update: only total_cas changes, siblings keep stored values.
	resp = env.do(t, token, `mutation {
		updateStatistique(id_stat: "1", total_cas: 500) { nouveaux_cas total_cas }
	}`)
	if len(resp.Errors) != 0 {
		t.Fatalf("update errors: %+v", resp.Errors)
	}
	if string(resp.Data["updateStatistique"]) != `{"nouveaux_cas":12,"total_cas":500}` {
		t.Fatalf("updateStatistique = %s", resp.Data["updateStatistique"])
	}

	resp = env.do(t, token, `mutation { updateStatistique(id_stat: "99", total_cas: 1) { id_stat } }`)
	if len(resp.Errors) != 0 {
		t.Fatalf("update missing errors: %+v", resp.Errors)
	}
	if string(resp.Data["updateStatistique"]) != "null" {
		t.Fatalf("updateStatistique = %s, want null", resp.Data["updateStatistique"])
	}

	resp = env.do(t, token, `mutation { deleteStatistique(id_stat: "1") }`)
	if string(resp.Data["deleteStatistique"]) != "true" {
		t.Fatalf("deleteStatistique = %s, want true", resp.Data["deleteStatistique"])
	}

	resp = env.do(t, token, `mutation { deleteStatistique(id_stat: "1") }`)
	if string(resp.Data["deleteStatistique"]) != "false" {
		t.Fatalf("second deleteStatistique = %s, want false", resp.Data["deleteStatistique"])
	}
}

func TestCreatedStatisticVisibleByPays(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "ivan@example.com", "pw")

	resp := env.do(t, token, `mutation { createPays(nom_pays: "Testland") { id_pays } }`)
	if len(resp.Errors) != 0 {
		t.Fatalf("createPays errors: %+v", resp.Errors)
	}
	resp = env.do(t, token, `mutation { createVirus(nom_virus: "TestVirus") { id_virus } }`)
	if len(resp.Errors) != 0 {
		t.Fatalf("createVirus errors: %+v", resp.Errors)
	}
	resp = env.do(t, token, `mutation {
		createStatistique(id_pays: "1", id_virus: "1", date: "2024-05-01", nouveaux_cas: 10) { id_stat }
	}`)
	if len(resp.Errors) != 0 {
		t.Fatalf("createStatistique errors: %+v", resp.Errors)
	}

	resp = env.do(t, token, `{ statistiquesByPays(id_pays: "1") { nouveaux_cas pays { nom_pays } } }`)
	if len(resp.Errors) != 0 {
		t.Fatalf("statistiquesByPays errors: %+v", resp.Errors)
	}
	if string(resp.Data["statistiquesByPays"]) != `[{"nouveaux_cas":10,"pays":{"nom_pays":"Testland"}}]` {
		t.Fatalf("statistiquesByPays = %s", resp.Data["statistiquesByPays"])
	}
}

func TestStatistiquesByVirusAndByDate(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "judy@example.com", "pw")
	ctx := context.Background()
	env.countries.Create(ctx, "France")
	env.viruses.Create(ctx, "COVID-19")
	env.viruses.Create(ctx, "H5N1")
	day1 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	env.statistics.Create(ctx, &stats.DailyStatistic{CountryID: 1, VirusID: 1, Date: day1})
	env.statistics.Create(ctx, &stats.DailyStatistic{CountryID: 1, VirusID: 2, Date: day2})

	resp := env.do(t, token, `{ statistiquesByVirus(id_virus: "2") { id_stat } }`)
	if len(resp.Errors) != 0 {
		t.Fatalf("statistiquesByVirus errors: %+v", resp.Errors)
	}
	if string(resp.Data["statistiquesByVirus"]) != `[{"id_stat":"2"}]` {
		t.Fatalf("statistiquesByVirus = %s", resp.Data["statistiquesByVirus"])
	}

	resp = env.do(t, token, `{ statistiquesByDate(date: "2024-01-01") { id_stat } }`)
	if len(resp.Errors) != 0 {
		t.Fatalf("statistiquesByDate errors: %+v", resp.Errors)
	}
	if string(resp.Data["statistiquesByDate"]) != `[{"id_stat":"1"}]` {
		t.Fatalf("statistiquesByDate = %s", resp.Data["statistiquesByDate"])
	}

	resp = env.do(t, token, `{ statistiquesByDate(date: "01/02/2024") { id_stat } }`)
	if got := errorCode(resp); got != codeValidation {
		t.Fatalf("non-ISO date: code = %q, want %q", got, codeValidation)
	}

	resp = env.do(t, "", `{ statistiquesByVirus(id_virus: "2") { id_stat } }`)
	if got := errorCode(resp); got != codeUnauthenticated {
		t.Fatalf("without token: code = %q, want %q", got, codeUnauthenticated)
	}
}

func TestSeasonStatisticsRelation(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "kate@example.com", "pw")
	ctx := context.Background()
	env.seasons.rows[1] = &stats.Season{ID: 1, Name: "Hiver 2024"}
	env.countries.Create(ctx, "France")
	env.viruses.Create(ctx, "COVID-19")
	winter := int64(1)
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	env.statistics.Create(ctx, &stats.DailyStatistic{CountryID: 1, VirusID: 1, SeasonID: &winter, Date: day})
	env.statistics.Create(ctx, &stats.DailyStatistic{CountryID: 1, VirusID: 1, Date: day})

	resp := env.do(t, token, `{ saison(id_saison: "1") { nom_saison statistiques { id_stat } } }`)
	if len(resp.Errors) != 0 {
		t.Fatalf("saison errors: %+v", resp.Errors)
	}
	if string(resp.Data["saison"]) != `{"nom_saison":"Hiver 2024","statistiques":[{"id_stat":"1"}]}` {
		t.Fatalf("saison = %s", resp.Data["saison"])
	}

	// The season itself stays public; its statistics do not.
	resp = env.do(t, "", `{ saison(id_saison: "1") { statistiques { id_stat } } }`)
	if got := errorCode(resp); got != codeUnauthenticated {
		t.Fatalf("without token: code = %q, want %q", got, codeUnauthenticated)
	}
}

func TestRegisterRejectsInvalidInput(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "", `mutation { register(email: "x@example.com", password: "") { token } }`)
	if got := errorCode(resp); got != codeValidation {
		t.Fatalf("empty password: code = %q, want %q", got, codeValidation)
	}

	resp = env.do(t, "", `mutation { register(email: "not-an-email", password: "pw") { token } }`)
	if got := errorCode(resp); got != codeValidation {
		t.Fatalf("malformed email: code = %q, want %q", got, codeValidation)
	}
}

func TestMutationsRequireAuth(t *testing.T) {
	env := newTestEnv(t)

	for _, query := range []string{
		`mutation { createPays(nom_pays: "France") { id_pays } }`,
		`mutation { deleteVirus(id_virus: "1") }`,
		`mutation { createStatistique(id_pays: "1", id_virus: "1", date: "2024-01-01") { id_stat } }`,
	} {
		resp := env.do(t, "", query)
		if got := errorCode(resp); got != codeUnauthenticated {
			t.Fatalf("query %s: code = %q, want %q", query, got, codeUnauthenticated)
		}
	}
}

func TestRelationResolutionIsBatched(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "dave@example.com", "pw")
	ctx := context.Background()
	env.countries.Create(ctx, "France")
	env.countries.Create(ctx, "Italy")
	env.viruses.Create(ctx, "COVID-19")
	date, _ := time.Parse("2006-01-02", "2024-01-01")
	for _, countryID := range []int64{1, 2, 1} {
		env.statistics.Create(ctx, &stats.DailyStatistic{CountryID: countryID, VirusID: 1, Date: date})
	}

	resp := env.do(t, token, `{ allStatistiques { id_stat pays { nom_pays } virus { nom_virus } } }`)
	if len(resp.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", resp.Errors)
	}

	env.countries.mu.Lock()
	getCalls, getManyCalls := env.countries.getCalls, env.countries.getManyCalls
	env.countries.mu.Unlock()
	if getManyCalls != 1 {
		t.Fatalf("GetMany calls = %d, want 1", getManyCalls)
	}
	if getCalls != 0 {
		t.Fatalf("Get calls = %d, want 0", getCalls)
	}
}

func TestPredictPandemic(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "erin@example.com", "pw")
	env.predictor.doc = &predict.Document{
		Country: "France",
		Virus:   "COVID-19",
		Official: map[string]predict.MetricValue{
			"total_cases": {Kind: predict.KindScalar, Scalar: float64(100)},
		},
		Predictions: map[string]predict.MetricValue{},
	}

	resp := env.do(t, token, `{ predictPandemic(country: "France", virus: "COVID-19", date_start: "2024-01-01", date_end: "2024-03-01") }`)
	if len(resp.Errors) != 0 {
		t.Fatalf("unexpected errors: %+v", resp.Errors)
	}
	var doc struct {
		Country  string                     `json:"country"`
		Official map[string]json.RawMessage `json:"official"`
	}
	if err := json.Unmarshal(resp.Data["predictPandemic"], &doc); err != nil {
		t.Fatalf("decode document: %v", err)
	}
	if doc.Country != "France" {
		t.Fatalf("country = %q, want France", doc.Country)
	}
	if string(doc.Official["total_cases"]) != "100" {
		t.Fatalf("total_cases = %s, want 100", doc.Official["total_cases"])
	}
	want := []string{"France", "COVID-19", "2024-01-01", "2024-03-01"}
	for i, arg := range env.predictor.last {
		if arg != want[i] {
			t.Fatalf("forwarded args = %v, want %v", env.predictor.last, want)
		}
	}
}

func TestPredictPandemicRequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, "", `{ predictPandemic(country: "France", virus: "COVID-19", date_start: "2024-01-01", date_end: "2024-03-01") }`)
	if got := errorCode(resp); got != codeUnauthenticated {
		t.Fatalf("code = %q, want %q", got, codeUnauthenticated)
	}
}

func TestPredictPandemicValidatesDates(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "frank@example.com", "pw")

	resp := env.do(t, token, `{ predictPandemic(country: "France", virus: "COVID-19", date_start: "01/01/2024", date_end: "2024-03-01") }`)
	if got := errorCode(resp); got != codeValidation {
		t.Fatalf("code = %q, want %q", got, codeValidation)
	}

	resp = env.do(t, token, `{ predictPandemic(country: "France", virus: "COVID-19", date_start: "2024-03-01", date_end: "2024-01-01") }`)
	if got := errorCode(resp); got != codeValidation {
		t.Fatalf("reversed range: code = %q, want %q", got, codeValidation)
	}
}

func TestPredictPandemicUpstreamFailure(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "grace@example.com", "pw")
	env.predictor.err = predict.ErrUpstream

	resp := env.do(t, token, `{ predictPandemic(country: "France", virus: "COVID-19", date_start: "2024-01-01", date_end: "2024-03-01") }`)
	if got := errorCode(resp); got != codeUpstreamPrediction {
		t.Fatalf("code = %q, want %q", got, codeUpstreamPrediction)
	}
	if resp.Errors[0].Message != "prediction service unavailable" {
		t.Fatalf("message = %q leaks upstream detail", resp.Errors[0].Message)
	}
}

func TestInternalErrorsAreGeneric(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "heidi@example.com", "pw")
	env.predictor.err = errors.New("connection refused to 10.0.0.5:8000")

	resp := env.do(t, token, `{ predictPandemic(country: "France", virus: "COVID-19", date_start: "2024-01-01", date_end: "2024-03-01") }`)
	if got := errorCode(resp); got != codeInternal {
		t.Fatalf("code = %q, want %q", got, codeInternal)
	}
	if resp.Errors[0].Message != "internal server error" {
		t.Fatalf("message = %q leaks internals", resp.Errors[0].Message)
	}
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	resp, err := http.Get(env.server.URL + "/healthz")
	if err != nil {
		t.Fatalf("healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}

	resp, err = http.Get(env.server.URL + "/readyz")
	if err != nil {
		t.Fatalf("readyz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("readyz status = %d", resp.StatusCode)
	}
}

func TestBearerTokenExtraction(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Bearer   abc  ", "abc"},
		{"Basic abc", ""},
		{"abc", ""},
	}
	for _, tc := range cases {
		if got := bearerToken(tc.header); got != tc.want {
			t.Errorf("bearerToken(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}
