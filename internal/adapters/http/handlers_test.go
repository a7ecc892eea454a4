package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	handler "github.com/agroruta/agroruta/internal/adapters/http"
	"github.com/agroruta/agroruta/internal/core/domain"
	"github.com/agroruta/agroruta/internal/core/usecases"
)

// ---- Mock repositories ----

type mockDestinationRepo struct {
	listFn func(ctx context.Context) ([]domain.Destination, error)
	getFn  func(ctx context.Context, name string) (*domain.Destination, error)
}

func (m *mockDestinationRepo) Upsert(ctx context.Context, d *domain.Destination) error { return nil }
func (m *mockDestinationRepo) UpsertBatch(ctx context.Context, ds []domain.Destination) error {
	return nil
}
func (m *mockDestinationRepo) GetByName(ctx context.Context, name string) (*domain.Destination, error) {
	if m.getFn != nil {
		return m.getFn(ctx, name)
	}
	return nil, nil
}
func (m *mockDestinationRepo) ListCollectionPoints(ctx context.Context) ([]domain.Destination, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

type mockEvaluationRepo struct {
	stats *domain.EvaluationStats
}

func (m *mockEvaluationRepo) Insert(ctx context.Context, e *domain.Evaluation) error { return nil }
func (m *mockEvaluationRepo) Stats(ctx context.Context) (*domain.EvaluationStats, error) {
	return m.stats, nil
}

// ---- Test helpers ----

func setupApp(deps *handler.Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handler.SetupRoutes(app, deps)
	return app
}

func makeDeps(opts ...func(*handler.Dependencies)) *handler.Dependencies {
	registry := usecases.NewRegistryService(nil, &mockDestinationRepo{}, nil)
	market := usecases.NewMarketService(nil, nil, 0)
	fleet := usecases.NewFleetService(30)
	d := &handler.Dependencies{
		Registry:    registry,
		Market:      market,
		Fleet:       fleet,
		Evaluations: usecases.NewEvaluationService(registry, market, fleet, nil, nil, usecases.RequestDefaults{}),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

func readBody(t *testing.T, body io.Reader) []byte {
	t.Helper()
	b, err := io.ReadAll(body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return b
}

// ---- Destination handler tests ----

func TestListDestinations_Success(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Registry = usecases.NewRegistryService(nil, &mockDestinationRepo{
			listFn: func(ctx context.Context) ([]domain.Destination, error) {
				return []domain.Destination{
					{Name: "Acopio Pergamino", Category: domain.CategoryCollectionPoint,
						Location: domain.Coordinate{Lat: -33.8894, Lon: -60.5727}, PriceDifferential: -6},
				}, nil
			},
		}, nil)
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/destinations", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []domain.Destination `json:"data"`
		Pagination struct {
			Total int `json:"total"`
		} `json:"pagination"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if result.Pagination.Total != 4 {
		t.Errorf("expected total 4 (3 ports + 1 point), got %d", result.Pagination.Total)
	}
}

func TestListDestinations_CategoryFilter(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/destinations?category=port", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data []domain.Destination `json:"data"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if len(result.Data) != 3 {
		t.Errorf("expected 3 ports, got %d", len(result.Data))
	}

	req = httptest.NewRequest("GET", "/v1/destinations?category=warehouse", nil)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400 for unknown category, got %d", resp.StatusCode)
	}
}

func TestListDestinations_Pagination(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/destinations?offset=1&limit=2", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data       []domain.Destination `json:"data"`
		Pagination struct {
			Offset int `json:"offset"`
			Total  int `json:"total"`
		} `json:"pagination"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Pagination.Total != 3 {
		t.Errorf("expected total 3, got %d", result.Pagination.Total)
	}
	if len(result.Data) != 2 {
		t.Errorf("expected 2 in page, got %d", len(result.Data))
	}
}

func TestListPorts(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/destinations/ports", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var ports []domain.Destination
	json.NewDecoder(resp.Body).Decode(&ports)
	if len(ports) != 3 {
		t.Fatalf("expected 3 ports, got %d", len(ports))
	}
	for _, p := range ports {
		if p.Category != domain.CategoryPort {
			t.Errorf("%s: expected port category", p.Name)
		}
	}
}

func TestGetDestination(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		d.Registry = usecases.NewRegistryService(nil, &mockDestinationRepo{
			getFn: func(ctx context.Context, name string) (*domain.Destination, error) {
				if name == "Acopio Pergamino" {
					return &domain.Destination{Name: name, Category: domain.CategoryCollectionPoint,
						Location: domain.Coordinate{Lat: -33.8894, Lon: -60.5727}}, nil
				}
				return nil, nil
			},
		}, nil)
	})
	app := setupApp(deps)

	// Static port, URL-escaped name.
	req := httptest.NewRequest("GET", "/v1/destinations/Puerto%20Rosario", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var d domain.Destination
	json.NewDecoder(resp.Body).Decode(&d)
	if d.Name != "Puerto Rosario" || d.Category != domain.CategoryPort {
		t.Errorf("expected Puerto Rosario port, got %+v", d)
	}

	// Stored collection point.
	req = httptest.NewRequest("GET", "/v1/destinations/Acopio%20Pergamino", nil)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	req = httptest.NewRequest("GET", "/v1/destinations/Acopio%20Fantasma", nil)
	resp, _ = app.Test(req, -1)
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404 for unknown destination, got %d", resp.StatusCode)
	}
	var apiErr struct {
		Code string `json:"code"`
	}
	json.NewDecoder(resp.Body).Decode(&apiErr)
	if apiErr.Code != "not_found" {
		t.Errorf("expected not_found error, got %s", apiErr.Code)
	}
}

// ---- Market handler tests ----

func TestMarketBoard_Fallback(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/market/board", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var snapshot domain.MarketSnapshot
	json.NewDecoder(resp.Body).Decode(&snapshot)
	if !snapshot.Fallback {
		t.Error("expected fallback flag with no market repo wired")
	}
	if snapshot.ReferenceRate != 1050 {
		t.Errorf("expected fallback rate 1050, got %f", snapshot.ReferenceRate)
	}
}

// ---- Evaluation handler tests ----

func evaluationBody() string {
	return `{
		"grain_kind": "soja",
		"tonnage": 30,
		"origin": {"lat": -33.7577, "lon": -61.9699},
		"freight_tariff_per_km_local": 45
	}`
}

func TestEvaluate_Success(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("POST", "/v1/evaluations", strings.NewReader(evaluationBody()))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}

	var outcome struct {
		Results []domain.DestinationResult `json:"results"`
		Best    domain.DestinationResult   `json:"best"`
		Fleet   domain.FleetPlan           `json:"fleet"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&outcome); err != nil {
		t.Fatal(err)
	}
	if len(outcome.Results) != 3 {
		t.Fatalf("expected 3 ranked ports, got %d", len(outcome.Results))
	}
	if outcome.Best.NetTotal < outcome.Results[len(outcome.Results)-1].NetTotal {
		t.Error("best must have the highest net total")
	}
	if outcome.Fleet.Trucks != 1 {
		t.Errorf("expected 1 truck, got %d", outcome.Fleet.Trucks)
	}
}

func TestEvaluate_InvalidBody(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("POST", "/v1/evaluations", strings.NewReader(`{not json`))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestEvaluate_UnknownGrain(t *testing.T) {
	app := setupApp(makeDeps())

	body := `{"grain_kind":"centeno","tonnage":30,"origin":{"lat":-33,"lon":-61},"freight_tariff_per_km_local":45}`
	req := httptest.NewRequest("POST", "/v1/evaluations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var apiErr struct {
		Code string `json:"code"`
	}
	json.NewDecoder(resp.Body).Decode(&apiErr)
	if apiErr.Code != "bad_request" {
		t.Errorf("expected bad_request error, got %s", apiErr.Code)
	}
}

func TestEvaluate_InvalidTonnage(t *testing.T) {
	app := setupApp(makeDeps())

	body := `{"grain_kind":"soja","tonnage":0,"origin":{"lat":-33,"lon":-61},"freight_tariff_per_km_local":45}`
	req := httptest.NewRequest("POST", "/v1/evaluations", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestEvaluate_DeprecatedAlias(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("POST", "/v1/evaluate", strings.NewReader(evaluationBody()))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if resp.Header.Get("Deprecation") != "true" {
		t.Error("expected Deprecation header on legacy alias")
	}
	if resp.Header.Get("Sunset") == "" {
		t.Error("expected Sunset header on legacy alias")
	}
}

func TestEvaluationStats(t *testing.T) {
	deps := makeDeps(func(d *handler.Dependencies) {
		registry := usecases.NewRegistryService(nil, &mockDestinationRepo{}, nil)
		market := usecases.NewMarketService(nil, nil, 0)
		fleet := usecases.NewFleetService(30)
		d.Evaluations = usecases.NewEvaluationService(registry, market, fleet, &mockEvaluationRepo{
			stats: &domain.EvaluationStats{
				Total:       7,
				ByGrain:     map[string]int{"soja": 5, "maiz": 2},
				AvgNetTotal: 8421.33,
			},
		}, nil, usecases.RequestDefaults{})
	})
	app := setupApp(deps)

	req := httptest.NewRequest("GET", "/v1/evaluations/stats", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var stats domain.EvaluationStats
	json.NewDecoder(resp.Body).Decode(&stats)
	if stats.Total != 7 {
		t.Errorf("expected total 7, got %d", stats.Total)
	}
	if stats.ByGrain["soja"] != 5 {
		t.Errorf("expected 5 soja evaluations, got %d", stats.ByGrain["soja"])
	}
}

// ---- Route sheet tests ----

func TestRouteSheet_Success(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET",
		"/v1/evaluations/route-sheet?grain=soja&tonnage=30&lat=-33.7577&lon=-61.9699&tariff=45", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, readBody(t, resp.Body))
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("expected text/plain content type, got %s", ct)
	}

	body := string(readBody(t, resp.Body))
	if !strings.Contains(body, "Destino:") {
		t.Errorf("route sheet missing destination line:\n%s", body)
	}
}

func TestRouteSheet_MissingGrain(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/evaluations/route-sheet?tonnage=30", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

// ---- GraphQL tests ----

func TestGraphQL_Destinations(t *testing.T) {
	app := setupApp(makeDeps())

	body := `{"query": "{ destinations { name category } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			Destinations []struct {
				Name string `json:"name"`
			} `json:"destinations"`
		} `json:"data"`
		Errors []interface{} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatal(err)
	}
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected graphql errors: %v", result.Errors)
	}
	if len(result.Data.Destinations) != 3 {
		t.Errorf("expected 3 destinations, got %d", len(result.Data.Destinations))
	}
}

func TestGraphQL_Board(t *testing.T) {
	app := setupApp(makeDeps())

	body := `{"query": "{ board { reference_rate fallback } }"}`
	req := httptest.NewRequest("POST", "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result struct {
		Data struct {
			Board struct {
				ReferenceRate float64 `json:"reference_rate"`
				Fallback      bool    `json:"fallback"`
			} `json:"board"`
		} `json:"data"`
	}
	json.NewDecoder(resp.Body).Decode(&result)
	if result.Data.Board.ReferenceRate != 1050 {
		t.Errorf("expected fallback rate 1050, got %f", result.Data.Board.ReferenceRate)
	}
	if !result.Data.Board.Fallback {
		t.Error("expected fallback flag set")
	}
}

// ---- WebSocket tests ----

func TestWebSocketRouteRequiresNATS(t *testing.T) {
	// With no broker connection the relay endpoint must not exist; a hit
	// must not crash the server.
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/ws", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != 404 {
		t.Fatalf("expected 404 without a NATS connection, got %d", resp.StatusCode)
	}
}

// ---- Health tests ----

func TestHealth(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/health", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestReady_NoDatabase(t *testing.T) {
	app := setupApp(makeDeps())

	req := httptest.NewRequest("GET", "/v1/ready", nil)
	resp, _ := app.Test(req, -1)
	if resp.StatusCode != 503 {
		t.Fatalf("expected 503 without a database, got %d", resp.StatusCode)
	}
}
