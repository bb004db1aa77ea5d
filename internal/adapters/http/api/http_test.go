package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/adapters/http/api"
	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/adapters/repository"
	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/domain/loot"
	"github.com/Ruutuli/Tinglebot2.0-sub010/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

// Mock implementations for testing

type mockEngine struct {
	raids      map[string]*model.Raid
	characters map[string]*model.Character
	turnResult *api.TurnResult
	failures   []loot.Failure
	activity   int64

	startErr    error
	joinErr     error
	turnErr     error
	leaveErr    error
	listErr     error
	createErr   error
	activityErr error

	lastFilter repository.RaidFilter
}

func newMockEngine() *mockEngine {
	return &mockEngine{
		raids:      make(map[string]*model.Raid),
		characters: make(map[string]*model.Character),
	}
}

func (m *mockEngine) StartRaid(ctx context.Context, monster model.Monster, village, expeditionID string) (*model.Raid, error) {
	if m.startErr != nil {
		return nil, m.startErr
	}
	r := &model.Raid{
		ID:           "raid-1",
		Village:      village,
		Monster:      monster,
		Status:       model.StatusActive,
		ExpeditionID: expeditionID,
		ExpiresAt:    time.Now().Add(10 * time.Minute),
	}
	m.raids[r.ID] = r
	return r, nil
}

func (m *mockEngine) Join(ctx context.Context, raidID, characterID string) (*model.Raid, error) {
	if m.joinErr != nil {
		return nil, m.joinErr
	}
	return m.getRaid(raidID)
}

func (m *mockEngine) TakeTurn(ctx context.Context, raidID, characterID string) (*api.TurnResult, error) {
	if m.turnErr != nil {
		return nil, m.turnErr
	}
	return m.turnResult, nil
}

func (m *mockEngine) Leave(ctx context.Context, raidID, characterID string) (*model.Raid, error) {
	if m.leaveErr != nil {
		return nil, m.leaveErr
	}
	return m.getRaid(raidID)
}

func (m *mockEngine) GetRaid(ctx context.Context, raidID string) (*model.Raid, error) {
	return m.getRaid(raidID)
}

func (m *mockEngine) getRaid(raidID string) (*model.Raid, error) {
	r, ok := m.raids[raidID]
	if !ok {
		return nil, model.NewValidation(model.ReasonNotFound, "raid %s does not exist", raidID)
	}
	return r, nil
}

func (m *mockEngine) ListRaids(ctx context.Context, f repository.RaidFilter) ([]*model.Raid, error) {
	m.lastFilter = f
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]*model.Raid, 0, len(m.raids))
	for _, r := range m.raids {
		out = append(out, r)
	}
	return out, nil
}

func (m *mockEngine) ListLootFailures(ctx context.Context, raidID string) ([]loot.Failure, error) {
	return m.failures, nil
}

func (m *mockEngine) CreateCharacter(ctx context.Context, ch *model.Character) error {
	if m.createErr != nil {
		return m.createErr
	}
	if ch.ID == "" {
		ch.ID = "char-1"
	}
	m.characters[ch.ID] = ch
	return nil
}

func (m *mockEngine) GetCharacter(ctx context.Context, characterID string) (*model.Character, error) {
	ch, ok := m.characters[characterID]
	if !ok {
		return nil, model.NewValidation(model.ReasonUnknownCharacter, "character %s does not exist", characterID)
	}
	return ch, nil
}

func (m *mockEngine) TurnActivity(ctx context.Context, characterID string) (int64, error) {
	if m.activityErr != nil {
		return 0, m.activityErr
	}
	return m.activity, nil
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	out := make(map[string]interface{}, len(m.stats))
	for k, v := range m.stats {
		out[k] = v
	}
	return out
}

// Local mirror of the unexported error body for decoding.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func seedRaid(engine *mockEngine) *model.Raid {
	r := &model.Raid{
		ID:      "raid-1",
		Village: "rudania",
		Monster: model.Monster{Name: "Hinox", Tier: 3, CurrentHearts: 20, MaxHearts: 20},
		Status:  model.StatusActive,
		Participants: []model.Participant{
			{UserID: "user-1", CharacterID: "char-1", Name: "Tetra", Capability: model.CapabilityStandard},
		},
	}
	engine.raids[r.ID] = r
	return r
}

func TestServer_Register(t *testing.T) {
	Convey("Given a new API server", t, func() {
		engine := newMockEngine()
		statsProvider := &mockStatsProvider{stats: map[string]interface{}{"started": true}}
		server := api.NewServer(engine, statsProvider, 100)
		mux := http.NewServeMux()

		Convey("When registering routes", func() {
			server.Register(context.Background(), mux)

			Convey("Then health endpoint should be accessible", func() {
				req := httptest.NewRequest("GET", "/healthz", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
			})

			Convey("And metrics endpoint should serve Prometheus text", func() {
				req := httptest.NewRequest("GET", "/metrics", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})

			Convey("And stats endpoint should be accessible", func() {
				req := httptest.NewRequest("GET", "/stats", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})

			Convey("And raids list endpoint should be accessible", func() {
				req := httptest.NewRequest("GET", "/raids", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})

			Convey("And raid action routes should dispatch by id", func() {
				seedRaid(engine)
				req := httptest.NewRequest("GET", "/raids/raid-1", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})

			Convey("And unknown routes should 404", func() {
				req := httptest.NewRequest("GET", "/unknown", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestRaidsHandler_StartRaid(t *testing.T) {
	Convey("Given a raids handler", t, func() {
		engine := newMockEngine()
		handler := api.NewRaidsHandler(engine, 100)

		Convey("When starting a raid with a valid body", func() {
			body := `{
				"village": "rudania",
				"monster": {"name": "Hinox", "tier": 3, "max_hearts": 20}
			}`
			req := httptest.NewRequest("POST", "/raids", strings.NewReader(body))
			w := httptest.NewRecorder()

			Convey("Then it should return the created raid", func() {
				handler.HandleRaids(w, req)
				So(w.Code, ShouldEqual, http.StatusCreated)

				var raid model.Raid
				err := json.NewDecoder(w.Body).Decode(&raid)
				So(err, ShouldBeNil)
				So(raid.Village, ShouldEqual, "rudania")
				So(raid.Monster.Name, ShouldEqual, "Hinox")
				So(raid.Status, ShouldEqual, model.StatusActive)
			})
		})

		Convey("When the body is not JSON", func() {
			req := httptest.NewRequest("POST", "/raids", strings.NewReader(`{broken`))
			w := httptest.NewRecorder()

			Convey("Then it should return bad request", func() {
				handler.HandleRaids(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the village is missing", func() {
			body := `{"monster": {"name": "Hinox", "tier": 3, "max_hearts": 20}}`
			req := httptest.NewRequest("POST", "/raids", strings.NewReader(body))
			w := httptest.NewRecorder()

			Convey("Then it should return bad request", func() {
				handler.HandleRaids(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)

				var resp errorResponse
				So(json.NewDecoder(w.Body).Decode(&resp), ShouldBeNil)
				So(resp.Message, ShouldContainSubstring, "missing village")
			})
		})

		Convey("When the monster tier is below one", func() {
			body := `{"village": "rudania", "monster": {"name": "Hinox", "tier": 0, "max_hearts": 20}}`
			req := httptest.NewRequest("POST", "/raids", strings.NewReader(body))
			w := httptest.NewRecorder()

			Convey("Then it should return bad request", func() {
				handler.HandleRaids(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the engine rejects the raid", func() {
			engine.startErr = fmt.Errorf("store offline")
			body := `{"village": "rudania", "monster": {"name": "Hinox", "tier": 3, "max_hearts": 20}}`
			req := httptest.NewRequest("POST", "/raids", strings.NewReader(body))
			w := httptest.NewRecorder()

			Convey("Then it should return internal error", func() {
				handler.HandleRaids(w, req)
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})
	})
}

func TestRaidsHandler_ListRaids(t *testing.T) {
	Convey("Given a raids handler with raids", t, func() {
		engine := newMockEngine()
		seedRaid(engine)
		handler := api.NewRaidsHandler(engine, 100)

		Convey("When listing without parameters", func() {
			req := httptest.NewRequest("GET", "/raids", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return all raids capped at the max limit", func() {
				handler.HandleRaids(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var raids []*model.Raid
				So(json.NewDecoder(w.Body).Decode(&raids), ShouldBeNil)
				So(len(raids), ShouldEqual, 1)
				So(engine.lastFilter.Limit, ShouldEqual, 100)
			})
		})

		Convey("When listing with filters", func() {
			req := httptest.NewRequest("GET", "/raids?village=rudania&status=active&limit=5", nil)
			w := httptest.NewRecorder()

			Convey("Then the filter should be passed through", func() {
				handler.HandleRaids(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(engine.lastFilter.Village, ShouldEqual, "rudania")
				So(engine.lastFilter.Status, ShouldEqual, model.StatusActive)
				So(engine.lastFilter.Limit, ShouldEqual, 5)
			})
		})

		Convey("When the limit is not a number", func() {
			req := httptest.NewRequest("GET", "/raids?limit=abc", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return bad request", func() {
				handler.HandleRaids(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the limit exceeds the cap", func() {
			req := httptest.NewRequest("GET", "/raids?limit=1000", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return limit exceeded", func() {
				handler.HandleRaids(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)

				var resp errorResponse
				So(json.NewDecoder(w.Body).Decode(&resp), ShouldBeNil)
				So(resp.Code, ShouldEqual, "limit_exceeded")
			})
		})

		Convey("When the store fails", func() {
			engine.listErr = fmt.Errorf("store offline")
			req := httptest.NewRequest("GET", "/raids", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return internal error", func() {
				handler.HandleRaids(w, req)
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})
	})
}

func TestRaidsHandler_Actions(t *testing.T) {
	Convey("Given a raids handler with an active raid", t, func() {
		engine := newMockEngine()
		seedRaid(engine)
		handler := api.NewRaidsHandler(engine, 100)

		post := func(path, body string) *httptest.ResponseRecorder {
			req := httptest.NewRequest("POST", path, strings.NewReader(body))
			w := httptest.NewRecorder()
			handler.HandleRaidByID(w, req)
			return w
		}

		Convey("When fetching an existing raid", func() {
			req := httptest.NewRequest("GET", "/raids/raid-1", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return the raid", func() {
				handler.HandleRaidByID(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var raid model.Raid
				So(json.NewDecoder(w.Body).Decode(&raid), ShouldBeNil)
				So(raid.ID, ShouldEqual, "raid-1")
			})
		})

		Convey("When fetching a missing raid", func() {
			req := httptest.NewRequest("GET", "/raids/raid-404", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return not found with the reason code", func() {
				handler.HandleRaidByID(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)

				var resp errorResponse
				So(json.NewDecoder(w.Body).Decode(&resp), ShouldBeNil)
				So(resp.Code, ShouldEqual, "not_found")
			})
		})

		Convey("When joining with a valid body", func() {
			w := post("/raids/raid-1/join", `{"character_id": "char-2"}`)

			Convey("Then it should return the raid", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When joining twice from the same user", func() {
			engine.joinErr = model.NewValidation(model.ReasonDuplicateJoin, "user already fighting")
			w := post("/raids/raid-1/join", `{"character_id": "char-1"}`)

			Convey("Then it should return conflict", func() {
				So(w.Code, ShouldEqual, http.StatusConflict)

				var resp errorResponse
				So(json.NewDecoder(w.Body).Decode(&resp), ShouldBeNil)
				So(resp.Code, ShouldEqual, "duplicate_join")
			})
		})

		Convey("When joining a full raid", func() {
			engine.joinErr = model.NewValidation(model.ReasonCapExceeded, "party is full")
			w := post("/raids/raid-1/join", `{"character_id": "char-11"}`)

			Convey("Then it should return bad request with the reason code", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)

				var resp errorResponse
				So(json.NewDecoder(w.Body).Decode(&resp), ShouldBeNil)
				So(resp.Code, ShouldEqual, "cap_exceeded")
			})
		})

		Convey("When taking a turn", func() {
			engine.turnResult = &api.TurnResult{
				CharacterID:     "char-1",
				Roll:            62,
				DamageToMonster: 3,
				Narrative:       "Tetra lands a solid hit.",
			}
			w := post("/raids/raid-1/turn", `{"character_id": "char-1"}`)

			Convey("Then it should return the turn outcome", func() {
				So(w.Code, ShouldEqual, http.StatusOK)

				var result api.TurnResult
				So(json.NewDecoder(w.Body).Decode(&result), ShouldBeNil)
				So(result.Roll, ShouldEqual, 62)
				So(result.DamageToMonster, ShouldEqual, 3)
			})
		})

		Convey("When taking a turn out of order", func() {
			engine.turnErr = model.NewValidation(model.ReasonNotYourTurn, "it is not your turn")
			w := post("/raids/raid-1/turn", `{"character_id": "char-2"}`)

			Convey("Then it should return bad request with the reason code", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)

				var resp errorResponse
				So(json.NewDecoder(w.Body).Decode(&resp), ShouldBeNil)
				So(resp.Code, ShouldEqual, "not_your_turn")
			})
		})

		Convey("When the raid is too contended", func() {
			engine.turnErr = fmt.Errorf("turn: %w", repository.ErrConflictExhausted)
			w := post("/raids/raid-1/turn", `{"character_id": "char-1"}`)

			Convey("Then it should return service unavailable", func() {
				So(w.Code, ShouldEqual, http.StatusServiceUnavailable)

				var resp errorResponse
				So(json.NewDecoder(w.Body).Decode(&resp), ShouldBeNil)
				So(resp.Code, ShouldEqual, "conflict_exhausted")
			})
		})

		Convey("When leaving the raid", func() {
			w := post("/raids/raid-1/leave", `{"character_id": "char-1"}`)

			Convey("Then it should return the raid", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When the action body misses character_id", func() {
			w := post("/raids/raid-1/join", `{}`)

			Convey("Then it should return bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)

				var resp errorResponse
				So(json.NewDecoder(w.Body).Decode(&resp), ShouldBeNil)
				So(resp.Message, ShouldContainSubstring, "missing character_id")
			})
		})

		Convey("When the action is unknown", func() {
			w := post("/raids/raid-1/dance", `{"character_id": "char-1"}`)

			Convey("Then it should return not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When fetching loot failures", func() {
			engine.failures = []loot.Failure{
				{UserID: "user-1", CharacterID: "char-1", Name: "Tetra", Err: "inventory full"},
			}
			req := httptest.NewRequest("GET", "/raids/raid-1/loot_failures", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return the recorded failures", func() {
				handler.HandleRaidByID(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var failures []loot.Failure
				So(json.NewDecoder(w.Body).Decode(&failures), ShouldBeNil)
				So(len(failures), ShouldEqual, 1)
				So(failures[0].Err, ShouldEqual, "inventory full")
			})
		})
	})
}

func TestCharactersHandler(t *testing.T) {
	Convey("Given a characters handler", t, func() {
		engine := newMockEngine()
		handler := api.NewCharactersHandler(engine)

		Convey("When creating a character with a valid body", func() {
			body := `{"name": "Tetra", "village": "rudania", "hearts": 10}`
			req := httptest.NewRequest("POST", "/characters", strings.NewReader(body))
			w := httptest.NewRecorder()

			Convey("Then it should return the created character", func() {
				handler.HandleCharacters(w, req)
				So(w.Code, ShouldEqual, http.StatusCreated)

				var ch model.Character
				So(json.NewDecoder(w.Body).Decode(&ch), ShouldBeNil)
				So(ch.ID, ShouldNotBeEmpty)
				So(ch.Name, ShouldEqual, "Tetra")
			})
		})

		Convey("When the name is missing", func() {
			body := `{"village": "rudania", "hearts": 10}`
			req := httptest.NewRequest("POST", "/characters", strings.NewReader(body))
			w := httptest.NewRecorder()

			Convey("Then it should return bad request", func() {
				handler.HandleCharacters(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When hearts are below one", func() {
			body := `{"name": "Tetra", "village": "rudania", "hearts": 0}`
			req := httptest.NewRequest("POST", "/characters", strings.NewReader(body))
			w := httptest.NewRecorder()

			Convey("Then it should return bad request", func() {
				handler.HandleCharacters(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When the id already exists", func() {
			engine.createErr = fmt.Errorf("create: %w", repository.ErrDuplicateID)
			body := `{"id": "char-1", "name": "Tetra", "village": "rudania", "hearts": 10}`
			req := httptest.NewRequest("POST", "/characters", strings.NewReader(body))
			w := httptest.NewRecorder()

			Convey("Then it should return conflict", func() {
				handler.HandleCharacters(w, req)
				So(w.Code, ShouldEqual, http.StatusConflict)

				var resp errorResponse
				So(json.NewDecoder(w.Body).Decode(&resp), ShouldBeNil)
				So(resp.Code, ShouldEqual, "duplicate_id")
			})
		})

		Convey("When using a non-POST method on /characters", func() {
			req := httptest.NewRequest("GET", "/characters", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return not found", func() {
				handler.HandleCharacters(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When fetching an existing character", func() {
			engine.characters["char-1"] = &model.Character{ID: "char-1", Name: "Tetra", Village: "rudania", Hearts: 10}
			req := httptest.NewRequest("GET", "/characters/char-1", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return the character", func() {
				handler.HandleCharacterByID(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var ch model.Character
				So(json.NewDecoder(w.Body).Decode(&ch), ShouldBeNil)
				So(ch.Name, ShouldEqual, "Tetra")
			})
		})

		Convey("When fetching a missing character", func() {
			req := httptest.NewRequest("GET", "/characters/char-404", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return not found with the reason code", func() {
				handler.HandleCharacterByID(w, req)
				So(w.Code, ShouldEqual, http.StatusNotFound)

				var resp errorResponse
				So(json.NewDecoder(w.Body).Decode(&resp), ShouldBeNil)
				So(resp.Code, ShouldEqual, "unknown_character")
			})
		})

		Convey("When the character path has extra segments", func() {
			req := httptest.NewRequest("GET", "/characters/char-1/extra", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return bad request", func() {
				handler.HandleCharacterByID(w, req)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestStatsHandler_HandleStats(t *testing.T) {
	Convey("Given a stats handler", t, func() {
		engine := newMockEngine()
		engine.activity = 7
		mockStats := &mockStatsProvider{
			stats: map[string]interface{}{
				"activeRaids": 2,
				"totalRaids":  15,
			},
		}
		handler := api.NewStatsHandler(mockStats, engine)

		Convey("When handling a stats request", func() {
			req := httptest.NewRequest("GET", "/stats", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return stats", func() {
				handler.HandleStats(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var response map[string]interface{}
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(response["activeRaids"], ShouldEqual, 2)
				So(response["totalRaids"], ShouldEqual, 15)
			})
		})

		Convey("When asking for a character's activity", func() {
			req := httptest.NewRequest("GET", "/stats?character_id=char-1", nil)
			w := httptest.NewRecorder()

			Convey("Then the response should include the turn count", func() {
				handler.HandleStats(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)

				var response map[string]interface{}
				So(json.NewDecoder(w.Body).Decode(&response), ShouldBeNil)
				So(response["characterID"], ShouldEqual, "char-1")
				So(response["turnActivity"], ShouldEqual, 7)
			})
		})

		Convey("When the counter backend fails", func() {
			engine.activityErr = fmt.Errorf("counter offline")
			req := httptest.NewRequest("GET", "/stats?character_id=char-1", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return internal error", func() {
				handler.HandleStats(w, req)
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})
	})
}

func TestHealthHandler_HandleHealth(t *testing.T) {
	Convey("Given a health handler", t, func() {
		handler := api.NewHealthHandler()

		Convey("When handling a health check request", func() {
			req := httptest.NewRequest("GET", "/healthz", nil)
			w := httptest.NewRecorder()

			Convey("Then it should return OK status", func() {
				handler.HandleHealth(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Body.String(), ShouldContainSubstring, `"status":"ok"`)
			})
		})

		Convey("When handling a metrics request", func() {
			req := httptest.NewRequest("GET", "/metrics", nil)
			w := httptest.NewRecorder()

			Convey("Then it should serve the registry", func() {
				handler.HandleMetrics(w, req)
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}
