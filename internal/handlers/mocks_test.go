package handlers

import (
	"context"
	"net/http"
	"sync"

	"parking_spot/internal/models"
	"parking_spot/internal/service"

	"github.com/gin-gonic/gin"
)

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(_ context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}

func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}

func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockSpots struct {
	mu        sync.Mutex
	spots     []models.SpotState
	listErr   error
	one       models.SpotState
	getErr    error
	ingestErr error

	ingested []models.SpotState
	lastGet  string
}

func (m *mockSpots) Ingest(_ context.Context, st models.SpotState) error {
	m.ingested = append(m.ingested, st)
	return m.ingestErr
}

func (m *mockSpots) List(_ context.Context) ([]models.SpotState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.SpotState(nil), m.spots...), m.listErr
}

func (m *mockSpots) setSpots(spots []models.SpotState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spots = spots
}

func (m *mockSpots) Get(_ context.Context, id string) (models.SpotState, error) {
	m.lastGet = id
	return m.one, m.getErr
}

type mockEventLog struct {
	resp       []models.SpotEvent
	err        error
	lastFilter service.LogFilter
}

func (m *mockEventLog) List(_ context.Context, f service.LogFilter) ([]models.SpotEvent, error) {
	m.lastFilter = f
	return m.resp, m.err
}

func newTestRouter(s *service.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, nil, 0)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

func withHeaders(req *http.Request, hdr http.Header) *http.Request {
	for k, vv := range hdr {
		for _, v := range vv {
			req.Header.Add(k, v)
		}
	}
	return req
}
