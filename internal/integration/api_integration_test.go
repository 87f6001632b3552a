package integration

import (
	"encoding/json"
	"io"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"evconnect/internal/auth"
	authconfig "evconnect/internal/auth/config"
	authtestutil "evconnect/internal/auth/testutil"
	"evconnect/internal/di"
	"evconnect/internal/shared/logger"
	"evconnect/internal/station"
	stationconfig "evconnect/internal/station/config"
	stationtestutil "evconnect/internal/station/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"
)

const revocationTTL = time.Hour

type APITestSuite struct {
	suite.Suite
	app      *fiber.App
	clock    *authtestutil.Clock
	stations *stationtestutil.MemoryStationRepository
}

func (s *APITestSuite) SetupTest() {
	s.setup(stationconfig.DefaultAccessRule)
}

func (s *APITestSuite) setup(accessRule string) {
	log := logger.NewNopLogger()
	s.clock = authtestutil.NewClock(time.Now())
	s.stations = stationtestutil.NewMemoryStationRepository()

	authCfg := &authconfig.Config{
		MongoDBURI:     "mongodb://unused",
		JWTSecretKey:   "integration-secret-key-32-characters-long",
		JWTIssuer:      "evconnect-test",
		AccessTokenTTL: 24 * time.Hour,
		RevocationTTL:  revocationTTL,
		BcryptCost:     bcrypt.MinCost,
		CookieName:     "token",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
	}
	require.NoError(s.T(), authCfg.Validate())

	stationCfg := &stationconfig.Config{AccessRule: accessRule, FeedBufferSize: 4, CollectionName: "chargingstations", EventAsync: true}
	require.NoError(s.T(), stationCfg.Validate())

	container := di.NewContainer(log, stationCfg.BusConfig())
	authModule, err := auth.NewAuthModuleWithRepositories(
		authtestutil.NewMemoryUserRepository(),
		authtestutil.NewMemoryRevocationList(revocationTTL, s.clock),
		authCfg, log,
	)
	require.NoError(s.T(), err)

	stationModule, err := station.NewStationModuleWithRepository(s.stations, stationCfg, container.EventBus, log)
	require.NoError(s.T(), err)

	require.NoError(s.T(), container.Register(authModule))
	require.NoError(s.T(), container.Register(stationModule))
	s.app = container.NewApp(di.HTTPConfig{AppName: "integration", AllowOrigins: "*"})
}

func (s *APITestSuite) call(method, path, token, body string) (int, map[string]interface{}) {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(s.T(), err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)
	var decoded map[string]interface{}
	require.NoError(s.T(), json.Unmarshal(raw, &decoded), string(raw))
	return resp.StatusCode, decoded
}

func (s *APITestSuite) register(email string) string {
	status, body := s.call(stdhttp.MethodPost, "/users/register", "",
		`{"email":"`+email+`","password":"p1","fullname":{"firstname":"A","lastname":"B"}}`)
	require.Equal(s.T(), stdhttp.StatusCreated, status, body)
	token, ok := body["token"].(string)
	require.True(s.T(), ok)
	return token
}

func (s *APITestSuite) createStation(token, body string) map[string]interface{} {
	status, resp := s.call(stdhttp.MethodPost, "/ev/stations", token, body)
	require.Equal(s.T(), stdhttp.StatusCreated, status, resp)
	return resp["data"].(map[string]interface{})
}

const s1 = `{"name":"S1","latitude":1.0,"longitude":2.0,"powerOutput":50,"connectorType":"CCS"}`

func (s *APITestSuite) TestWorkedExample() {
	alice := s.register("a@x.com")
	bob := s.register("b@x.com")

	data := s.createStation(alice, s1)
	assert.Equal(s.T(), "CCS", data["connectorType"])
	assert.Equal(s.T(), "Active", data["status"])

	status, body := s.call(stdhttp.MethodGet, "/ev/stations", bob, "")
	assert.Equal(s.T(), stdhttp.StatusOK, status)
	assert.Equal(s.T(), float64(0), body["count"])

	status, body = s.call(stdhttp.MethodGet, "/ev/stations", alice, "")
	assert.Equal(s.T(), stdhttp.StatusOK, status)
	assert.Equal(s.T(), float64(1), body["count"])
}

func (s *APITestSuite) TestRegisterOnce() {
	s.register("a@x.com")

	status, body := s.call(stdhttp.MethodPost, "/users/register", "",
		`{"email":"A@x.com","password":"other","fullname":{"firstname":"C","lastname":"D"}}`)
	assert.Equal(s.T(), stdhttp.StatusConflict, status)
	assert.Equal(s.T(), "User already exists", body["message"])
}

func (s *APITestSuite) TestRegisterNeverReturnsPasswordHash() {
	status, body := s.call(stdhttp.MethodPost, "/users/register", "",
		`{"email":"a@x.com","password":"p1","fullname":{"firstname":"A","lastname":"B"}}`)
	require.Equal(s.T(), stdhttp.StatusCreated, status)
	user := body["user"].(map[string]interface{})
	assert.Equal(s.T(), "a@x.com", user["email"])
	for key := range user {
		assert.NotContains(s.T(), strings.ToLower(key), "password")
	}
}

func (s *APITestSuite) TestLoginFailuresAreIndistinguishable() {
	s.register("a@x.com")

	wrongStatus, wrongBody := s.call(stdhttp.MethodPost, "/users/login", "", `{"email":"a@x.com","password":"nope"}`)
	unknownStatus, unknownBody := s.call(stdhttp.MethodPost, "/users/login", "", `{"email":"ghost@x.com","password":"p1"}`)

	assert.Equal(s.T(), stdhttp.StatusUnauthorized, wrongStatus)
	assert.Equal(s.T(), wrongStatus, unknownStatus)
	assert.Equal(s.T(), wrongBody, unknownBody)

	status, body := s.call(stdhttp.MethodPost, "/users/login", "", `{"email":"a@x.com","password":"p1"}`)
	assert.Equal(s.T(), stdhttp.StatusOK, status)
	assert.NotEmpty(s.T(), body["token"])
}

func (s *APITestSuite) TestLogoutRevokesToken() {
	token := s.register("a@x.com")

	status, _ := s.call(stdhttp.MethodGet, "/users/profile", token, "")
	require.Equal(s.T(), stdhttp.StatusOK, status)

	status, body := s.call(stdhttp.MethodGet, "/users/logout", token, "")
	assert.Equal(s.T(), stdhttp.StatusOK, status)
	assert.Equal(s.T(), "Logged Out", body["message"])

	status, body = s.call(stdhttp.MethodGet, "/ev/stations", token, "")
	assert.Equal(s.T(), stdhttp.StatusUnauthorized, status)
	assert.Equal(s.T(), "Unauthorized", body["message"])

	status, _ = s.call(stdhttp.MethodGet, "/users/logout", token, "")
	assert.Equal(s.T(), stdhttp.StatusUnauthorized, status)
}

func (s *APITestSuite) TestLogoutWithoutToken() {
	status, body := s.call(stdhttp.MethodGet, "/users/logout", "", "")
	assert.Equal(s.T(), stdhttp.StatusUnauthorized, status)
	assert.Equal(s.T(), false, body["success"])
}

func (s *APITestSuite) TestRevocationExpiresAfterRetention() {
	token := s.register("a@x.com")
	status, _ := s.call(stdhttp.MethodGet, "/users/logout", token, "")
	require.Equal(s.T(), stdhttp.StatusOK, status)

	s.clock.Advance(revocationTTL - time.Minute)
	status, _ = s.call(stdhttp.MethodGet, "/ev/stations", token, "")
	assert.Equal(s.T(), stdhttp.StatusUnauthorized, status)

	s.clock.Advance(2 * time.Minute)
	status, _ = s.call(stdhttp.MethodGet, "/ev/stations", token, "")
	assert.Equal(s.T(), stdhttp.StatusOK, status)
}

func (s *APITestSuite) TestGarbageTokenRejected() {
	status, body := s.call(stdhttp.MethodGet, "/ev/stations", "not-a-token", "")
	assert.Equal(s.T(), stdhttp.StatusUnauthorized, status)
	assert.Equal(s.T(), "Unauthorized", body["message"])
}

func (s *APITestSuite) TestCrossUserIsolation() {
	alice := s.register("a@x.com")
	bob := s.register("b@x.com")
	id := s.createStation(alice, s1)["_id"].(string)

	status, body := s.call(stdhttp.MethodGet, "/ev/stations/"+id, bob, "")
	assert.Equal(s.T(), stdhttp.StatusForbidden, status)
	assert.Equal(s.T(), "Not authorized to access this station", body["message"])

	status, body = s.call(stdhttp.MethodPut, "/ev/stations/"+id, bob, `{"status":"Inactive"}`)
	assert.Equal(s.T(), stdhttp.StatusForbidden, status)
	assert.Equal(s.T(), "Not authorized to update this station", body["message"])

	status, body = s.call(stdhttp.MethodDelete, "/ev/stations/"+id, bob, "")
	assert.Equal(s.T(), stdhttp.StatusForbidden, status)
	assert.Equal(s.T(), "Not authorized to delete this station", body["message"])

	assert.Equal(s.T(), 1, s.stations.Len())
	status, body = s.call(stdhttp.MethodGet, "/ev/stations/"+id, alice, "")
	assert.Equal(s.T(), stdhttp.StatusOK, status)
	assert.Equal(s.T(), "Active", body["data"].(map[string]interface{})["status"])
}

func (s *APITestSuite) TestPermissiveAccessRuleKeepsOwnership() {
	s.setup("true")
	alice := s.register("a@x.com")
	bob := s.register("b@x.com")
	id := s.createStation(alice, s1)["_id"].(string)

	status, _ := s.call(stdhttp.MethodGet, "/ev/stations/"+id, bob, "")
	assert.Equal(s.T(), stdhttp.StatusForbidden, status)
	status, _ = s.call(stdhttp.MethodPut, "/ev/stations/"+id, bob, `{"name":"Taken"}`)
	assert.Equal(s.T(), stdhttp.StatusForbidden, status)
	status, _ = s.call(stdhttp.MethodDelete, "/ev/stations/"+id, bob, "")
	assert.Equal(s.T(), stdhttp.StatusForbidden, status)
	assert.Equal(s.T(), 1, s.stations.Len())
}

func (s *APITestSuite) TestSecurityHeadersOnEveryRoute() {
	for _, path := range []string{"/", "/health", "/ev/stations"} {
		resp, err := s.app.Test(httptest.NewRequest(stdhttp.MethodGet, path, nil), -1)
		require.NoError(s.T(), err)
		assert.Equal(s.T(), "nosniff", resp.Header.Get("X-Content-Type-Options"), path)
		assert.Equal(s.T(), "DENY", resp.Header.Get("X-Frame-Options"), path)
	}
}

func (s *APITestSuite) TestStationLifecycle() {
	token := s.register("a@x.com")
	id := s.createStation(token, s1)["_id"].(string)
	s.createStation(token, `{"name":"S2","latitude":"3.5","longitude":4,"powerOutput":22,"connectorType":"Type 2","status":"Inactive"}`)

	status, body := s.call(stdhttp.MethodGet, "/ev/stations?connectorType=CCS", token, "")
	assert.Equal(s.T(), stdhttp.StatusOK, status)
	assert.Equal(s.T(), float64(1), body["count"])

	status, body = s.call(stdhttp.MethodGet, "/ev/stations?status=Inactive", token, "")
	assert.Equal(s.T(), stdhttp.StatusOK, status)
	assert.Equal(s.T(), float64(1), body["count"])

	status, _ = s.call(stdhttp.MethodGet, "/ev/stations?status=Broken", token, "")
	assert.Equal(s.T(), stdhttp.StatusBadRequest, status)

	status, body = s.call(stdhttp.MethodPut, "/ev/stations/"+id, token, `{"powerOutput":150}`)
	assert.Equal(s.T(), stdhttp.StatusOK, status)
	data := body["data"].(map[string]interface{})
	assert.Equal(s.T(), float64(150), data["powerOutput"])
	assert.Equal(s.T(), "S1", data["name"])

	status, body = s.call(stdhttp.MethodPut, "/ev/stations/"+id, token, `{"latitude":91}`)
	assert.Equal(s.T(), stdhttp.StatusBadRequest, status)
	assert.Equal(s.T(), "Latitude must be between -90 and 90", body["message"])

	status, _ = s.call(stdhttp.MethodDelete, "/ev/stations/"+id, token, "")
	assert.Equal(s.T(), stdhttp.StatusOK, status)

	status, body = s.call(stdhttp.MethodGet, "/ev/stations/"+id, token, "")
	assert.Equal(s.T(), stdhttp.StatusNotFound, status)
	assert.Equal(s.T(), "Station not found", body["message"])

	status, _ = s.call(stdhttp.MethodGet, "/ev/stations/not-an-id", token, "")
	assert.Equal(s.T(), stdhttp.StatusNotFound, status)
}

func (s *APITestSuite) TestCreateStationValidation() {
	token := s.register("a@x.com")

	status, body := s.call(stdhttp.MethodPost, "/ev/stations", token, `{"name":"","latitude":"north","powerOutput":0,"connectorType":"Tesla"}`)
	assert.Equal(s.T(), stdhttp.StatusBadRequest, status)
	assert.Equal(s.T(), false, body["success"])
	assert.GreaterOrEqual(s.T(), len(body["errors"].([]interface{})), 4)
	assert.Equal(s.T(), 0, s.stations.Len())
}

func TestAPITestSuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
