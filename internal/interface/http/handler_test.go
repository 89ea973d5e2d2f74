package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"dating-api/internal/application/dto"
	"dating-api/internal/application/service"
	"dating-api/internal/infrastructure/config"
	"dating-api/internal/infrastructure/repository/memory"
	"dating-api/internal/infrastructure/security"
	"dating-api/internal/infrastructure/telemetry"
)

type checkFunc func(ctx context.Context) error

func (f checkFunc) HealthCheck(ctx context.Context) error { return f(ctx) }

type testServer struct {
	t       *testing.T
	handler http.Handler
	app     *service.AppService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	tel, err := telemetry.NewNoop()
	require.NoError(t, err)

	users := service.NewUserService(memory.NewUserRepository(), security.NewHasher(bcrypt.MinCost), nil, tel)
	app := service.NewAppService(tel, "dating-api", "test")

	h := NewHandler(users, app, tel, config.AppConfig{LogBodies: false})
	return &testServer{t: t, handler: h.SetupRoutes(), app: app}
}

func (s *testServer) do(method, path, userID string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(s.t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) register(name, gender, dob string) string {
	s.t.Helper()
	rec := s.do(http.MethodPost, "/users", "", dto.RegisterUserRequest{
		Username: name, Password: "pa55", Gender: gender, DateOfBirth: dob,
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		Data dto.UserDetailResponse `json:"data"`
	}
	require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return strconv.Itoa(resp.Data.ID)
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Code
}

func TestRoot(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome to dating-api!")

	rec = s.do(http.MethodGet, "/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	s.app.Register("store", checkFunc(func(context.Context) error { return nil }))

	rec := s.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"healthy"`)

	s.app.Register("cache", checkFunc(func(context.Context) error { return errors.New("connection refused") }))
	rec = s.do(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}

func TestRegisterAndGet(t *testing.T) {
	s := newTestServer(t)
	id := s.register("Alice", "female", "1995-03-10")

	rec := s.do(http.MethodGet, "/users/"+id, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var user dto.UserDetailResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "1995-03-10", user.DateOfBirth)
	assert.Empty(t, user.Photos)

	t.Run("duplicate username", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/users", "", dto.RegisterUserRequest{
			Username: "ALICE", Password: "pa55", Gender: "female", DateOfBirth: "1995-03-10",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "USER_ALREADY_EXISTS", errorCode(t, rec))
	})

	t.Run("invalid json", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/users", "", "{")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_JSON", errorCode(t, rec))
	})

	t.Run("short password", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/users", "", dto.RegisterUserRequest{
			Username: "bob", Password: "abc", Gender: "male", DateOfBirth: "1990-01-01",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown user", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/users/999", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "USER_NOT_FOUND", errorCode(t, rec))
	})

	t.Run("malformed id", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/users/abc", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_ARGUMENT", errorCode(t, rec))
	})
}

func TestDiscover(t *testing.T) {
	s := newTestServer(t)
	bob := s.register("bob", "male", "1990-01-01")
	s.register("ann", "female", "1992-01-01")
	s.register("eve", "female", "1994-01-01")
	s.register("tom", "male", "1991-01-01")

	rec := s.do(http.MethodGet, "/users?pageSize=1", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var page dto.UserPageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Users, 1)
	assert.Equal(t, "female", page.Users[0].Gender)
	assert.Equal(t, dto.PaginationHeader{CurrentPage: 1, ItemsPerPage: 1, TotalItems: 2, TotalPages: 2}, page.Pagination)

	var header dto.PaginationHeader
	require.NoError(t, json.Unmarshal([]byte(rec.Header().Get("Pagination")), &header))
	assert.Equal(t, page.Pagination, header)

	t.Run("explicit gender", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/users?gender=male", bob, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var page dto.UserPageResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
		require.Len(t, page.Users, 1)
		assert.Equal(t, "tom", page.Users[0].Username)
	})

	t.Run("missing requester", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/users", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed query", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/users?pageSize=ten", bob, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "INVALID_QUERY", errorCode(t, rec))
	})

	t.Run("inverted age range", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/users?minAge=50&maxAge=20", bob, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("explicit zero is rejected", func(t *testing.T) {
		for _, query := range []string{"pageSize=0", "pageNumber=0", "minAge=5&maxAge=0", "maxAge=0"} {
			rec := s.do(http.MethodGet, "/users?"+query, bob, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code, query)
			assert.Equal(t, "INVALID_ARGUMENT", errorCode(t, rec), query)
		}
	})

	t.Run("explicit zero min age", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/users?minAge=0&maxAge=99", bob, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var page dto.UserPageResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
		assert.Equal(t, 2, page.Pagination.TotalItems)
	})
}

func TestLikes(t *testing.T) {
	s := newTestServer(t)
	bob := s.register("bob", "male", "1990-01-01")
	ann := s.register("ann", "female", "1992-01-01")
	s.register("eve", "female", "1994-01-01")

	rec := s.do(http.MethodPost, "/users/"+bob+"/like/"+ann, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodPost, "/users/"+bob+"/like/"+ann, "", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "LIKE_ALREADY_EXISTS", errorCode(t, rec))

	rec = s.do(http.MethodPost, "/users/"+bob+"/like/"+bob, "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/users/"+bob+"/like/999", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/users?likees=true", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page dto.UserPageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Users, 1)
	assert.Equal(t, "ann", page.Users[0].Username)

	rec = s.do(http.MethodDelete, "/users/"+ann, "", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "RESTRICTED_DELETE", errorCode(t, rec))

	rec = s.do(http.MethodDelete, "/users/"+bob+"/like/"+ann, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodDelete, "/users/"+bob+"/like/"+ann, "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "LIKE_NOT_FOUND", errorCode(t, rec))

	rec = s.do(http.MethodDelete, "/users/"+ann, "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPhotos(t *testing.T) {
	s := newTestServer(t)
	bob := s.register("bob", "male", "1990-01-01")
	ann := s.register("ann", "female", "1992-01-01")

	addPhoto := func(owner, url string) dto.PhotoResponse {
		rec := s.do(http.MethodPost, "/users/"+owner+"/photos", "", dto.AddPhotoRequest{URL: url})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var photo dto.PhotoResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &photo))
		return photo
	}

	first := addPhoto(bob, "http://img/1")
	second := addPhoto(bob, "http://img/2")
	assert.True(t, first.IsMain)
	assert.False(t, second.IsMain)

	firstPath := "/users/" + bob + "/photos/" + strconv.Itoa(first.ID)
	secondPath := "/users/" + bob + "/photos/" + strconv.Itoa(second.ID)

	rec := s.do(http.MethodDelete, firstPath, "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "MAIN_PHOTO_REQUIRED", errorCode(t, rec))

	rec = s.do(http.MethodPost, secondPath+"/main", "", nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodPost, secondPath+"/main", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, rec))

	rec = s.do(http.MethodDelete, "/users/"+ann+"/photos/"+strconv.Itoa(first.ID), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodDelete, firstPath, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/users/"+bob, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var user dto.UserDetailResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &user))
	require.Len(t, user.Photos, 1)
	assert.Equal(t, "http://img/2", user.PhotoURL)

	rec = s.do(http.MethodPost, "/users/"+bob+"/photos", "", dto.AddPhotoRequest{URL: " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSendMessage(t *testing.T) {
	s := newTestServer(t)
	bob := s.register("bob", "male", "1990-01-01")
	ann := s.register("ann", "female", "1992-01-01")
	annID, _ := strconv.Atoi(ann)

	rec := s.do(http.MethodPost, "/users/"+bob+"/messages", "", dto.SendMessageRequest{RecipientID: annID, Content: "hello"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var msg dto.MessageResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &msg))
	assert.Equal(t, annID, msg.RecipientID)
	assert.Equal(t, "hello", msg.Content)

	rec = s.do(http.MethodPost, "/users/"+bob+"/messages", "", dto.SendMessageRequest{RecipientID: 999, Content: "hello"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/users/"+bob+"/messages", "", dto.SendMessageRequest{Content: "hello"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodDelete, "/users/"+bob, "", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodOptions, "/users", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-User-ID")
}
