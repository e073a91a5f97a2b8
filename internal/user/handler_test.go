package user_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"barbershop_backend/internal/common"
	"barbershop_backend/internal/config"
	"barbershop_backend/internal/platform/database/dbtest"
	"barbershop_backend/internal/shared"
	"barbershop_backend/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type noAddresses struct{}

func (noAddresses) GetForUser(context.Context, uuid.UUID) (*shared.Address, error) {
	return nil, common.ErrNotFound
}

type UserHandlerSuite struct {
	suite.Suite
	DB     *gorm.DB
	Router *gin.Engine
	authAs uuid.UUID
}

func (s *UserHandlerSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.Require().NoError(common.RegisterGinValidators())

	s.DB = dbtest.New(s.T(), &user.User{})
	svc := user.NewService(user.NewGORMRepository(s.DB), &config.Config{BcryptCost: bcrypt.MinCost}, zap.NewNop())

	fakeAuth := func(c *gin.Context) {
		c.Set(common.UserIDKey, s.authAs)
		c.Next()
	}

	s.Router = gin.New()
	user.NewHandler(svc, noAddresses{}, zap.NewNop()).RegisterRoutes(s.Router.Group("/api"), fakeAuth)
}

func (s *UserHandlerSuite) post(path string, body interface{}) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Router.ServeHTTP(rec, req)
	return rec
}

func validRegistration() gin.H {
	return gin.H{
		"name":     "Ana Souza",
		"email":    "ana@example.com",
		"password": "abcd",
		"phone":    "(11)91234-5678",
	}
}

func (s *UserHandlerSuite) TestRegisterCreatesUser() {
	rec := s.post("/api/user", validRegistration())
	s.Equal(http.StatusCreated, rec.Code)

	var body map[string]interface{}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.NotEmpty(body["message"])
	id, err := uuid.Parse(body["id"].(string))
	s.Require().NoError(err)

	var stored user.User
	s.Require().NoError(s.DB.First(&stored, "id = ?", id).Error)
	s.Require().NotNil(stored.PasswordHash)
	s.NotEqual("abcd", *stored.PasswordHash)
}

func (s *UserHandlerSuite) TestRegisterDuplicateEmailReturnsConflict() {
	s.Require().Equal(http.StatusCreated, s.post("/api/user", validRegistration()).Code)

	dup := validRegistration()
	dup["email"] = "ANA@example.com"
	rec := s.post("/api/user", dup)
	s.Equal(http.StatusConflict, rec.Code)
	s.Contains(rec.Body.String(), "EMAIL_ALREADY_EXISTS")

	var count int64
	s.DB.Model(&user.User{}).Count(&count)
	s.Equal(int64(1), count)
}

func (s *UserHandlerSuite) TestRegisterValidationFailure() {
	bad := validRegistration()
	bad["phone"] = "11912345678"
	bad["password"] = "ab"

	rec := s.post("/api/user", bad)
	s.Equal(http.StatusBadRequest, rec.Code)

	var body struct {
		Code    string            `json:"code"`
		Details map[string]string `json:"details"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	s.Equal("VALIDATION_ERROR", body.Code)
	s.Contains(body.Details, "phone")
	s.Contains(body.Details, "password")
}

func (s *UserHandlerSuite) TestGetUserByIDOnlyForSelf() {
	rec := s.post("/api/user", validRegistration())
	s.Require().Equal(http.StatusCreated, rec.Code)
	var created struct {
		ID uuid.UUID `json:"id"`
	}
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &created))

	s.authAs = uuid.New()
	get := httptest.NewRecorder()
	s.Router.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/api/user/"+created.ID.String(), nil))
	s.Equal(http.StatusForbidden, get.Code)

	s.authAs = created.ID
	get = httptest.NewRecorder()
	s.Router.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/api/user/"+created.ID.String(), nil))
	s.Equal(http.StatusOK, get.Code)
	s.Contains(get.Body.String(), "ana@example.com")
	s.NotContains(get.Body.String(), "password")
}

func TestUserHandlerSuite(t *testing.T) {
	suite.Run(t, new(UserHandlerSuite))
}
