package auth_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	appErrors "github.com/frahmantamala/rti-filing/internal"
	"github.com/frahmantamala/rti-filing/internal/auth"
	userDatamodel "github.com/frahmantamala/rti-filing/internal/core/datamodel/user"
	"github.com/frahmantamala/rti-filing/internal/transport"
	"github.com/frahmantamala/rti-filing/internal/user"
	userPostgres "github.com/frahmantamala/rti-filing/internal/user/postgres"
	"github.com/frahmantamala/rti-filing/pkg/logger"
)

func TestAuth(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Auth Suite")
}

const testSecret = "0123456789abcdef0123456789abcdef"

var _ = Describe("JWTTokenGenerator", func() {
	It("round-trips user id, email and role", func() {
		gen := auth.NewJWTTokenGenerator(testSecret, time.Hour)
		token, exp, err := gen.GenerateAccessToken(42, "a@example.com", user.RoleAdmin)
		Expect(err).NotTo(HaveOccurred())
		Expect(exp).To(BeTemporally("~", time.Now().Add(time.Hour), 5*time.Second))

		claims, err := gen.ValidateToken(token)
		Expect(err).NotTo(HaveOccurred())
		Expect(claims.UserID).To(Equal(int64(42)))
		Expect(claims.Email).To(Equal("a@example.com"))
		Expect(claims.CurrentUser().IsAdmin()).To(BeTrue())
	})

	It("rejects tokens signed with another secret", func() {
		other := auth.NewJWTTokenGenerator(strings.Repeat("x", 32), time.Hour)
		token, _, err := other.GenerateAccessToken(1, "a@example.com", user.RoleUser)
		Expect(err).NotTo(HaveOccurred())

		_, err = auth.NewJWTTokenGenerator(testSecret, time.Hour).ValidateToken(token)
		Expect(err).To(MatchError(appErrors.ErrInvalidToken))
	})

	It("reports expired tokens", func() {
		gen := auth.NewJWTTokenGenerator(testSecret, time.Nanosecond)
		token, _, err := gen.GenerateAccessToken(1, "a@example.com", user.RoleUser)
		Expect(err).NotTo(HaveOccurred())
		time.Sleep(1100 * time.Millisecond)

		_, err = gen.ValidateToken(token)
		Expect(err).To(MatchError(appErrors.ErrTokenExpired))
	})

	It("rejects garbage", func() {
		_, err := auth.NewJWTTokenGenerator(testSecret, time.Hour).ValidateToken("not.a.token")
		Expect(err).To(MatchError(appErrors.ErrInvalidToken))
	})
})

var _ = Describe("Auth Service and middleware", func() {
	var (
		service *auth.Service
		handler *auth.Handler
		users   *user.Service
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		sqlDB.SetMaxOpenConns(1)
		Expect(db.AutoMigrate(&userDatamodel.User{})).To(Succeed())

		users = user.NewService(userPostgres.NewUserRepository(db), 4, logger.Discard())
		service = auth.NewService(users, auth.NewJWTTokenGenerator(testSecret, time.Hour), logger.Discard())
		handler = auth.NewHandler(transport.NewBaseHandler(logger.Discard()), service)
	})

	It("registers and logs in", func() {
		reg, err := service.Register(ctx, user.RegisterDTO{Name: "Asha", Email: "asha@example.com", Password: "s3cretpass"})
		Expect(err).NotTo(HaveOccurred())
		Expect(reg.AccessToken).NotTo(BeEmpty())
		Expect(reg.User.Role).To(Equal(user.RoleUser))

		login, err := service.Login(ctx, auth.LoginDTO{Email: "asha@example.com", Password: "s3cretpass"})
		Expect(err).NotTo(HaveOccurred())
		Expect(login.User.ID).To(Equal(reg.User.ID))
	})

	It("does not reveal whether an email exists", func() {
		_, err := service.Register(ctx, user.RegisterDTO{Name: "Asha", Email: "asha@example.com", Password: "s3cretpass"})
		Expect(err).NotTo(HaveOccurred())

		_, wrongPass := service.Login(ctx, auth.LoginDTO{Email: "asha@example.com", Password: "nope-nope"})
		_, unknown := service.Login(ctx, auth.LoginDTO{Email: "ghost@example.com", Password: "nope-nope"})
		Expect(wrongPass).To(MatchError(appErrors.ErrInvalidCredentials))
		Expect(unknown).To(MatchError(appErrors.ErrInvalidCredentials))
	})

	Describe("middleware", func() {
		var protected http.Handler

		BeforeEach(func() {
			final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				u, ok := appErrors.UserFromContext(r.Context())
				Expect(ok).To(BeTrue())
				w.Header().Set("X-User", u.Email)
				w.WriteHeader(http.StatusOK)
			})
			protected = handler.AuthMiddleware(handler.RequireAdmin(final))
		})

		It("rejects requests without a token", func() {
			w := httptest.NewRecorder()
			protected.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		It("forbids non-admins", func() {
			reg, err := service.Register(ctx, user.RegisterDTO{Name: "Asha", Email: "asha@example.com", Password: "s3cretpass"})
			Expect(err).NotTo(HaveOccurred())

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+reg.AccessToken)
			w := httptest.NewRecorder()
			protected.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusForbidden))
			Expect(w.Body.String()).To(ContainSubstring("ADMIN_REQUIRED"))
		})

		It("lets admins through with the user in context", func() {
			_, err := users.CreateAdmin(ctx, user.RegisterDTO{Name: "Admin", Email: "admin@example.com", Password: "adminpass1"})
			Expect(err).NotTo(HaveOccurred())
			login, err := service.Login(ctx, auth.LoginDTO{Email: "admin@example.com", Password: "adminpass1"})
			Expect(err).NotTo(HaveOccurred())

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", "Bearer "+login.AccessToken)
			w := httptest.NewRecorder()
			protected.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Header().Get("X-User")).To(Equal("admin@example.com"))
		})

		It("treats a bad token on optional routes as anonymous", func() {
			var seen bool
			optional := handler.OptionalAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, seen = appErrors.UserFromContext(r.Context())
				w.WriteHeader(http.StatusNoContent)
			}))

			req := httptest.NewRequest(http.MethodPost, "/", nil)
			req.Header.Set("Authorization", "Bearer not-a-jwt")
			w := httptest.NewRecorder()
			optional.ServeHTTP(w, req)
			Expect(w.Code).To(Equal(http.StatusNoContent))
			Expect(seen).To(BeFalse())

			reg, err := service.Register(ctx, user.RegisterDTO{Name: "Asha", Email: "asha@example.com", Password: "s3cretpass"})
			Expect(err).NotTo(HaveOccurred())
			req = httptest.NewRequest(http.MethodPost, "/", nil)
			req.Header.Set("Authorization", "Bearer "+reg.AccessToken)
			optional.ServeHTTP(httptest.NewRecorder(), req)
			Expect(seen).To(BeTrue())
		})
	})
})
