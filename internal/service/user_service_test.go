package service_test

import (
	"context"
	"time"

	"go-warehouse-ws/internal/apperror"
	"go-warehouse-ws/internal/model"
	"go-warehouse-ws/internal/permission"
	"go-warehouse-ws/internal/repository"
	"go-warehouse-ws/internal/service"
	"go-warehouse-ws/pkg/jwt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"
)

var _ = Describe("Users and sessions", func() {
	var (
		ctx    context.Context
		now    *clock
		users  repository.UserRepository
		events *recorder
		userSv service.UserService
		auth   service.AuthService
		boss   permission.Actor
	)

	BeforeEach(func() {
		ctx = context.Background()
		db := newDB()
		now = &clock{t: time.Now().UTC()}
		users = repository.NewUserRepo(db)
		events = &recorder{}
		opts := options(now)

		userSv = service.NewUserService(users, zap.NewNop(), opts)
		Expect(userSv.EnsureAdmin(ctx, "admin-secret")).To(Succeed())

		stored, err := users.FindByEmail(ctx, adminEmail)
		Expect(err).NotTo(HaveOccurred())
		boss = permission.NewActor(stored, adminEmail)

		tokens := jwt.NewManager("test-secret", time.Hour)
		auth = service.NewAuthService(users, tokens, events, zap.NewNop(), opts, 5*time.Minute)
	})

	createClerk := func(perms model.Permissions) *model.UserResponse {
		resp, err := userSv.CreateUser(ctx, boss, &service.CreateUserRequest{
			Email: "clerk@example.com", Password: "secret1", Permissions: perms,
		})
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	login := func(email, password string) (*service.LoginResponse, error) {
		return auth.Login(ctx, &service.LoginRequest{Email: email, Password: password})
	}

	Describe("admin seeding", func() {
		It("creates the admin once with every permission", func() {
			Expect(boss.IsAdmin).To(BeTrue())
			Expect(userSv.EnsureAdmin(ctx, "other")).To(Succeed())

			res, err := login(adminEmail, "admin-secret")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.User.IsAdmin).To(BeTrue())
			Expect(res.User.Permissions).To(Equal(model.AllPermissions()))
		})
	})

	Describe("user management", func() {
		It("creates users and rejects duplicates", func() {
			resp := createClerk(model.Permissions{CanViewReports: true})
			Expect(resp.IsAdmin).To(BeFalse())
			Expect(resp.Permissions.CanViewReports).To(BeTrue())

			_, err := userSv.CreateUser(ctx, boss, &service.CreateUserRequest{Email: "CLERK@example.com", Password: "secret2"})
			Expect(codeOf(err)).To(Equal("EMAIL_EXISTS"))
		})

		It("is admin only", func() {
			actor := clerk(model.AllPermissions())
			_, err := userSv.CreateUser(ctx, actor, &service.CreateUserRequest{Email: "x@example.com", Password: "secret1"})
			Expect(apperror.IsAuthorization(err)).To(BeTrue())

			_, err = userSv.GetAllUsers(ctx, actor)
			Expect(apperror.IsAuthorization(err)).To(BeTrue())
		})

		It("replaces permissions", func() {
			resp := createClerk(model.Permissions{})
			updated, err := userSv.UpdateUser(ctx, boss, resp.ID, &service.UpdateUserRequest{
				Permissions: model.Permissions{CanAddProducts: true},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Permissions).To(Equal(model.Permissions{CanAddProducts: true}))

			got, err := userSv.GetUserByID(ctx, boss, resp.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Permissions.CanAddProducts).To(BeTrue())
		})

		It("protects the admin and the caller from deletion", func() {
			Expect(codeOf(userSv.DeleteUser(ctx, boss, boss.ID))).To(Equal("SELF_DELETE"))

			resp := createClerk(model.Permissions{})
			Expect(userSv.DeleteUser(ctx, boss, resp.ID)).To(Succeed())
			Expect(apperror.KindOf(userSv.DeleteUser(ctx, boss, resp.ID))).To(Equal(apperror.KindNotFound))

			list, err := userSv.GetAllUsers(ctx, boss)
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))
		})

		It("refuses to deactivate the admin", func() {
			off := false
			_, err := userSv.UpdateUser(ctx, boss, boss.ID, &service.UpdateUserRequest{IsActive: &off})
			Expect(codeOf(err)).To(Equal("ADMIN_PROTECTED"))
		})
	})

	Describe("sessions", func() {
		It("logs in and authenticates the bearer", func() {
			createClerk(model.Permissions{CanManageTransactions: true})
			res, err := login("clerk@example.com", "secret1")
			Expect(err).NotTo(HaveOccurred())
			Expect(res.Token).NotTo(BeEmpty())

			actor, err := auth.Authenticate(ctx, res.Token)
			Expect(err).NotTo(HaveOccurred())
			Expect(actor.Email).To(Equal("clerk@example.com"))
			Expect(actor.IsAdmin).To(BeFalse())
			Expect(permission.Can(actor, permission.RecordTransaction)).To(BeTrue())
		})

		It("rejects bad credentials", func() {
			createClerk(model.Permissions{})
			_, err := login("clerk@example.com", "wrong")
			Expect(apperror.KindOf(err)).To(Equal(apperror.KindUnauthenticated))

			_, err = login("nobody@example.com", "secret1")
			Expect(codeOf(err)).To(Equal("INVALID_CREDENTIALS"))
		})

		It("keeps one session per user", func() {
			createClerk(model.Permissions{})
			first, err := login("clerk@example.com", "secret1")
			Expect(err).NotTo(HaveOccurred())
			_, err = login("clerk@example.com", "secret1")
			Expect(err).NotTo(HaveOccurred())

			_, err = auth.Authenticate(ctx, first.Token)
			Expect(codeOf(err)).To(Equal("SESSION_REPLACED"))
		})

		It("ends idle sessions and heartbeats keep them alive", func() {
			createClerk(model.Permissions{})
			res, err := login("clerk@example.com", "secret1")
			Expect(err).NotTo(HaveOccurred())

			now.Advance(4 * time.Minute)
			actor, err := auth.Authenticate(ctx, res.Token)
			Expect(err).NotTo(HaveOccurred())
			Expect(auth.Heartbeat(ctx, actor)).To(Succeed())

			now.Advance(4 * time.Minute)
			_, err = auth.ValidateToken(ctx, res.Token)
			Expect(err).NotTo(HaveOccurred())

			now.Advance(6 * time.Minute)
			_, err = auth.Authenticate(ctx, res.Token)
			Expect(codeOf(err)).To(Equal("SESSION_TIMEOUT"))
			Expect(events.types()).NotTo(BeEmpty())
		})

		It("revokes the token on logout", func() {
			createClerk(model.Permissions{})
			res, err := login("clerk@example.com", "secret1")
			Expect(err).NotTo(HaveOccurred())
			actor, err := auth.Authenticate(ctx, res.Token)
			Expect(err).NotTo(HaveOccurred())

			Expect(auth.Logout(ctx, actor)).To(Succeed())
			_, err = auth.Authenticate(ctx, res.Token)
			Expect(apperror.KindOf(err)).To(Equal(apperror.KindUnauthenticated))
		})

		It("locks out deactivated users", func() {
			resp := createClerk(model.Permissions{})
			res, err := login("clerk@example.com", "secret1")
			Expect(err).NotTo(HaveOccurred())

			off := false
			_, err = userSv.UpdateUser(ctx, boss, resp.ID, &service.UpdateUserRequest{IsActive: &off})
			Expect(err).NotTo(HaveOccurred())

			_, err = auth.Authenticate(ctx, res.Token)
			Expect(apperror.KindOf(err)).To(Equal(apperror.KindUnauthenticated))
			_, err = login("clerk@example.com", "secret1")
			Expect(codeOf(err)).To(Equal("USER_INACTIVE"))
		})

		It("changes the password with the old one", func() {
			createClerk(model.Permissions{})
			err := auth.ResetPassword(ctx, &service.ResetPasswordRequest{
				Email: "clerk@example.com", OldPassword: "nope", NewPassword: "secret2",
			})
			Expect(codeOf(err)).To(Equal("WRONG_PASSWORD"))

			Expect(auth.ResetPassword(ctx, &service.ResetPasswordRequest{
				Email: "clerk@example.com", OldPassword: "secret1", NewPassword: "secret2",
			})).To(Succeed())
			_, err = login("clerk@example.com", "secret2")
			Expect(err).NotTo(HaveOccurred())
		})

		It("lets operators set a password", func() {
			createClerk(model.Permissions{})
			Expect(userSv.SetPassword(ctx, "clerk@example.com", "fresh-pass")).To(Succeed())
			_, err := login("clerk@example.com", "fresh-pass")
			Expect(err).NotTo(HaveOccurred())

			Expect(apperror.KindOf(userSv.SetPassword(ctx, "ghost@example.com", "fresh-pass"))).To(Equal(apperror.KindNotFound))
		})

		It("rejects a token for a deleted user", func() {
			resp := createClerk(model.Permissions{})
			res, err := login("clerk@example.com", "secret1")
			Expect(err).NotTo(HaveOccurred())
			Expect(userSv.DeleteUser(ctx, boss, resp.ID)).To(Succeed())

			_, err = auth.Authenticate(ctx, res.Token)
			Expect(apperror.KindOf(err)).To(Equal(apperror.KindUnauthenticated))
		})
	})
})
