package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// HTTPController exposes the auth use cases as a JSON API. It owns no
// business rules: request parsing, command dispatch, and error-to-status
// mapping only.
type HTTPController struct {
	Repo      RepositoryManager
	Lifecycle *TokenLifecycle
	Users     *Authenticator[*User]
	Barbers   *Authenticator[*Barber]
	Sessions  *SessionService
	Notifier  Notifier
	Config    Config
	Logger    Logger
	Activity  ActivitySink
}

// RegisterRoutes mounts every route on the app. Barber CRUD sits behind the
// barber session middleware; everything else is public.
func (c *HTTPController) RegisterRoutes(app *fiber.App) {
	app.Post("/users", c.RegisterUser)
	app.Post("/users/verify-email", c.VerifyUserEmail)
	app.Post("/users/resend-verification", c.ResendUserEmailValidation)
	app.Post("/password/forgot", c.ForgotPassword)
	app.Post("/password/reset", c.ResetPassword)
	app.Post("/login-code", c.RequestLoginCode)
	app.Post("/sessions", c.CreateSession)
	app.Post("/sessions/code", c.CreateSessionWithCode)
	// outside the /barbers prefix so it never crosses the session middleware
	app.Post("/sessions/barber", c.CreateBarberSession)

	barbersGroup := app.Group("/barbers", c.RequireBarberSession)
	barbersGroup.Post("/", c.CreateBarber)
	barbersGroup.Get("/", c.ListBarbers)
	barbersGroup.Get("/:id", c.GetBarber)
	barbersGroup.Patch("/:id", c.UpdateBarber)
	barbersGroup.Delete("/:id", c.DeleteBarber)
}

// RequireBarberSession authenticates the bearer token and enforces the
// barber role guard. The guard runs on every request; role is never cached.
func (c *HTTPController) RequireBarberSession(ctx *fiber.Ctx) error {
	header := ctx.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(header, "Bearer ") {
		return c.unauthorized(ctx)
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return c.unauthorized(ctx)
	}

	claims, err := c.Sessions.Validate(token)
	if err != nil {
		return c.unauthorized(ctx)
	}

	if err := RequireBarberRole(claims); err != nil {
		return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid token type. Barber access required.",
		})
	}

	ctx.Locals("session", claims)

	return ctx.Next()
}

type createSessionPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

// CreateSession authenticates a user with email and password and returns a
// session token plus the user profile.
func (c *HTTPController) CreateSession(ctx *fiber.Ctx) error {
	payload := new(createSessionPayload)
	if err := ctx.BodyParser(payload); err != nil {
		return c.badRequest(ctx, "failed to parse body")
	}

	user, err := c.Users.AuthenticateWithPassword(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return c.fail(ctx, err)
	}

	token, err := c.Sessions.Generate(user)
	if err != nil {
		return c.fail(ctx, err)
	}

	return ctx.JSON(fiber.Map{"token": token, "user": user.Profile()})
}

// CreateSessionWithCode authenticates a user with a one-time login code.
func (c *HTTPController) CreateSessionWithCode(ctx *fiber.Ctx) error {
	payload := new(createSessionPayload)
	if err := ctx.BodyParser(payload); err != nil {
		return c.badRequest(ctx, "failed to parse body")
	}

	user, err := c.Users.AuthenticateWithCode(ctx.Context(), payload.Email, payload.Code)
	if err != nil {
		return c.fail(ctx, err)
	}

	token, err := c.Sessions.Generate(user)
	if err != nil {
		return c.fail(ctx, err)
	}

	return ctx.JSON(fiber.Map{"token": token, "user": user.Profile()})
}

// CreateBarberSession authenticates a barber with email and password.
func (c *HTTPController) CreateBarberSession(ctx *fiber.Ctx) error {
	payload := new(createSessionPayload)
	if err := ctx.BodyParser(payload); err != nil {
		return c.badRequest(ctx, "failed to parse body")
	}

	barber, err := c.Barbers.AuthenticateWithPassword(ctx.Context(), payload.Email, payload.Password)
	if err != nil {
		return c.fail(ctx, err)
	}

	token, err := c.Sessions.Generate(barber)
	if err != nil {
		return c.fail(ctx, err)
	}

	return ctx.JSON(fiber.Map{"token": token, "barber": barber.Profile()})
}

func (c *HTTPController) RegisterUser(ctx *fiber.Ctx) error {
	msg := RegisterUserMessage{}
	if err := ctx.BodyParser(&msg); err != nil {
		return c.badRequest(ctx, "failed to parse body")
	}

	var created *User
	msg.OnResponse = func(user *User) { created = user }

	handler := NewRegisterUserHandler(c.Repo, c.Lifecycle, c.Config).
		WithNotifier(c.Notifier).
		WithLogger(c.logger()).
		WithActivitySink(c.Activity)

	if err := handler.Execute(ctx.Context(), msg); err != nil {
		return c.fail(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(created.Profile())
}

func (c *HTTPController) VerifyUserEmail(ctx *fiber.Ctx) error {
	msg := VerifyUserEmailMessage{}
	if err := ctx.BodyParser(&msg); err != nil {
		return c.badRequest(ctx, "failed to parse body")
	}

	handler := NewVerifyUserEmailHandler(c.Repo, c.Lifecycle).
		WithLogger(c.logger()).
		WithActivitySink(c.Activity)

	if err := handler.Execute(ctx.Context(), msg); err != nil {
		return c.fail(ctx, err)
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

func (c *HTTPController) ResendUserEmailValidation(ctx *fiber.Ctx) error {
	msg := ResendUserEmailValidationMessage{}
	if err := ctx.BodyParser(&msg); err != nil {
		return c.badRequest(ctx, "failed to parse body")
	}

	handler := NewResendUserEmailValidationHandler(c.Repo, c.Lifecycle, c.Config).
		WithNotifier(c.Notifier).
		WithLogger(c.logger())

	if err := handler.Execute(ctx.Context(), msg); err != nil {
		return c.fail(ctx, err)
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

func (c *HTTPController) ForgotPassword(ctx *fiber.Ctx) error {
	msg := ForgotPasswordMessage{}
	if err := ctx.BodyParser(&msg); err != nil {
		return c.badRequest(ctx, "failed to parse body")
	}

	handler := NewForgotPasswordHandler(c.Repo, c.Lifecycle, c.Config).
		WithNotifier(c.Notifier).
		WithLogger(c.logger())

	if err := handler.Execute(ctx.Context(), msg); err != nil {
		return c.fail(ctx, err)
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

func (c *HTTPController) ResetPassword(ctx *fiber.Ctx) error {
	msg := ResetPasswordMessage{}
	if err := ctx.BodyParser(&msg); err != nil {
		return c.badRequest(ctx, "failed to parse body")
	}

	handler := NewResetPasswordHandler(c.Repo, c.Lifecycle).
		WithLogger(c.logger()).
		WithActivitySink(c.Activity)

	if err := handler.Execute(ctx.Context(), msg); err != nil {
		return c.fail(ctx, err)
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

func (c *HTTPController) RequestLoginCode(ctx *fiber.Ctx) error {
	msg := RequestLoginCodeMessage{}
	if err := ctx.BodyParser(&msg); err != nil {
		return c.badRequest(ctx, "failed to parse body")
	}

	handler := NewRequestLoginCodeHandler(c.Repo, c.Lifecycle).
		WithNotifier(c.Notifier).
		WithLogger(c.logger())

	if err := handler.Execute(ctx.Context(), msg); err != nil {
		return c.fail(ctx, err)
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

func (c *HTTPController) CreateBarber(ctx *fiber.Ctx) error {
	msg := CreateBarberMessage{}
	if err := ctx.BodyParser(&msg); err != nil {
		return c.badRequest(ctx, "failed to parse body")
	}

	var created *Barber
	msg.OnResponse = func(barber *Barber) { created = barber }

	handler := NewCreateBarberHandler(c.Repo).
		WithLogger(c.logger()).
		WithActivitySink(c.Activity)

	if err := handler.Execute(ctx.Context(), msg); err != nil {
		return c.fail(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(created.Profile())
}

func (c *HTTPController) GetBarber(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return c.badRequest(ctx, "invalid barber id")
	}

	var profile BarberProfile
	msg := GetBarberMessage{
		ID:         id,
		OnResponse: func(p BarberProfile) { profile = p },
	}

	handler := NewGetBarberHandler(c.Repo).WithLogger(c.logger())

	if err := handler.Execute(ctx.Context(), msg); err != nil {
		return c.fail(ctx, err)
	}

	return ctx.JSON(profile)
}

func (c *HTTPController) ListBarbers(ctx *fiber.Ctx) error {
	msg := ListBarbersMessage{
		Skip: ctx.QueryInt("skip"),
		Take: ctx.QueryInt("take"),
	}

	if raw := ctx.Query("is_active"); raw != "" {
		isActive := raw == "true" || raw == "1"
		msg.IsActive = &isActive
	}

	var profiles []BarberProfile
	msg.OnResponse = func(p []BarberProfile) { profiles = p }

	handler := NewListBarbersHandler(c.Repo).WithLogger(c.logger())

	if err := handler.Execute(ctx.Context(), msg); err != nil {
		return c.fail(ctx, err)
	}

	return ctx.JSON(profiles)
}

func (c *HTTPController) UpdateBarber(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return c.badRequest(ctx, "invalid barber id")
	}

	msg := UpdateBarberMessage{}
	if err := ctx.BodyParser(&msg); err != nil {
		return c.badRequest(ctx, "failed to parse body")
	}
	msg.ID = id

	var updated *Barber
	msg.OnResponse = func(barber *Barber) { updated = barber }

	handler := NewUpdateBarberHandler(c.Repo).
		WithLogger(c.logger()).
		WithActivitySink(c.Activity)

	if err := handler.Execute(ctx.Context(), msg); err != nil {
		return c.fail(ctx, err)
	}

	return ctx.JSON(updated.Profile())
}

func (c *HTTPController) DeleteBarber(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return c.badRequest(ctx, "invalid barber id")
	}

	handler := NewDeleteBarberHandler(c.Repo).
		WithLogger(c.logger()).
		WithActivitySink(c.Activity)

	if err := handler.Execute(ctx.Context(), DeleteBarberMessage{ID: id}); err != nil {
		return c.fail(ctx, err)
	}

	return ctx.SendStatus(fiber.StatusNoContent)
}

// fail translates a typed error into a transport response. The body carries
// the error's generic message only: internal logs keep the precise reason,
// the wire never distinguishes "wrong password" from "no such user".
func (c *HTTPController) fail(ctx *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	message := "internal server error"

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		status = statusForCategory(richErr.Category)
		message = richErr.Message
	}

	if status >= fiber.StatusInternalServerError {
		c.logger().Error("request failed: %v", err)
		message = "internal server error"
	}

	return ctx.Status(status).JSON(fiber.Map{"error": message})
}

func statusForCategory(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryAuth:
		return fiber.StatusUnauthorized
	case goerrors.CategoryNotFound:
		return fiber.StatusNotFound
	case goerrors.CategoryConflict:
		return fiber.StatusConflict
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

func (c *HTTPController) badRequest(ctx *fiber.Ctx, message string) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": message})
}

func (c *HTTPController) unauthorized(ctx *fiber.Ctx) error {
	return ctx.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Unauthorized"})
}

func (c *HTTPController) logger() Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return defLogger{}
}
