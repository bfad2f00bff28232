package controller

import (
	"errors"
	"net/http"

	auth "github.com/gallery-collective/go-gallery-auth"
	"github.com/gallery-collective/go-gallery-auth/gallery"
	"github.com/gallery-collective/go-gallery-auth/middleware/guard"
	"github.com/gofiber/fiber/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
)

type Routes struct {
	Session  string
	Login    string
	Logout   string
	Register string
	Artists  string
	Artworks string
	Events   string
}

// SessionController exposes the session lifecycle and the artwork and
// event resources over JSON routes.
type SessionController struct {
	Logger   auth.Logger
	Identity *auth.IdentityContext
	Gallery  *gallery.Client
	Routes   *Routes
	// Guard is the base configuration of the guards on protected routes.
	// Source is always the controller Identity.
	Guard guard.Config
}

type SessionControllerOption func(*SessionController) *SessionController

func WithLogger(logger auth.Logger) SessionControllerOption {
	return func(c *SessionController) *SessionController {
		if logger != nil {
			c.Logger = logger
		}
		return c
	}
}

func WithRoutes(routes *Routes) SessionControllerOption {
	return func(c *SessionController) *SessionController {
		if routes != nil {
			c.Routes = routes
		}
		return c
	}
}

func WithGuardConfig(cfg guard.Config) SessionControllerOption {
	return func(c *SessionController) *SessionController {
		c.Guard = cfg
		return c
	}
}

func NewSessionController(identity *auth.IdentityContext, client *gallery.Client, opts ...SessionControllerOption) *SessionController {
	c := &SessionController{
		Logger:   auth.NopLogger{},
		Identity: identity,
		Gallery:  client,
		Routes: &Routes{
			Session:  "/session",
			Login:    "/login",
			Logout:   "/logout",
			Register: "/register",
			Artists:  "/artists",
			Artworks: "/artworks",
			Events:   "/events",
		},
	}

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Identity == nil {
		panic("Missing IdentityContext in session controller...")
	}

	if c.Gallery == nil {
		panic("Missing gallery client in session controller...")
	}

	c.Guard.Source = c.Identity
	return c
}

// RegisterRoutes mounts every route on app.
func (s *SessionController) RegisterRoutes(app fiber.Router) {
	resolved := guard.RequireResolved(s.Guard)

	app.Get(s.Routes.Session, resolved, s.SessionShow).Name("session.get")
	app.Post(s.Routes.Login, s.LoginPost).Name("login.post")
	app.Post(s.Routes.Logout, s.LogoutPost).Name("logout.post")
	app.Post(s.Routes.Register, s.RegisterPost).Name("register.post")

	// :id is the user id of the artist account, as in the gallery API
	profile := guard.New(s.Guard, guard.Authenticated, guard.Owner(s.profileOwner))
	app.Put(s.Routes.Artists+"/:id", profile, s.ArtistProfileImageUpdate).Name("artists.profile_image.update")

	item := s.Routes.Artworks + "/:id"

	app.Get(s.Routes.Artworks, s.ArtworkIndex).Name("artworks.index")
	app.Get(item, s.ArtworkShow).Name("artworks.show")
	app.Post(s.Routes.Artworks, guard.RequireArtist(s.Guard), s.ArtworkCreate).Name("artworks.create")

	owner := guard.New(s.Guard, guard.Authenticated, guard.Artist, guard.Owner(s.artworkOwner))
	app.Put(item, owner, s.ArtworkUpdate).Name("artworks.update")
	app.Delete(item, owner, s.ArtworkDelete).Name("artworks.delete")

	event := s.Routes.Events + "/:id"

	app.Get(s.Routes.Events, s.EventIndex).Name("events.index")
	app.Get(event, s.EventShow).Name("events.show")
	app.Post(s.Routes.Events, guard.RequireArtist(s.Guard), s.EventCreate).Name("events.create")

	eventOwner := guard.New(s.Guard, guard.Authenticated, guard.Artist, guard.Owner(s.eventOwner))
	app.Put(event, eventOwner, s.EventUpdate).Name("events.update")
	app.Delete(event, eventOwner, s.EventDelete).Name("events.delete")
}

func (s *SessionController) SessionShow(ctx *fiber.Ctx) error {
	return ctx.JSON(guard.IdentityFrom(ctx))
}

func (s *SessionController) LoginPost(ctx *fiber.Ctx) error {
	payload := auth.LoginCredentials{}
	if err := ctx.BodyParser(&payload); err != nil {
		s.Logger.Error("login parse payload", "error", err)
		return s.errorResponse(ctx, fiber.ErrBadRequest)
	}

	if _, err := s.Identity.Login(ctx.UserContext(), payload); err != nil {
		return s.errorResponse(ctx, err)
	}

	return ctx.JSON(s.Identity.Current())
}

func (s *SessionController) LogoutPost(ctx *fiber.Ctx) error {
	if err := s.Identity.Logout(ctx.UserContext()); err != nil {
		return s.errorResponse(ctx, err)
	}
	return ctx.JSON(s.Identity.Current())
}

func (s *SessionController) RegisterPost(ctx *fiber.Ctx) error {
	payload := auth.RegistrationProfile{}
	if err := ctx.BodyParser(&payload); err != nil {
		s.Logger.Error("register parse payload", "error", err)
		return s.errorResponse(ctx, fiber.ErrBadRequest)
	}

	ack, err := s.Identity.Register(ctx.UserContext(), payload)
	if err != nil {
		return s.errorResponse(ctx, err)
	}

	return ctx.Status(fiber.StatusCreated).JSON(ack)
}

// ArtistProfileImageUpdate replaces the profile image of the signed in
// artist with the multipart profile_image part.
func (s *SessionController) ArtistProfileImageUpdate(ctx *fiber.Ctx) error {
	image, closeFn, err := formUpload(ctx, "profile_image")
	if err != nil {
		return s.errorResponse(ctx, err)
	}
	defer closeFn()

	upload := gallery.Upload{}
	if image != nil {
		upload = *image
	}

	artist, err := s.Gallery.Artists.UpdateProfileImage(ctx.UserContext(), ctx.Params("id"), upload)
	if err != nil {
		return s.errorResponse(ctx, err)
	}
	return ctx.JSON(artist)
}

func (s *SessionController) profileOwner(ctx *fiber.Ctx) (string, error) {
	return ctx.Params("id"), nil
}

func (s *SessionController) ArtworkIndex(ctx *fiber.Ctx) error {
	artworks, err := s.Gallery.Artworks.List(ctx.UserContext())
	if err != nil {
		return s.errorResponse(ctx, err)
	}
	return ctx.JSON(artworks)
}

func (s *SessionController) ArtworkShow(ctx *fiber.Ctx) error {
	artwork, err := s.Gallery.Artworks.Get(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return s.errorResponse(ctx, err)
	}
	return ctx.JSON(artwork)
}

func (s *SessionController) ArtworkCreate(ctx *fiber.Ctx) error {
	input, closeFn, err := artworkInput(ctx)
	if err != nil {
		return s.errorResponse(ctx, err)
	}
	defer closeFn()

	artwork, err := s.Gallery.Artworks.Create(ctx.UserContext(), input)
	if err != nil {
		return s.errorResponse(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(artwork)
}

func (s *SessionController) ArtworkUpdate(ctx *fiber.Ctx) error {
	input, closeFn, err := artworkInput(ctx)
	if err != nil {
		return s.errorResponse(ctx, err)
	}
	defer closeFn()

	artwork, err := s.Gallery.Artworks.Update(ctx.UserContext(), ctx.Params("id"), input)
	if err != nil {
		return s.errorResponse(ctx, err)
	}
	return ctx.JSON(artwork)
}

func (s *SessionController) ArtworkDelete(ctx *fiber.Ctx) error {
	if err := s.Gallery.Artworks.Delete(ctx.UserContext(), ctx.Params("id")); err != nil {
		return s.errorResponse(ctx, err)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

// artworkOwner loads the addressed artwork for the owner guard.
func (s *SessionController) artworkOwner(ctx *fiber.Ctx) (string, error) {
	artwork, err := s.Gallery.Artworks.Get(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return "", err
	}
	return artwork.OwnerID(), nil
}

func (s *SessionController) EventIndex(ctx *fiber.Ctx) error {
	events, err := s.Gallery.Events.List(ctx.UserContext())
	if err != nil {
		return s.errorResponse(ctx, err)
	}
	return ctx.JSON(events)
}

func (s *SessionController) EventShow(ctx *fiber.Ctx) error {
	event, err := s.Gallery.Events.Get(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return s.errorResponse(ctx, err)
	}
	return ctx.JSON(event)
}

func (s *SessionController) EventCreate(ctx *fiber.Ctx) error {
	input, closeFn, err := eventInput(ctx)
	if err != nil {
		return s.errorResponse(ctx, err)
	}
	defer closeFn()

	event, err := s.Gallery.Events.Create(ctx.UserContext(), input)
	if err != nil {
		return s.errorResponse(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(event)
}

func (s *SessionController) EventUpdate(ctx *fiber.Ctx) error {
	input, closeFn, err := eventInput(ctx)
	if err != nil {
		return s.errorResponse(ctx, err)
	}
	defer closeFn()

	event, err := s.Gallery.Events.Update(ctx.UserContext(), ctx.Params("id"), input)
	if err != nil {
		return s.errorResponse(ctx, err)
	}
	return ctx.JSON(event)
}

func (s *SessionController) EventDelete(ctx *fiber.Ctx) error {
	if err := s.Gallery.Events.Delete(ctx.UserContext(), ctx.Params("id")); err != nil {
		return s.errorResponse(ctx, err)
	}
	return ctx.SendStatus(fiber.StatusNoContent)
}

func (s *SessionController) eventOwner(ctx *fiber.Ctx) (string, error) {
	event, err := s.Gallery.Events.Get(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return "", err
	}
	return event.OwnerID(), nil
}

func (s *SessionController) errorResponse(ctx *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return ctx.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
	}

	status, body := auth.ErrorPayload(err)

	details := ""
	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && len(richErr.Metadata) > 0 {
		details = print.MaybePrettyJSON(richErr.Metadata)
	}

	if status >= http.StatusInternalServerError {
		s.Logger.Error("request failed", "path", ctx.Path(), "status", status, "error", err, "details", details)
	} else {
		s.Logger.Info("request rejected", "path", ctx.Path(), "status", status, "error", err, "details", details)
	}
	return ctx.Status(status).JSON(body)
}

func artworkInput(ctx *fiber.Ctx) (gallery.ArtworkInput, func(), error) {
	input := gallery.ArtworkInput{}
	if err := ctx.BodyParser(&input); err != nil {
		return input, func() {}, fiber.ErrBadRequest
	}

	image, closeFn, err := formUpload(ctx, "image")
	input.Image = image
	return input, closeFn, err
}

func eventInput(ctx *fiber.Ctx) (gallery.EventInput, func(), error) {
	input := gallery.EventInput{}
	if err := ctx.BodyParser(&input); err != nil {
		return input, func() {}, fiber.ErrBadRequest
	}

	image, closeFn, err := formUpload(ctx, "image")
	input.Image = image
	return input, closeFn, err
}

// formUpload opens the optional file part. The gallery client decides
// whether a missing file is an error.
func formUpload(ctx *fiber.Ctx, part string) (*gallery.Upload, func(), error) {
	noop := func() {}

	header, err := ctx.FormFile(part)
	if err != nil {
		return nil, noop, nil
	}

	file, err := header.Open()
	if err != nil {
		return nil, noop, fiber.ErrBadRequest
	}

	return &gallery.Upload{Filename: header.Filename, Content: file}, func() { _ = file.Close() }, nil
}
