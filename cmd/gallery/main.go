package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	auth "github.com/gallery-collective/go-gallery-auth"
	"github.com/gallery-collective/go-gallery-auth/config"
	"github.com/gallery-collective/go-gallery-auth/controller"
	"github.com/gallery-collective/go-gallery-auth/gallery"
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-print"
)

const usage = `usage: gallery <command> [flags]

commands:
  login     -email <email> -password <password>
  logout
  register  -email -username -password -first-name -last-name [-artist]
  whoami
  artworks  [id]
  artists   [id [-image <file>]]
  events    [id]
  serve     [-addr host:port]
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "gallery:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(out, usage)
		return errors.New("missing command")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to init: %w", err)
	}
	defer a.Close()

	a.identity.Load(ctx)

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "login":
		return a.login(ctx, rest, out)
	case "logout":
		if err := a.identity.Logout(ctx); err != nil {
			return err
		}
		return printJSON(out, a.identity.Current())
	case "register":
		return a.register(ctx, rest, out)
	case "whoami":
		return printJSON(out, a.identity.Current())
	case "artworks":
		return a.artworks(ctx, rest, out)
	case "artists":
		return a.artists(ctx, rest, out)
	case "events":
		return a.events(ctx, rest, out)
	case "serve":
		return a.serve(ctx, rest)
	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) login(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", os.Getenv("GALLERY_PASSWORD"), "account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if _, err := a.identity.Login(ctx, auth.LoginCredentials{Identifier: *email, Password: *password}); err != nil {
		return err
	}
	return printJSON(out, a.identity.Current())
}

func (a *app) register(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	profile := auth.RegistrationProfile{}
	fs.StringVar(&profile.Email, "email", "", "account email")
	fs.StringVar(&profile.Username, "username", "", "username")
	fs.StringVar(&profile.Password, "password", "", "password")
	fs.StringVar(&profile.PasswordConfirmation, "password-confirmation", "", "password confirmation, defaults to -password")
	fs.StringVar(&profile.FirstName, "first-name", "", "first name")
	fs.StringVar(&profile.LastName, "last-name", "", "last name")
	fs.BoolVar(&profile.IsArtist, "artist", false, "register as an artist")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if profile.PasswordConfirmation == "" {
		profile.PasswordConfirmation = profile.Password
	}

	ack, err := a.identity.Register(ctx, profile)
	if err != nil {
		if verr, ok := auth.AsValidationError(err); ok {
			return printJSON(out, map[string]any{"fields": verr.Fields})
		}
		return err
	}
	return printJSON(out, ack)
}

func (a *app) artworks(ctx context.Context, args []string, out io.Writer) error {
	if len(args) > 0 {
		artwork, err := a.gallery.Artworks.Get(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(out, map[string]any{
			"artwork":  artwork,
			"can_edit": auth.CanEdit(a.identity.Current(), artwork),
		})
	}

	artworks, err := a.gallery.Artworks.List(ctx)
	if err != nil {
		return err
	}
	return printJSON(out, artworks)
}

// artists prints the directory, or one artist with their artworks and
// events. With -image the signed in artist replaces their profile image.
func (a *app) artists(ctx context.Context, args []string, out io.Writer) error {
	id := ""
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		id, args = args[0], args[1:]
	}

	fs := flag.NewFlagSet("artists", flag.ContinueOnError)
	image := fs.String("image", "", "new profile image, only for your own artist profile")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if id == "" && fs.NArg() > 0 {
		id = fs.Arg(0)
	}

	if id == "" {
		if *image != "" {
			return errors.New("artists: -image needs an artist id")
		}
		artists, err := a.gallery.Artists.List(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, artists)
	}

	artist, err := a.gallery.Artists.Get(ctx, id)
	if err != nil {
		return err
	}
	userID := artist.ID.String()
	if artist.User != nil {
		userID = artist.User.ID.String()
	}

	if *image != "" {
		return a.updateProfileImage(ctx, userID, *image, out)
	}

	artworks, err := a.gallery.Artists.Artworks(ctx, userID)
	if err != nil {
		return err
	}
	events, err := a.gallery.Artists.Events(ctx, userID)
	if err != nil {
		return err
	}
	return printJSON(out, map[string]any{
		"artist":   artist,
		"artworks": artworks,
		"events":   events,
		"is_self":  a.identity.Current().IsOwner(userID),
	})
}

// updateProfileImage uploads path as the profile image of the artist
// linked to userID. Only that user may do so.
func (a *app) updateProfileImage(ctx context.Context, userID, path string, out io.Writer) error {
	identity := a.identity.Current()
	if !identity.IsAuthenticated() {
		return errors.New("artists: log in to change a profile image")
	}
	if !identity.IsOwner(userID) {
		return fmt.Errorf("artists: user %s can not change the profile image of user %s", identity.UserID(), userID)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("artists: %w", err)
	}
	defer file.Close()

	artist, err := a.gallery.Artists.UpdateProfileImage(ctx, userID, gallery.Upload{
		Filename: filepath.Base(path),
		Content:  file,
	})
	if err != nil {
		return err
	}
	return printJSON(out, artist)
}

func (a *app) events(ctx context.Context, args []string, out io.Writer) error {
	if len(args) > 0 {
		event, err := a.gallery.Events.Get(ctx, args[0])
		if err != nil {
			return err
		}
		return printJSON(out, map[string]any{
			"event":    event,
			"can_edit": auth.CanEdit(a.identity.Current(), event),
		})
	}

	events, err := a.gallery.Events.List(ctx)
	if err != nil {
		return err
	}
	return printJSON(out, events)
}

func (a *app) serve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", a.cfg.Server.ListenAddr, "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	srv := fiber.New(fiber.Config{DisableStartupMessage: true})
	controller.NewSessionController(a.identity, a.gallery, controller.WithLogger(a.logger)).
		RegisterRoutes(srv)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", *addr)
		errCh <- srv.Listen(*addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		a.logger.Info("shutting down")
		return srv.Shutdown()
	}
}

func printJSON(out io.Writer, v any) error {
	_, err := fmt.Fprintln(out, print.MaybePrettyJSON(v))
	return err
}
