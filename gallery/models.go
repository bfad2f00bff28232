package gallery

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"time"

	auth "github.com/gallery-collective/go-gallery-auth"
	validation "github.com/go-ozzo/ozzo-validation"
)

// Text accepts JSON strings, numbers and null. Numeric fields such as
// year_created or price come back as either depending on the serializer.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*t = Text(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*t = Text(n.String())
	return nil
}

func (t Text) String() string { return string(t) }

// Int returns the numeric value, ok is false when t is not an integer.
func (t Text) Int() (int, bool) {
	n, err := strconv.Atoi(string(t))
	return n, err == nil
}

type User struct {
	ID        auth.SubjectID `json:"id"`
	Username  string         `json:"username"`
	Email     string         `json:"email,omitempty"`
	FirstName string         `json:"first_name,omitempty"`
	LastName  string         `json:"last_name,omitempty"`
}

type Artist struct {
	ID           auth.SubjectID `json:"id"`
	User         *User          `json:"user,omitempty"`
	Bio          string         `json:"bio,omitempty"`
	ProfileImage string         `json:"profile_image,omitempty"`
}

// Username returns the username of the linked account, if any.
func (a *Artist) Username() string {
	if a == nil || a.User == nil {
		return ""
	}
	return a.User.Username
}

// ArtistRef is the artist field of artworks and events. List endpoints may
// send a display string or an id where detail endpoints nest the artist.
type ArtistRef struct {
	Artist *Artist
	Name   string
}

func (r *ArtistRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var artist Artist
		if err := json.Unmarshal(data, &artist); err != nil {
			return err
		}
		r.Artist = &artist
		r.Name = artist.Username()
		return nil
	}

	var name Text
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	r.Artist = nil
	r.Name = name.String()
	return nil
}

func (r ArtistRef) MarshalJSON() ([]byte, error) {
	if r.Artist != nil {
		return json.Marshal(r.Artist)
	}
	return json.Marshal(r.Name)
}

// OwnerID is the user id of the artist account, empty when the artist
// was not nested.
func (r ArtistRef) OwnerID() string {
	if r.Artist == nil || r.Artist.User == nil {
		return ""
	}
	return r.Artist.User.ID.String()
}

type Artwork struct {
	ID          auth.SubjectID `json:"id"`
	Title       string         `json:"title"`
	Artist      ArtistRef      `json:"artist"`
	YearCreated Text           `json:"year_created,omitempty"`
	Medium      string         `json:"medium,omitempty"`
	Dimensions  string         `json:"dimensions,omitempty"`
	Description string         `json:"description,omitempty"`
	Image       string         `json:"image,omitempty"`
	Price       Text           `json:"price,omitempty"`
}

// OwnerID implements auth.OwnedResource.
func (a Artwork) OwnerID() string {
	return a.Artist.OwnerID()
}

type Event struct {
	ID          auth.SubjectID `json:"id"`
	Title       string         `json:"title"`
	Artist      ArtistRef      `json:"artist"`
	Description string         `json:"description,omitempty"`
	Date        string         `json:"date,omitempty"`
	Time        string         `json:"time,omitempty"`
	Location    string         `json:"location,omitempty"`
	Image       string         `json:"image,omitempty"`
}

// OwnerID implements auth.OwnedResource.
func (e Event) OwnerID() string {
	return e.Artist.OwnerID()
}

var (
	_ auth.OwnedResource = Artwork{}
	_ auth.OwnedResource = Event{}
)

// Upload is a file sent in a multipart body.
type Upload struct {
	Filename string
	Content  io.Reader
}

// ArtworkInput is the form used to create or update an artwork. Image is
// required on create and optional on update.
type ArtworkInput struct {
	Title       string  `json:"title" form:"title"`
	YearCreated string  `json:"year_created" form:"year_created"`
	Medium      string  `json:"medium" form:"medium"`
	Dimensions  string  `json:"dimensions" form:"dimensions"`
	Description string  `json:"description" form:"description"`
	Image       *Upload `json:"-" form:"-"`
}

func (in ArtworkInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.YearCreated, validation.By(isYear)),
	)
}

func (in ArtworkInput) fields() [][2]string {
	return [][2]string{
		{"title", in.Title},
		{"year_created", in.YearCreated},
		{"medium", in.Medium},
		{"dimensions", in.Dimensions},
		{"description", in.Description},
	}
}

// EventInput is the form used to create or update an event.
type EventInput struct {
	Title       string  `json:"title" form:"title"`
	Description string  `json:"description" form:"description"`
	Date        string  `json:"date" form:"date"`
	Time        string  `json:"time" form:"time"`
	Location    string  `json:"location" form:"location"`
	Image       *Upload `json:"-" form:"-"`
}

func (in EventInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Date, validation.Required, validation.Date("2006-01-02")),
		validation.Field(&in.Time, validation.By(isClock)),
		validation.Field(&in.Location, validation.Required),
	)
}

func (in EventInput) fields() [][2]string {
	return [][2]string{
		{"title", in.Title},
		{"description", in.Description},
		{"date", in.Date},
		{"time", in.Time},
		{"location", in.Location},
	}
}

var errImageRequired = errors.New("image: cannot be blank")

func isYear(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := strconv.Atoi(s); err != nil {
		return errors.New("must be a year")
	}
	return nil
}

func isClock(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	for _, layout := range []string{"15:04", "15:04:05"} {
		if _, err := time.Parse(layout, s); err == nil {
			return nil
		}
	}
	return errors.New("must be a time of day (HH:MM)")
}
