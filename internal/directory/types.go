package directory

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strconv"
	"strings"
)

// User mirrors a record served by /users. Only ID, Name and Email are
// rewritten locally; everything else passes through as received.
//
// A decoded user keeps the record verbatim, so fields of unexpected types and
// keys this package does not know survive a round trip. The typed fields
// below are a best-effort view of that record for display.
type User struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Address  Address `json:"address"`
	Phone    string  `json:"phone"`
	Website  string  `json:"website"`
	Company  Company `json:"company"`

	// raw is the record as received, shared between snapshot copies and
	// never modified. Nil for users built in Go.
	raw map[string]json.RawMessage
}

// Address is the postal block of a user record.
type Address struct {
	Street  string `json:"street"`
	Suite   string `json:"suite"`
	City    string `json:"city"`
	Zipcode string `json:"zipcode"`
	Geo     Geo    `json:"geo"`
}

// Geo holds the coordinates attached to an address.
type Geo struct {
	Lat Coordinate `json:"lat"`
	Lng Coordinate `json:"lng"`
}

// Company describes the employer block of a user record.
type Company struct {
	Name        string `json:"name"`
	CatchPhrase string `json:"catchPhrase"`
	BS          string `json:"bs"`
}

var knownUserKeys = map[string]bool{
	"id": true, "name": true, "username": true, "email": true,
	"address": true, "phone": true, "website": true, "company": true,
}

// userWire decodes the display view without ever rejecting a record for
// the type of a field.
type userWire struct {
	ID       looseInt    `json:"id"`
	Name     text        `json:"name"`
	Username text        `json:"username"`
	Email    text        `json:"email"`
	Address  addressWire `json:"address"`
	Phone    text        `json:"phone"`
	Website  text        `json:"website"`
	Company  companyWire `json:"company"`
}

type addressWire struct {
	Street  text `json:"street"`
	Suite   text `json:"suite"`
	City    text `json:"city"`
	Zipcode text `json:"zipcode"`
	Geo     Geo  `json:"geo"`
}

type companyWire struct {
	Name        text `json:"name"`
	CatchPhrase text `json:"catchPhrase"`
	BS          text `json:"bs"`
}

// UnmarshalJSON accepts any JSON object. Fields whose type does not fit the
// view are left empty in the view and kept verbatim in the record.
func (u *User) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var w userWire
	if err := json.Unmarshal(data, &w); err != nil {
		var typeErr *json.UnmarshalTypeError
		if !errors.As(err, &typeErr) {
			return err
		}
	}

	*u = User{
		ID:       int(w.ID),
		Name:     string(w.Name),
		Username: string(w.Username),
		Email:    string(w.Email),
		Address: Address{
			Street:  string(w.Address.Street),
			Suite:   string(w.Address.Suite),
			City:    string(w.Address.City),
			Zipcode: string(w.Address.Zipcode),
			Geo:     w.Address.Geo,
		},
		Phone:   string(w.Phone),
		Website: string(w.Website),
		Company: Company{
			Name:        string(w.Company.Name),
			CatchPhrase: string(w.Company.CatchPhrase),
			BS:          string(w.Company.BS),
		},
		raw: raw,
	}
	return nil
}

// MarshalJSON writes a decoded record back verbatim with the local id, name
// and email laid over it. Users built in Go marshal their typed fields.
func (u User) MarshalJSON() ([]byte, error) {
	if u.raw == nil {
		type plain User
		return json.Marshal(plain(u))
	}

	out := make(map[string]json.RawMessage, len(u.raw)+3)
	maps.Copy(out, u.raw)

	var id looseInt
	if !decodesTo(u.raw["id"], &id) || int(id) != u.ID {
		out["id"] = json.RawMessage(strconv.Itoa(u.ID))
	}
	for key, value := range map[string]string{"name": u.Name, "email": u.Email} {
		var t text
		if decodesTo(u.raw[key], &t) && string(t) == value {
			continue
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		out[key] = encoded
	}
	return json.Marshal(out)
}

// Extras returns the record's top-level keys outside the known user schema.
func (u User) Extras() map[string]json.RawMessage {
	extras := make(map[string]json.RawMessage)
	for key, value := range u.raw {
		if !knownUserKeys[key] {
			extras[key] = value
		}
	}
	return extras
}

func decodesTo(data json.RawMessage, dest any) bool {
	return data != nil && json.Unmarshal(data, dest) == nil
}

// text is a scalar read as display text. Strings decode as-is, other
// values keep their compact JSON form and null is empty.
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*t = ""
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = text(s)
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return err
		}
		*t = text(buf.String())
	}
	return nil
}

// looseInt reads a number or a numeric string; anything else is zero.
type looseInt int

func (n *looseInt) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v != float64(int(v)) {
		*n = 0
		return nil
	}
	*n = looseInt(v)
	return nil
}

// Draft is the request body for create and update calls.
type Draft struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Coordinate is a latitude or longitude. The public directory sends these
// as quoted strings, so both strings and bare numbers decode.
type Coordinate float64

// UnmarshalJSON accepts "12.5" and 12.5. Anything unparsable reads as zero;
// the record keeps the original value.
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = 0
		return nil
	}
	raw := string(data)
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*c = 0
			return nil
		}
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		*c = 0
		return nil
	}
	*c = Coordinate(v)
	return nil
}

// MarshalJSON writes the coordinate back as a string, matching the wire form.
func (c Coordinate) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatFloat(float64(c), 'f', -1, 64))
}

// Float returns the coordinate as a plain float64.
func (c Coordinate) Float() float64 {
	return float64(c)
}

// Reply carries the status code and raw body of a mutating call. The client
// never judges whether a status means success; callers decide.
type Reply struct {
	Status    int
	Body      []byte
	RequestID string
}

// Decode unmarshals the reply body into dest.
func (r Reply) Decode(dest any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return fmt.Errorf("decode response: empty body")
	}
	if err := json.Unmarshal(r.Body, dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
