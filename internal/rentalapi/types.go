package rentalapi

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// LoginResult is the identity and token pair returned by either login endpoint.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	Role         string
	UserID       string
	Username     string
}

// Registration is the payload accepted by the three register endpoints.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

// Profile is the owner profile.
type Profile struct {
	ID       string
	Username string
	Email    string
	Phone    string
	Address  string
}

// Tenant is one row of the admin tenant listing.
type Tenant struct {
	ID       string
	Username string
	Email    string
	Role     string
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Tokens struct {
		Access  string `json:"access"`
		Refresh string `json:"refresh"`
	} `json:"tokens"`
	Role     string    `json:"role"`
	UserID   flexID    `json:"user_id"`
	Username string    `json:"username"`
	User     *userBody `json:"user"`
}

type userBody struct {
	ID       flexID `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// result flattens either the flat or the nested {user:{...}} shape.
func (r loginResponse) result() LoginResult {
	out := LoginResult{
		AccessToken:  r.Tokens.Access,
		RefreshToken: r.Tokens.Refresh,
		Role:         r.Role,
		UserID:       string(r.UserID),
		Username:     r.Username,
	}
	if r.User != nil {
		if out.Role == "" {
			out.Role = r.User.Role
		}
		if out.UserID == "" {
			out.UserID = string(r.User.ID)
		}
		if out.Username == "" {
			out.Username = r.User.Username
		}
	}
	return out
}

type profileBody struct {
	ID       flexID `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type tenantBody struct {
	ID       flexID `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

// flexID accepts identifiers encoded as JSON strings or numbers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if i, err := n.Int64(); err == nil {
		*f = flexID(strconv.FormatInt(i, 10))
		return nil
	}
	*f = flexID(n.String())
	return nil
}
