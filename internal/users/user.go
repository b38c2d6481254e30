package users

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// User is a person who may be granted access to inventory.
type User struct {
	ID        uint64  `json:"id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	BannerID  uint32  `json:"banner_id"`
	Email     *string `json:"email"`
}

// Validate checks the fields a client supplies. ID is assigned by the
// database and is not validated.
func (u *User) Validate() error {
	return validation.ValidateStruct(u,
		validation.Field(&u.FirstName, validation.Required, validation.Length(1, 255)),
		validation.Field(&u.LastName, validation.Required, validation.Length(1, 255)),
		validation.Field(&u.BannerID, validation.Required),
		validation.Field(&u.Email, validation.NilOrNotEmpty, validation.Length(3, 255), is.EmailFormat),
	)
}
