package graph

import (
	"encoding/json"
	"time"

	"github.com/tech-arch1tect/paygate/services/refreshtoken"
	"github.com/tech-arch1tect/paygate/services/user"
)

type userResolver struct {
	u *user.User
}

func newUserResolver(u *user.User) *userResolver {
	if u == nil {
		return nil
	}
	return &userResolver{u: u}
}

func (r *userResolver) ID() int32 { return int32(r.u.ID) }
func (r *userResolver) Email() string { return r.u.Email }
func (r *userResolver) Firstname() string { return r.u.Firstname }
func (r *userResolver) Lastname() string { return r.u.Lastname }
func (r *userResolver) Username() string { return r.u.Username }
func (r *userResolver) Phone() string { return r.u.Phone }
func (r *userResolver) Country() string { return r.u.Country }
func (r *userResolver) State() string { return r.u.State }
func (r *userResolver) Role() string { return string(r.u.Role) }
func (r *userResolver) Status() string { return string(r.u.Status) }
func (r *userResolver) Gender() string { return string(r.u.Gender) }
func (r *userResolver) FcmToken() *string { return r.u.FcmToken }
func (r *userResolver) Location() *string { return r.u.Location }
func (r *userResolver) StarRating() *string { return r.u.StarRating }
func (r *userResolver) CreatedAt() string { return r.u.CreatedAt.UTC().Format(time.RFC3339) }
func (r *userResolver) UpdatedAt() string { return r.u.UpdatedAt.UTC().Format(time.RFC3339) }

type authPayloadResolver struct {
	pair *refreshtoken.TokenPair
	user *user.User
}

func (r *authPayloadResolver) AccessToken() string { return r.pair.AccessToken }
func (r *authPayloadResolver) RefreshToken() string { return r.pair.RefreshToken }
func (r *authPayloadResolver) User() *userResolver { return newUserResolver(r.user) }

type verificationInitiated struct {
	message string
	id      string
}

func (r *verificationInitiated) Success() bool { return true }
func (r *verificationInitiated) Message() string { return r.message }
func (r *verificationInitiated) ID() string { return r.id }

type verificationResult struct {
	message string
	data    any
}

func (r *verificationResult) Success() bool { return true }
func (r *verificationResult) Message() string { return r.message }

func (r *verificationResult) Data() *JSON {
	if r.data == nil {
		return nil
	}
	return &JSON{Value: r.data}
}

// JSON carries arbitrary provider payloads through the schema untouched.
type JSON struct {
	Value any
}

func (JSON) ImplementsGraphQLType(name string) bool {
	return name == "JSON"
}

func (j *JSON) UnmarshalGraphQL(input interface{}) error {
	j.Value = input
	return nil
}

func (j JSON) MarshalJSON() ([]byte, error) {
	return json.Marshal(j.Value)
}

type phoneNumberInput struct {
	Prefix string
	Number string
}

func (p *phoneNumberInput) toPhone() *user.PhoneInput {
	if p == nil {
		return nil
	}
	return &user.PhoneInput{Prefix: p.Prefix, Number: p.Number}
}

type userInput struct {
	Email     string
	Firstname string
	Lastname  string
	Username  string
	Password  string
	Phone     phoneNumberInput
	Country   string
	State     string
	Role      *string
	Gender    string
	FcmToken  *string
	Location  *string
}

type userUpdateInput struct {
	Email      *string
	Firstname  *string
	Lastname   *string
	Username   *string
	Phone      *phoneNumberInput
	Country    *string
	State      *string
	Role       *string
	Status     *string
	Gender     *string
	FcmToken   *string
	Location   *string
	StarRating *string
}

func (in *userInput) toCreate() user.CreateInput {
	out := user.CreateInput{
		Email:     in.Email,
		Firstname: in.Firstname,
		Lastname:  in.Lastname,
		Username:  in.Username,
		Password:  in.Password,
		Phone:     in.Phone.toPhone(),
		Country:   in.Country,
		State:     in.State,
		Gender:    user.Gender(in.Gender),
		FcmToken:  in.FcmToken,
		Location:  in.Location,
	}
	if in.Role != nil {
		out.Role = user.Role(*in.Role)
	}
	return out
}

func (in *userUpdateInput) toUpdate() user.UpdateInput {
	out := user.UpdateInput{
		Email:      in.Email,
		Firstname:  in.Firstname,
		Lastname:   in.Lastname,
		Username:   in.Username,
		Phone:      in.Phone.toPhone(),
		Country:    in.Country,
		State:      in.State,
		FcmToken:   in.FcmToken,
		Location:   in.Location,
		StarRating: in.StarRating,
	}
	if in.Role != nil {
		role := user.Role(*in.Role)
		out.Role = &role
	}
	if in.Status != nil {
		status := user.Status(*in.Status)
		out.Status = &status
	}
	if in.Gender != nil {
		gender := user.Gender(*in.Gender)
		out.Gender = &gender
	}
	return out
}
