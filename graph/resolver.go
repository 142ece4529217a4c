package graph

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tech-arch1tect/paygate/middleware/auth"
	"github.com/tech-arch1tect/paygate/services/jwt"
	"github.com/tech-arch1tect/paygate/services/logging"
	"github.com/tech-arch1tect/paygate/services/refreshtoken"
	"github.com/tech-arch1tect/paygate/services/safehaven"
	"github.com/tech-arch1tect/paygate/services/user"
	"go.uber.org/zap"
)

type TokenIssuer interface {
	Issue(ctx context.Context, userID uint) (*refreshtoken.TokenPair, error)
	Revoke(ctx context.Context, userID uint) error
}

type IdentityProvider interface {
	SendOTP(ctx context.Context, identityType safehaven.IdentityType, number string) (*safehaven.OTPResponse, error)
	ValidateIdentity(ctx context.Context, identityType safehaven.IdentityType, identityID, otp string) (*safehaven.VerifyResponse, error)
	CreateSubAccount(ctx context.Context, req safehaven.SubAccountRequest) (*safehaven.SubAccountResponse, error)
}

// Resolver is the root of the schema; its methods serve both Query and
// Mutation fields.
type Resolver struct {
	users    *user.Service
	tokens   TokenIssuer
	provider IdentityProvider
	logger   *logging.Service
}

func NewResolver(users *user.Service, tokens TokenIssuer, provider IdentityProvider, logger *logging.Service) *Resolver {
	return &Resolver{
		users:    users,
		tokens:   tokens,
		provider: provider,
		logger:   logger.With(zap.String("component", "graphql")),
	}
}

func boolPtr(v bool) *bool {
	return &v
}

func requireIdentity(ctx context.Context) (*jwt.Identity, error) {
	identity := auth.IdentityFromContext(ctx)
	if identity == nil {
		return nil, errUnauthenticated
	}
	return identity, nil
}

func isAdmin(identity *jwt.Identity) bool {
	return identity != nil && identity.Role == string(user.RoleAdmin)
}

// requireOwnerOrAdmin lets callers act on their own record; any other
// record needs the ADMIN role.
func requireOwnerOrAdmin(ctx context.Context, userID int32) (*jwt.Identity, error) {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if userID <= 0 {
		return nil, NewUserError("User not found.")
	}
	if uint(userID) != identity.ID && !isAdmin(identity) {
		return nil, errForbidden
	}
	return identity, nil
}

func (r *Resolver) GetUser(ctx context.Context, args struct{ UserID int32 }) (*userResolver, error) {
	if _, err := requireOwnerOrAdmin(ctx, args.UserID); err != nil {
		return nil, err
	}

	u, err := r.users.Get(ctx, uint(args.UserID))
	if err != nil {
		return nil, toUserError(err)
	}
	return newUserResolver(u), nil
}

func (r *Resolver) GetUsers(ctx context.Context) (*[]*userResolver, error) {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if !isAdmin(identity) {
		return nil, errForbidden
	}

	users, err := r.users.List(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*userResolver, len(users))
	for i := range users {
		out[i] = newUserResolver(&users[i])
	}
	return &out, nil
}

func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}

	u, err := r.users.Get(ctx, identity.ID)
	if err != nil {
		return nil, toUserError(err)
	}
	return newUserResolver(u), nil
}

func (r *Resolver) CreateUser(ctx context.Context, args struct{ Input *userInput }) (*bool, error) {
	if args.Input == nil {
		return nil, NewUserError("Input is required.")
	}

	if args.Input.Role != nil && *args.Input.Role != string(user.RoleUser) && !isAdmin(auth.IdentityFromContext(ctx)) {
		return nil, errForbidden
	}

	if _, err := r.users.Create(ctx, args.Input.toCreate()); err != nil {
		return nil, toUserError(err)
	}
	return boolPtr(true), nil
}

func (r *Resolver) UpdateUser(ctx context.Context, args struct {
	UserID int32
	Input  *userUpdateInput
}) (*bool, error) {
	identity, err := requireOwnerOrAdmin(ctx, args.UserID)
	if err != nil {
		return nil, err
	}
	if args.Input == nil {
		return nil, NewUserError("Input is required.")
	}
	if (args.Input.Role != nil || args.Input.Status != nil) && !isAdmin(identity) {
		return nil, errForbidden
	}

	if _, err := r.users.Update(ctx, uint(args.UserID), args.Input.toUpdate()); err != nil {
		return nil, toUserError(err)
	}
	return boolPtr(true), nil
}

func (r *Resolver) DeleteUser(ctx context.Context, args struct{ UserID int32 }) (*bool, error) {
	if _, err := requireOwnerOrAdmin(ctx, args.UserID); err != nil {
		return nil, err
	}

	if err := r.users.Delete(ctx, uint(args.UserID)); err != nil {
		return nil, toUserError(err)
	}
	return boolPtr(true), nil
}

func (r *Resolver) UpdatePassword(ctx context.Context, args struct {
	UserID      int32
	OldPassword string
	NewPassword string
}) (*bool, error) {
	if _, err := requireOwnerOrAdmin(ctx, args.UserID); err != nil {
		return nil, err
	}

	if err := r.users.UpdatePassword(ctx, uint(args.UserID), args.OldPassword, args.NewPassword); err != nil {
		return nil, toUserError(err)
	}
	return boolPtr(true), nil
}

func (r *Resolver) Login(ctx context.Context, args struct {
	Email    string
	Password string
}) (*authPayloadResolver, error) {
	u, err := r.users.Authenticate(ctx, args.Email, args.Password)
	if err != nil {
		return nil, toUserError(err)
	}

	pair, err := r.tokens.Issue(ctx, u.ID)
	if err != nil {
		return nil, err
	}

	if r.logger != nil {
		r.logger.Info("user logged in", zap.Uint("user_id", u.ID))
	}
	return &authPayloadResolver{pair: pair, user: u}, nil
}

func (r *Resolver) Logout(ctx context.Context) (*bool, error) {
	identity, err := requireIdentity(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.tokens.Revoke(ctx, identity.ID); err != nil {
		return nil, toUserError(err)
	}
	return boolPtr(true), nil
}

func (r *Resolver) InitialUserVerification(ctx context.Context, args struct {
	Number string
	Type   string
}) (*verificationInitiated, error) {
	if _, err := requireIdentity(ctx); err != nil {
		return nil, err
	}

	identityType, err := safehaven.ParseIdentityType(args.Type)
	if err != nil {
		return nil, toUserError(err)
	}
	if len(args.Number) < 11 {
		return nil, toUserError(safehaven.ErrInvalidNumber)
	}

	resp, err := r.provider.SendOTP(ctx, identityType, args.Number)
	if err != nil {
		if errors.Is(err, safehaven.ErrUpstream) {
			return nil, NewUserError("Verification failed. Please try again later.")
		}
		return nil, toUserError(err)
	}

	if resp.StatusCode != 200 {
		if r.logger != nil {
			r.logger.Error("verification request rejected", zap.Int("status_code", resp.StatusCode), zap.String("message", resp.Message))
		}
		return nil, NewUserError("Verification request failed. Please try again later.")
	}

	return &verificationInitiated{
		message: "Verification request sent successfully, Please check your messages for the OTP that was sent to you.",
		id:      resp.Data.ID,
	}, nil
}

type verifiedUser struct {
	FirstName     string  `json:"first_name"`
	LastName      string  `json:"last_name"`
	DOB           string  `json:"dob"`
	Phone         string  `json:"phone"`
	Gender        string  `json:"gender"`
	StateOfOrigin string  `json:"state_of_origin"`
	LgaOfOrigin   *string `json:"lga_of_origin"`
}

func (r *Resolver) VerifyUserOtp(ctx context.Context, args struct {
	ID           string
	Type         string
	Otp          string
	EmailAddress string
	Number       string
}) (*verificationResult, error) {
	if _, err := requireIdentity(ctx); err != nil {
		return nil, err
	}

	identityType, err := safehaven.ParseIdentityType(args.Type)
	if err != nil {
		return nil, toUserError(err)
	}
	if args.ID == "" || args.Otp == "" {
		return nil, toUserError(safehaven.ErrMissingIdentity)
	}

	verification, err := r.provider.ValidateIdentity(ctx, identityType, args.ID, args.Otp)
	if err != nil {
		return nil, r.otpFailure(err)
	}
	if verification.StatusCode != 200 {
		if r.logger != nil {
			r.logger.Error("identity validation rejected", zap.Int("status_code", verification.StatusCode), zap.String("message", verification.Message))
		}
		return nil, NewUserError("Verification request failed. Please try again later.")
	}

	identity := verification.Data.ProviderResponse
	subAccount, err := r.provider.CreateSubAccount(ctx, safehaven.SubAccountRequest{
		PhoneNumber:       user.InternationalPhone(identity.Phone),
		EmailAddress:      args.EmailAddress,
		IdentityType:      identityType,
		ExternalReference: uuid.NewString(),
		IdentityNumber:    args.Number,
		IdentityID:        args.ID,
		OTP:               args.Otp,
		AutoSweep:         false,
	})
	if err != nil {
		return nil, r.otpFailure(err)
	}

	return &verificationResult{
		message: "OTP verification completed successfully and sub account created",
		data: map[string]any{
			"verification": verification,
			"subAccount":   subAccount,
			"user": verifiedUser{
				FirstName:     identity.FirstName,
				LastName:      identity.LastName,
				DOB:           identity.DOB,
				Phone:         identity.Phone,
				Gender:        identity.Gender,
				StateOfOrigin: identity.StateOfOrigin,
				LgaOfOrigin:   identity.LgaOfOrigin,
			},
		},
	}, nil
}

func (r *Resolver) otpFailure(err error) error {
	if !errors.Is(err, safehaven.ErrUpstream) {
		return toUserError(err)
	}
	if r.logger != nil {
		r.logger.Error("otp verification failed", zap.Error(err))
	}
	return NewUserError("OTP verification failed. Please check your OTP and try again.")
}

func (r *Resolver) CreateUserSubAccount(ctx context.Context, args struct {
	PhoneNumber       string
	EmailAddress      string
	IdentityType      string
	ExternalReference string
	IdentityNumber    string
	IdentityID        string
	Otp               string
}) (*verificationResult, error) {
	if _, err := requireIdentity(ctx); err != nil {
		return nil, err
	}

	identityType := safehaven.IdentityType(args.IdentityType)
	if identityType != safehaven.IdentityBVN && identityType != safehaven.IdentityNIN {
		return nil, NewUserError(`identityType must be either "BVN" or "NIN"`)
	}

	resp, err := r.provider.CreateSubAccount(ctx, safehaven.SubAccountRequest{
		PhoneNumber:       user.InternationalPhone(args.PhoneNumber),
		EmailAddress:      args.EmailAddress,
		IdentityType:      identityType,
		ExternalReference: args.ExternalReference,
		IdentityNumber:    args.IdentityNumber,
		IdentityID:        args.IdentityID,
		OTP:               args.Otp,
	})
	if err != nil {
		if r.logger != nil {
			r.logger.Error("sub account creation failed", zap.Error(err))
		}
		return nil, NewUserError("Sub account creation failed. Please try again.")
	}

	return &verificationResult{
		message: "Sub account created successfully",
		data:    resp,
	}, nil
}
