package authsvc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sunilverma11/town-book/model"
	"github.com/sunilverma11/town-book/util/hash"
	jwtutil "github.com/sunilverma11/town-book/util/jwt"
)

type ErrCode string

const (
	ErrEmailTaken   ErrCode = "EMAIL_TAKEN"
	ErrBadInput     ErrCode = "BAD_INPUT"
	ErrInvalidCreds ErrCode = "INVALID_CREDENTIALS"
)

type codedError struct {
	code ErrCode
	msg  string
}

func (e codedError) Error() string { return e.msg }
func (e codedError) Code() ErrCode { return e.code }

func wrap(c ErrCode, msg string) error { return codedError{code: c, msg: msg} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type Repo interface {
	Create(ctx context.Context, u *model.User) error
	ByEmail(ctx context.Context, email string) (*model.User, error)
}

type Service interface {
	Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error)
	Login(ctx context.Context, req model.LoginReq) (*model.User, string, error)
}

type service struct {
	ur       Repo
	secret   string
	ttlHours int
}

func New(ur Repo, secret string, ttlHours int) Service {
	if ttlHours <= 0 {
		ttlHours = 24
	}
	return &service{ur: ur, secret: secret, ttlHours: ttlHours}
}

func (s *service) Register(ctx context.Context, req model.RegisterReq) (*model.User, string, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" || len(req.Password) < 6 {
		return nil, "", wrap(ErrBadInput, "bad input")
	}

	hashed, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	existing, err := s.ur.ByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, "", wrap(ErrEmailTaken, "email already registered")
	}

	u := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
		Role:         model.RoleMember,
	}
	if err := s.ur.Create(ctx, u); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return nil, "", wrap(ErrEmailTaken, "email already registered")
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := jwtutil.Issue(s.secret, u.ID, u.Role, s.ttlHours)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *service) Login(ctx context.Context, req model.LoginReq) (*model.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, "", wrap(ErrBadInput, "bad input")
	}

	u, err := s.ur.ByEmail(ctx, email)
	if err != nil || u == nil {
		return nil, "", wrap(ErrInvalidCreds, "invalid credentials")
	}
	if !hash.Check(u.PasswordHash, req.Password) {
		return nil, "", wrap(ErrInvalidCreds, "invalid credentials")
	}

	token, err := jwtutil.Issue(s.secret, u.ID, u.Role, s.ttlHours)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}
