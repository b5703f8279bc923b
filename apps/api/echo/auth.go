package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/mahudhurio/core"
	"github.com/trezcool/mahudhurio/core/account"
)

const (
	tokenContextKey = "userToken"
	audience        = "Attendance"
)

var nowFunc = time.Now // mockable

func newJWTConfig(conf *core.Config) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	}
}

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt int64                `json:"oriat,omitempty"`
	Role         account.Role         `json:"role"`
	Username     string               `json:"username,omitempty"`
	Email        string               `json:"email,omitempty"`
	Name         string               `json:"name,omitempty"`
	Subjects     []account.SubjectRef `json:"subjects,omitempty"`
}

func (c Claims) Identity() account.Identity {
	return account.Identity{
		ID:       c.Subject,
		Role:     c.Role,
		Name:     c.Name,
		Username: c.Username,
		Email:    c.Email,
		Subjects: c.Subjects,
	}
}

func GetIdentityClaims(conf *core.Config, id account.Identity, origIat ...int64) *Claims {
	now := nowFunc()
	nownix := now.Unix()

	oriat := nownix
	if len(origIat) > 0 {
		oriat = origIat[0]
	}

	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   id.ID,
			Audience:  audience,
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt: oriat,
		Role:         id.Role,
		Username:     id.Username,
		Email:        id.Email,
		Name:         id.Name,
		Subjects:     id.Subjects,
	}
}

// GenerateToken generates a signed JWT token string representing the identity Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(middleware.AlgorithmHS256)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextIdentity(ctx echo.Context) (account.Identity, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return account.Identity{}, err
	}
	return claims.Identity(), nil
}

func refreshToken(ctx echo.Context, conf *core.Config, svc *account.Service) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(conf.Server.JWTRefreshExpirationDelta)
	if nowFunc().After(expTime) {
		return "", errRefreshExpired
	}

	// the account must still exist and be active
	id, err := svc.Identity(ctx.Request().Context(), claims.Role, claims.Subject)
	if err != nil {
		if errors.Cause(err) == account.ErrNotFound {
			return "", errUnauthorized
		}
		return "", errors.Wrap(err, "getting identity")
	}

	token, err := GenerateToken(conf, GetIdentityClaims(conf, id, claims.OrigIssuedAt))
	return token, errors.Wrap(err, "generating token")
}
