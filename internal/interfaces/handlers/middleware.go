package handlers

import (
	"document-access/internal/domain/entities"
	"document-access/internal/domain/services"
	"document-access/internal/interfaces/dto"
	"document-access/pkg/errors"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
)

const authContextKey = "auth"

func respondWithError(c *gin.Context, httpStatus, errorCode int, message string) {
	c.JSON(httpStatus, dto.APIResponse{
		Error: &dto.ErrorResponse{
			Code: errorCode,
			Text: message,
		},
	})
}

func respondWithSuccess(c *gin.Context, response, data any) {
	c.JSON(http.StatusOK, dto.APIResponse{
		Response: response,
		Data:     data,
	})
}

func handleServiceError(c *gin.Context, err error) {
	var (
		validation   *errors.ValidationError
		badRequest   *errors.BadRequestError
		unauthorized *errors.UnauthorizedError
		forbidden    *errors.ForbiddenError
		notFound     *errors.NotFoundError
		conflict     *errors.ConflictError
		delivery     *services.DeliveryError
	)

	switch {
	case stderrors.As(err, &validation):
		c.JSON(http.StatusBadRequest, dto.APIResponse{
			Error: &dto.ErrorResponse{Code: 400, Text: "validation failed", Codes: validation.Codes},
		})
	case stderrors.As(err, &badRequest):
		respondWithError(c, http.StatusBadRequest, 400, badRequest.Message)
	case stderrors.As(err, &unauthorized):
		respondWithError(c, http.StatusUnauthorized, 401, unauthorized.Message)
	case stderrors.As(err, &forbidden):
		respondWithError(c, http.StatusForbidden, 403, forbidden.Message)
	case stderrors.As(err, &notFound):
		respondWithError(c, http.StatusNotFound, 404, notFound.Message)
	case stderrors.As(err, &conflict):
		respondWithError(c, http.StatusConflict, 409, conflict.Message)
	case stderrors.As(err, &delivery):
		c.Error(err)
		respondWithError(c, http.StatusBadGateway, 502, delivery.Error())
	default:
		c.Error(err)
		respondWithError(c, http.StatusInternalServerError, 500, "internal server error")
	}
}

func CORSMiddleware() gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})
}

func HeadToGetMiddleware() gin.HandlerFunc {
	return gin.HandlerFunc(func(c *gin.Context) {
		if c.Request.Method == "HEAD" {
			c.Request.Method = "GET"
			c.Writer = &headResponseWriter{c.Writer}
		}
		c.Next()
	})
}

type headResponseWriter struct {
	gin.ResponseWriter
}

func (w *headResponseWriter) Write(data []byte) (int, error) {
	return len(data), nil
}

// Claims is the bearer token issued by the CMS session layer. The subject
// is the frontend user id.
type Claims struct {
	Groups []string `json:"groups"`
	jwt.RegisteredClaims
}

// AuthMiddleware turns an HS256 bearer token into an AuthContext. Requests
// without a token continue anonymously; malformed or expired tokens are
// rejected.
func AuthMiddleware(secret string, adminGroups []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Set(authContextKey, entities.AuthContext{})
			c.Next()
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid || claims.Subject == "" {
			handleServiceError(c, errors.NewUnauthorizedError("invalid token"))
			c.Abort()
			return
		}

		c.Set(authContextKey, entities.NewAuthContext(claims.Subject, claims.Groups, adminGroups))
		c.Next()
	}
}

func authFrom(c *gin.Context) entities.AuthContext {
	if v, ok := c.Get(authContextKey); ok {
		if auth, ok := v.(entities.AuthContext); ok {
			return auth
		}
	}
	return entities.AuthContext{}
}

// RequireUser rejects anonymous requests.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authFrom(c).Authenticated() {
			handleServiceError(c, errors.NewUnauthorizedError("authentication required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

// LoggerMiddleware writes one structured line per request.
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("user_id", authFrom(c).UserID),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
			logger.Error("request failed", fields...)
			return
		}
		logger.Info("request", fields...)
	}
}
