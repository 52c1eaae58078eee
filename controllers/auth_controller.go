package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dizmorall/srdhub/middleware"
	"github.com/dizmorall/srdhub/models"
	"github.com/dizmorall/srdhub/services"
	"github.com/dizmorall/srdhub/utils"
)

// AuthController handles accounts: registration, sessions, profiles and user administration.
type AuthController struct {
	users *services.UserService
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(users *services.UserService) *AuthController {
	return &AuthController{users: users}
}

type credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates an account and signs it in.
func (a *AuthController) Register(ctx *gin.Context) {
	var req credentials
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid request payload")
		return
	}
	user, err := a.users.Register(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(ctx, "register", err)
		return
	}
	a.issueToken(ctx, user)
}

// Login verifies credentials and issues a JWT.
func (a *AuthController) Login(ctx *gin.Context) {
	var req credentials
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40031, "invalid request payload")
		return
	}
	user, err := a.users.Authenticate(ctx.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeServiceError(ctx, "login", err)
		return
	}
	a.issueToken(ctx, user)
}

func (a *AuthController) issueToken(ctx *gin.Context, user *models.User) {
	token, claims, err := utils.GenerateToken(user.ID, user.Username, utils.TokenTTL())
	if err != nil {
		writeServiceError(ctx, "generate token", err)
		return
	}
	utils.Success(ctx, gin.H{
		"token":      token,
		"expires_at": claims.ExpiresAt.Time,
		"user":       user,
	})
}

// Logout revokes the current token until it would have expired.
func (a *AuthController) Logout(ctx *gin.Context) {
	if claims := middleware.CurrentClaims(ctx); claims != nil && claims.ExpiresAt != nil {
		utils.BlacklistToken(claims.ID, claims.ExpiresAt.Time)
	}
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the authenticated user.
func (a *AuthController) Me(ctx *gin.Context) {
	user, err := a.users.Get(ctx.Request.Context(), middleware.CurrentActor(ctx).ID)
	if err != nil {
		writeServiceError(ctx, "load current user", err)
		return
	}
	utils.Success(ctx, gin.H{"user": user})
}

// UpdateProfile changes the signature and avatar of the authenticated user.
func (a *AuthController) UpdateProfile(ctx *gin.Context) {
	var req struct {
		Signature *string `json:"signature"`
		AvatarURL *string `json:"avatar_url"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40032, "invalid request payload")
		return
	}
	user, err := a.users.UpdateProfile(ctx.Request.Context(), middleware.CurrentActor(ctx), services.ProfileInput{
		Signature: req.Signature,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		writeServiceError(ctx, "update profile", err)
		return
	}
	// author data is embedded in cached posts and threads
	utils.InvalidateByPrefix(cachePrefix)
	utils.Success(ctx, gin.H{"user": user})
}

// GetUserPublic returns public user info by id.
func (a *AuthController) GetUserPublic(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	user, err := a.users.Get(ctx.Request.Context(), id)
	if err != nil {
		writeServiceError(ctx, "get user", err)
		return
	}
	utils.Success(ctx, gin.H{"user": user})
}

// GetUserPublicByUsername returns public user info by username, ignoring case.
func (a *AuthController) GetUserPublicByUsername(ctx *gin.Context) {
	name := strings.TrimSpace(ctx.Param("username"))
	if name == "" {
		utils.Error(ctx, http.StatusBadRequest, 40051, "missing username")
		return
	}
	user, err := a.users.GetByUsername(ctx.Request.Context(), name)
	if err != nil {
		writeServiceError(ctx, "get user by name", err)
		return
	}
	utils.Success(ctx, gin.H{"user": user})
}

// ListUsers returns paginated users. Admin only.
func (a *AuthController) ListUsers(ctx *gin.Context) {
	page, pageSize := parsePagination(ctx.Query("page"), ctx.Query("page_size"))
	users, total, err := a.users.List(ctx.Request.Context(), middleware.CurrentActor(ctx), page, pageSize)
	if err != nil {
		writeServiceError(ctx, "list users", err)
		return
	}
	utils.Success(ctx, gin.H{"items": users, "pagination": pagination(page, pageSize, total)})
}

// CreateUser creates an account with an explicit role. Admin only.
func (a *AuthController) CreateUser(ctx *gin.Context) {
	var req struct {
		credentials
		Role models.Role `json:"role"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40033, "invalid request payload")
		return
	}
	user, err := a.users.CreateUser(ctx.Request.Context(), middleware.CurrentActor(ctx), req.Username, req.Password, req.Role)
	if err != nil {
		writeServiceError(ctx, "create user", err)
		return
	}
	utils.Success(ctx, gin.H{"user": user})
}

// ChangeRole sets the role of another user. Admin only.
func (a *AuthController) ChangeRole(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	var req struct {
		Role models.Role `json:"role" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40034, "invalid request payload")
		return
	}
	user, err := a.users.ChangeRole(ctx.Request.Context(), middleware.CurrentActor(ctx), id, req.Role)
	if err != nil {
		writeServiceError(ctx, "change role", err)
		return
	}
	utils.Success(ctx, gin.H{"user": user})
}

// DeleteUser removes another account with its posts and comments. Admin only.
func (a *AuthController) DeleteUser(ctx *gin.Context) {
	id, ok := parseID(ctx, "id")
	if !ok {
		return
	}
	report, err := a.users.Delete(ctx.Request.Context(), middleware.CurrentActor(ctx), id)
	if err != nil {
		writeServiceError(ctx, "delete user", err)
		return
	}
	for _, t := range report.Targets {
		invalidateTarget(t)
	}
	utils.InvalidateByPrefix(cachePostListPrefix)
	utils.InvalidateByPrefix(userPostsCachePrefix(id))
	utils.Success(ctx, gin.H{"message": "user deleted", "removed_comments": report.Removed})
}
