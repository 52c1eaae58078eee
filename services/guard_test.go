package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dizmorall/srdhub/models"
)

func TestCanDelete(t *testing.T) {
	comment := &models.Comment{UserID: 7}
	post := &models.Post{UserID: 7}

	tests := []struct {
		name  string
		actor Actor
		want  bool
	}{
		{"author", Actor{ID: 7, Role: models.RoleUser}, true},
		{"other user", Actor{ID: 8, Role: models.RoleUser}, false},
		{"moderator", Actor{ID: 9, Role: models.RoleModerator}, true},
		{"admin", Actor{ID: 10, Role: models.RoleAdmin}, true},
		{"anonymous", Actor{}, false},
		{"anonymous with staff role", Actor{Role: models.RoleAdmin}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanDelete(tt.actor, comment), "comment")
			assert.Equal(t, tt.want, CanDelete(tt.actor, post), "post")
		})
	}
}

func TestCanDeleteUser(t *testing.T) {
	tests := []struct {
		name     string
		actor    Actor
		targetID uint
		want     bool
	}{
		{"admin deletes other", Actor{ID: 1, Role: models.RoleAdmin}, 2, true},
		{"admin deletes self", Actor{ID: 1, Role: models.RoleAdmin}, 1, false},
		{"moderator", Actor{ID: 1, Role: models.RoleModerator}, 2, false},
		{"user", Actor{ID: 1, Role: models.RoleUser}, 2, false},
		{"anonymous", Actor{}, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanDeleteUser(tt.actor, tt.targetID))
			assert.Equal(t, tt.want, CanChangeRole(tt.actor, tt.targetID))
		})
	}
}

func TestCanEditPost(t *testing.T) {
	post := &models.Post{UserID: 3}

	assert.True(t, CanEditPost(Actor{ID: 3, Role: models.RoleUser}, post))
	assert.False(t, CanEditPost(Actor{ID: 4, Role: models.RoleAdmin}, post))
	assert.False(t, CanEditPost(Actor{}, &models.Post{}))
}

func TestCanManageUsers(t *testing.T) {
	assert.True(t, CanManageUsers(Actor{ID: 1, Role: models.RoleAdmin}))
	assert.False(t, CanManageUsers(Actor{ID: 1, Role: models.RoleModerator}))
	assert.False(t, CanManageUsers(Actor{Role: models.RoleAdmin}))
}
