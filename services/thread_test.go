package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dizmorall/srdhub/internal/testutils"
	"github.com/dizmorall/srdhub/models"
)

func threadIDs(nodes []ThreadNode) map[uint][]uint {
	out := make(map[uint][]uint, len(nodes))
	for _, n := range nodes {
		ids := []uint{}
		for _, r := range n.Replies {
			ids = append(ids, r.ID)
		}
		out[n.Comment.ID] = ids
	}
	return out
}

func TestAssembleThreadEmpty(t *testing.T) {
	f := setupServices(t)

	nodes, err := f.threads.AssembleThread(context.Background(), models.PageTarget(models.KindSpell, "wish"))
	require.NoError(t, err)
	assert.NotNil(t, nodes)
	assert.Empty(t, nodes)
}

func TestAssembleThreadOrdering(t *testing.T) {
	f := setupServices(t)
	u := testutils.CreateTestUser(f.db)
	post := testutils.CreateTestPost(f.db, u.ID)
	target := models.PostTarget(post.ID)
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	at := func(m int) testutils.CommentOption { return testutils.WithCreatedAt(base.Add(time.Duration(m) * time.Minute)) }

	second := testutils.CreateTestComment(f.db, u.ID, target, at(10))
	first := testutils.CreateTestComment(f.db, u.ID, target, at(0))
	third := testutils.CreateTestComment(f.db, u.ID, target, at(10))
	r2 := testutils.CreateTestComment(f.db, u.ID, target, at(30), testutils.WithParent(first.ID))
	r1 := testutils.CreateTestComment(f.db, u.ID, target, at(20), testutils.WithParent(first.ID))
	r3 := testutils.CreateTestComment(f.db, u.ID, target, at(15), testutils.WithParent(third.ID))

	// comments on other targets never leak in
	testutils.CreateTestComment(f.db, u.ID, models.PageTarget(models.KindSpell, "fireball"), at(1))

	nodes, err := f.threads.AssembleThread(context.Background(), target)
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	assert.Equal(t, []uint{first.ID, second.ID, third.ID}, []uint{nodes[0].Comment.ID, nodes[1].Comment.ID, nodes[2].Comment.ID})
	assert.Equal(t, map[uint][]uint{
		first.ID:  {r1.ID, r2.ID},
		second.ID: {},
		third.ID:  {r3.ID},
	}, threadIDs(nodes))
	assert.NotNil(t, nodes[1].Replies)
	assert.Equal(t, u.Username, nodes[0].Comment.User.Username)
	assert.Equal(t, u.Username, nodes[0].Replies[0].User.Username)
}

func TestAssembleThreadSkipsNestedReplies(t *testing.T) {
	f := setupServices(t)
	u := testutils.CreateTestUser(f.db)
	target := models.PageTarget(models.KindClass, "rogue")

	root := testutils.CreateTestComment(f.db, u.ID, target)
	reply := testutils.CreateTestComment(f.db, u.ID, target, testutils.WithParent(root.ID))
	// legacy rows nested deeper than one level are not part of the thread
	testutils.CreateTestComment(f.db, u.ID, target, testutils.WithParent(reply.ID))

	nodes, err := f.threads.AssembleThread(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, map[uint][]uint{root.ID: {reply.ID}}, threadIDs(nodes))
}

func TestThreadLifecycle(t *testing.T) {
	f := setupServices(t)
	ctx := context.Background()
	a := testutils.CreateTestUser(f.db)
	b := testutils.CreateTestUser(f.db)

	p1, err := f.posts.Create(ctx, actorOf(a), PostInput{Title: "P1", Content: "first post"})
	require.NoError(t, err)
	target := models.PostTarget(p1.ID)

	c1, err := f.comments.CreateComment(ctx, actorOf(a), target, "c1", nil)
	require.NoError(t, err)
	c2, err := f.comments.CreateComment(ctx, actorOf(b), target, "c2", &c1.ID)
	require.NoError(t, err)

	nodes, err := f.threads.AssembleThread(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, map[uint][]uint{c1.ID: {c2.ID}}, threadIDs(nodes))

	_, err = f.comments.DeleteComment(ctx, actorOf(a), c1.ID)
	require.NoError(t, err)

	nodes, err = f.threads.AssembleThread(ctx, target)
	require.NoError(t, err)
	assert.Empty(t, nodes)
	assert.False(t, commentExists(t, f.db, c2.ID))
}
