package models

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func chatTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	_ = godotenv.Load("../../.env")
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	db, err := InitDB(DatabaseConfig{DSN: dsn})
	require.NoError(t, err)
	return db
}

func chatTestUser(t *testing.T, db *gorm.DB) *User {
	t.Helper()
	user := &User{
		Email:  fmt.Sprintf("chat-%s@test.com", uuid.New().String()[:8]),
		Name:   "Chat Tester",
		Role:   RolePatient,
		City:   "Hyderabad",
		Age:    25,
		Gender: GenderOther,
	}
	require.NoError(t, user.SetPassword("testpass123"))
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestGetOrCreateChatSessionReusesActiveSession(t *testing.T) {
	db := chatTestDB(t)
	user := chatTestUser(t, db)

	first, err := GetOrCreateChatSession(db, user.ID)
	require.NoError(t, err)
	second, err := GetOrCreateChatSession(db, user.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.True(t, first.IsActive)
}

func TestRecentChatMessagesChronologicalOrder(t *testing.T) {
	db := chatTestDB(t)
	user := chatTestUser(t, db)

	session, err := GetOrCreateChatSession(db, user.ID)
	require.NoError(t, err)

	turns := []struct {
		role    ChatRole
		content string
	}{
		{ChatRoleUser, "hello"},
		{ChatRoleAssistant, "hi, how can I help?"},
		{ChatRoleUser, "I have a fever"},
		{ChatRoleAssistant, "since when?"},
	}
	for _, turn := range turns {
		_, err := AppendChatMessage(db, session.ID, turn.role, turn.content, "")
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond) // created_at has millisecond precision
	}

	messages, err := RecentChatMessages(db, session.ID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 4)

	// Insertion order, oldest first.
	for i, turn := range turns {
		assert.Equal(t, turn.role, messages[i].Role)
		assert.Equal(t, turn.content, messages[i].Content)
	}
}

func TestRecentChatMessagesHonorsLimit(t *testing.T) {
	db := chatTestDB(t)
	user := chatTestUser(t, db)

	session, err := GetOrCreateChatSession(db, user.ID)
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		_, err := AppendChatMessage(db, session.ID, ChatRoleUser, fmt.Sprintf("message %d", i), "")
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}

	messages, err := RecentChatMessages(db, session.ID, 3)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	assert.Equal(t, "message 5", messages[2].Content)
}
