package services

import (
	"agora/domain/agora"
	"agora/moderation"
	"agora/repositories"
	"agora/runtime"
	"agora/runtime/workers"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/mama165/sdk-go/logs"
	"github.com/samber/lo"
	"github.com/stretchr/testify/require"
)

const (
	rootCategory agora.CategoryID = 1
	categoryA    agora.CategoryID = 2
	categoryB    agora.CategoryID = 3
)

// fixture wires the services on a real badger store and bluge index, with
// the categories root <- A <- B and users 1 to 20.
type fixture struct {
	log           *slog.Logger
	db            *badger.DB
	agoras        *repositories.AgoraRepository
	users         *repositories.UserRepository
	categories    *repositories.CategoryRepository
	chats         *repositories.ChatRepository
	index         *repositories.SearchIndex
	locks         *runtime.SessionLocks
	registry      *runtime.Registry
	orchestrator  *runtime.Orchestrator
	agoraService  *AgoraService
	participation *ParticipationRegistry
	chatService   *ChatService
	searchService *SearchService
}

func newFixture(t *testing.T, limitMessages *int, pageSize int) *fixture {
	req := require.New(t)
	log := logs.GetLoggerFromLevel(slog.LevelError)

	db, err := badger.Open(badger.DefaultOptions(t.TempDir()).WithLoggingLevel(badger.ERROR))
	req.NoError(err)
	writer, err := bluge.OpenWriter(bluge.DefaultConfig(t.TempDir()))
	req.NoError(err)

	agoras, err := repositories.NewAgoraRepository(db, log)
	req.NoError(err)
	chats, err := repositories.NewChatRepository(db, log, limitMessages)
	req.NoError(err)
	users := repositories.NewUserRepository(db)
	categories := repositories.NewCategoryRepository(db)
	index := repositories.NewSearchIndex(writer, log)

	locks := runtime.NewSessionLocks()
	registry := runtime.NewRegistry()
	orchestrator := runtime.NewOrchestrator(log, workers.NewSupervisor(log, 10*time.Millisecond),
		registry, 2, 16, time.Second)
	orchestrator.Start(context.Background())

	moderator, err := moderation.NewModerator([]string{"idiot"}, '*')
	req.NoError(err)

	t.Cleanup(func() {
		orchestrator.Stop()
		_ = chats.Close()
		_ = agoras.Close()
		_ = writer.Close()
		_ = db.Close()
	})

	req.NoError(categories.SaveCategory(agora.Category{ID: rootCategory, Level: 0, Name: "Society"}))
	req.NoError(categories.SaveCategory(agora.Category{ID: categoryA, ParentID: lo.ToPtr(rootCategory), Level: 1, Name: "Environment"}))
	req.NoError(categories.SaveCategory(agora.Category{ID: categoryB, ParentID: lo.ToPtr(categoryA), Level: 2, Name: "Climate"}))
	for i := 1; i <= 20; i++ {
		req.NoError(users.SaveUser(repositories.User{ID: agora.UserID(i), Name: "user", CreatedAt: time.Now().UTC()}))
	}

	return &fixture{
		log:           log,
		db:            db,
		agoras:        agoras,
		users:         users,
		categories:    categories,
		chats:         chats,
		index:         index,
		locks:         locks,
		registry:      registry,
		orchestrator:  orchestrator,
		agoraService:  NewAgoraService(log, agoras, categories, index, locks, orchestrator),
		participation: NewParticipationRegistry(log, agoras, users, locks),
		chatService:   NewChatService(log, agoras, chats, users, moderator, orchestrator, registry),
		searchService: NewSearchService(index, agora.NewHierarchyResolver(categories, 16), agoras, pageSize),
	}
}

func (f *fixture) createAgora(t *testing.T, title string, capacity int, category agora.CategoryID) agora.Agora {
	t.Helper()
	a, err := f.agoraService.Create(context.Background(), agora.CreateAgoraCommand{
		Title:      title,
		Capacity:   capacity,
		Color:      "#1e90ff",
		CategoryID: category,
	})
	require.NoError(t, err)
	return a
}

func (f *fixture) join(t *testing.T, id agora.ID, userID agora.UserID) agora.Membership {
	t.Helper()
	m, err := f.participation.Join(context.Background(), joinCommand(id, userID))
	require.NoError(t, err)
	return m
}

func joinCommand(id agora.ID, userID agora.UserID) agora.JoinCommand {
	return agora.JoinCommand{
		AgoraID:     id,
		UserID:      userID,
		Role:        agora.RolePros,
		Nickname:    "speaker",
		AvatarIndex: 3,
	}
}
