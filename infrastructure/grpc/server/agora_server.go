package server

import (
	"agora/auth"
	"agora/domain/agora"
	"agora/domain/event"
	"agora/errors"
	pb "agora/infrastructure/grpc/agorav1"
	"agora/services"
	"agora/sink"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"
)

var _ pb.AgoraServiceServer = (*AgoraServer)(nil)

// PublicMethods can be called without a principal.
var PublicMethods = []string{
	pb.AgoraService_GetAgora_FullMethodName,
	pb.AgoraService_SearchByKeyword_FullMethodName,
	pb.AgoraService_SearchByCategory_FullMethodName,
	"/grpc.health.v1.Health/Check",
	"/grpc.health.v1.Health/Watch",
}

type AgoraServer struct {
	log                  *slog.Logger
	agoraService         services.IAgoraService
	participation        services.IParticipationRegistry
	chatService          services.IChatService
	searchService        services.ISearchService
	connectionBufferSize int
}

func NewAgoraServer(log *slog.Logger, agoraService services.IAgoraService,
	participation services.IParticipationRegistry, chatService services.IChatService,
	searchService services.ISearchService, connectionBufferSize int) *AgoraServer {
	return &AgoraServer{
		log:                  log,
		agoraService:         agoraService,
		participation:        participation,
		chatService:          chatService,
		searchService:        searchService,
		connectionBufferSize: connectionBufferSize,
	}
}

func (s *AgoraServer) CreateAgora(ctx context.Context, req *pb.CreateAgoraRequest) (*pb.Agora, error) {
	if _, err := principal(ctx); err != nil {
		return nil, err
	}
	a, err := s.agoraService.Create(ctx, agora.CreateAgoraCommand{
		Title:      req.Title,
		Capacity:   req.Capacity,
		Duration:   time.Duration(req.DurationSeconds) * time.Second,
		Color:      req.Color,
		CategoryID: agora.CategoryID(req.CategoryID),
	})
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return toAgora(a, 0), nil
}

func (s *AgoraServer) GetAgora(_ context.Context, req *pb.GetAgoraRequest) (*pb.Agora, error) {
	id := agora.ID(req.AgoraID)
	a, err := s.agoraService.Get(id)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	participants, err := s.participation.CountActive(id)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return toAgora(a, participants), nil
}

func (s *AgoraServer) JoinAgora(ctx context.Context, req *pb.JoinAgoraRequest) (*pb.JoinAgoraResponse, error) {
	userID, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	m, err := s.participation.Join(ctx, agora.JoinCommand{
		AgoraID:     agora.ID(req.AgoraID),
		UserID:      userID,
		Role:        agora.Role(req.Role),
		Nickname:    req.Nickname,
		AvatarIndex: req.AvatarIndex,
	})
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &pb.JoinAgoraResponse{
		AgoraID:      int64(m.AgoraID),
		MembershipID: m.ID,
		Handle:       m.UUID.String(),
		Role:         string(m.Role),
	}, nil
}

func (s *AgoraServer) StartAgora(ctx context.Context, req *pb.AgoraRequest) (*pb.Agora, error) {
	userID, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	return s.withParticipants(s.agoraService.Start(ctx, agora.ID(req.AgoraID), userID))
}

func (s *AgoraServer) CastEndVote(ctx context.Context, req *pb.AgoraRequest) (*pb.Agora, error) {
	userID, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	return s.withParticipants(s.agoraService.CastEndVote(ctx, agora.ID(req.AgoraID), userID))
}

func (s *AgoraServer) CompleteAgora(ctx context.Context, req *pb.AgoraRequest) (*pb.Agora, error) {
	if _, err := principal(ctx); err != nil {
		return nil, err
	}
	return s.withParticipants(s.agoraService.Complete(ctx, agora.ID(req.AgoraID)))
}

// SendChat stores the chat and queues it for broadcast. The sender gets it
// back through its own Subscribe stream like every other subscriber.
func (s *AgoraServer) SendChat(ctx context.Context, req *pb.SendChatRequest) (*pb.Chat, error) {
	userID, err := principal(ctx)
	if err != nil {
		return nil, err
	}
	chat, err := s.chatService.Send(ctx, agora.SendChatCommand{
		AgoraID: agora.ID(req.AgoraID),
		UserID:  userID,
		Content: req.Content,
	})
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return toChat(chat), nil
}

func (s *AgoraServer) GetChats(_ context.Context, req *pb.GetChatsRequest) (*pb.GetChatsResponse, error) {
	chats, cursor, err := s.chatService.History(agora.HistoryCommand{
		AgoraID: agora.ID(req.AgoraID),
		Cursor:  req.Cursor,
	})
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return &pb.GetChatsResponse{
		Chats:  lo.Map(chats, func(c agora.Chat, _ int) *pb.Chat { return toChat(c) }),
		Cursor: cursor,
	}, nil
}

func (s *AgoraServer) SearchByKeyword(ctx context.Context, req *pb.SearchByKeywordRequest) (*pb.SearchResponse, error) {
	statuses, err := agora.ParseStatuses(req.Status)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	page, err := s.searchService.ByKeyword(ctx, agora.SearchQuery{
		Keyword:  req.Keyword,
		Statuses: statuses,
		Next:     toID(req.Next),
	})
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return toSearchResponse(page), nil
}

func (s *AgoraServer) SearchByCategory(ctx context.Context, req *pb.SearchByCategoryRequest) (*pb.SearchResponse, error) {
	statuses, err := agora.ParseStatuses(req.Status)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	page, err := s.searchService.ByCategory(ctx, agora.SearchQuery{
		CategoryID: lo.ToPtr(agora.CategoryID(req.CategoryID)),
		Statuses:   statuses,
		Next:       toID(req.Next),
	})
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return toSearchResponse(page), nil
}

// Subscribe streams the chats and status changes of an agora.
// It registers a dedicated sink in the registry and blocks until the client
// disconnects; the deferred unsubscribe keeps the registry free of dead sinks.
func (s *AgoraServer) Subscribe(req *pb.SubscribeRequest, stream pb.AgoraService_SubscribeServer) error {
	userID, err := principal(stream.Context())
	if err != nil {
		return err
	}
	id := agora.ID(req.AgoraID)
	grpcSink := sink.NewGrpcSink(s.log, s.connectionBufferSize)
	subscriptionID, err := s.chatService.Subscribe(id, grpcSink)
	if err != nil {
		return errors.MapToGRPCError(err)
	}
	defer s.chatService.Unsubscribe(subscriptionID, id)

	if err := stream.Send(&pb.AgoraEvent{Kind: pb.EventSubscribed, AgoraID: req.AgoraID}); err != nil {
		return err
	}
	for {
		select {
		case <-stream.Context().Done():
			s.log.Debug("Subscriber disconnected", "agora_id", id, "user_id", userID,
				"dropped", grpcSink.Dropped())
			return nil
		case evt := <-grpcSink.Events():
			msg, ok := toAgoraEvent(evt)
			if !ok {
				continue
			}
			if err := stream.Send(msg); err != nil {
				s.log.Error("failed to push event to stream",
					"user_id", userID,
					"agora_id", id,
					"error", err)
				return err
			}
		}
	}
}

func (s *AgoraServer) withParticipants(a agora.Agora, err error) (*pb.Agora, error) {
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	participants, err := s.participation.CountActive(a.ID)
	if err != nil {
		return nil, errors.MapToGRPCError(err)
	}
	return toAgora(a, participants), nil
}

func principal(ctx context.Context) (agora.UserID, error) {
	userID, ok := auth.UserIDFromContext(ctx)
	if !ok {
		return 0, errors.MapToGRPCError(fmt.Errorf("%w: principal is missing", errors.ErrUnauthenticated))
	}
	return userID, nil
}

func toID(next *int64) *agora.ID {
	if next == nil {
		return nil
	}
	return lo.ToPtr(agora.ID(*next))
}

func toAgora(a agora.Agora, participants int) *pb.Agora {
	return &pb.Agora{
		ID:           int64(a.ID),
		Title:        a.Title,
		Capacity:     a.Capacity,
		Color:        a.Color,
		CategoryID:   int64(a.CategoryID),
		Status:       string(a.Status),
		EndVoteCount: a.EndVoteCount,
		Participants: participants,
		CreatedAt:    a.CreatedAt,
		StartedAt:    optionalTime(a.StartedAt),
		ClosedAt:     optionalTime(a.ClosedAt),
	}
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func toChat(c agora.Chat) *pb.Chat {
	return &pb.Chat{
		ID:      c.ID,
		AgoraID: int64(c.AgoraID),
		Type:    string(c.Type),
		Content: c.Content,
		Author: pb.ChatAuthor{
			MembershipID: c.Author.MembershipID,
			Role:         string(c.Author.Role),
			Nickname:     c.Author.Nickname,
			AvatarIndex:  c.Author.AvatarIndex,
		},
		CreatedAt: c.CreatedAt,
	}
}

func toSearchResponse(page agora.Page) *pb.SearchResponse {
	resp := &pb.SearchResponse{
		Agoras: lo.Map(page.Agoras, func(a agora.Summary, _ int) *pb.AgoraSummary {
			return &pb.AgoraSummary{
				ID:           int64(a.ID),
				Title:        a.Title,
				Color:        a.Color,
				Status:       string(a.Status),
				CategoryID:   int64(a.CategoryID),
				Capacity:     a.Capacity,
				Participants: a.Participants,
				CreatedAt:    a.CreatedAt,
			}
		}),
	}
	if page.Next != nil {
		resp.Next = lo.ToPtr(int64(*page.Next))
	}
	return resp
}

func toAgoraEvent(evt event.DomainEvent) (*pb.AgoraEvent, bool) {
	switch e := evt.(type) {
	case event.ChatPosted:
		return &pb.AgoraEvent{Kind: pb.EventChat, AgoraID: int64(e.AgoraID()), Chat: toChat(e.Chat)}, true
	case event.StatusChanged:
		return &pb.AgoraEvent{
			Kind:    pb.EventStatus,
			AgoraID: int64(e.AgoraID()),
			Status: &pb.StatusEvent{
				From:         string(e.From),
				To:           string(e.To),
				EndVoteCount: e.EndVoteCount,
				At:           e.At,
			},
		}, true
	}
	return nil, false
}
